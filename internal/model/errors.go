package model

import "errors"

// Error kinds shared by every stage. Wrap them with %w so callers can
// branch with errors.Is.
var (
	// ErrMalformedInput marks unusable input: missing columns, bad dates,
	// rows without an email, corrupt stored rows.
	ErrMalformedInput = errors.New("malformed input")
	// ErrStoreUnavailable marks a master store that could not be reached,
	// locked, read or written.
	ErrStoreUnavailable = errors.New("master store unavailable")
)
