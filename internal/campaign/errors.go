package campaign

import (
	"errors"
	"fmt"

	"github.com/gyeh/outreach/internal/model"
)

// PipelineError wraps an error with the phase where it occurred.
type PipelineError struct {
	Phase string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Phase, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// storeFailure tags err as a store failure unless it already carries the
// malformed-input kind (a corrupt row read back from the store).
func storeFailure(phase string, err error) error {
	if errors.Is(err, model.ErrMalformedInput) || errors.Is(err, model.ErrStoreUnavailable) {
		return &PipelineError{Phase: phase, Err: err}
	}
	return &PipelineError{Phase: phase, Err: fmt.Errorf("%w: %w", model.ErrStoreUnavailable, err)}
}

// IsMalformed reports whether err was caused by unusable input.
func IsMalformed(err error) bool {
	return errors.Is(err, model.ErrMalformedInput)
}

// IsStoreUnavailable reports whether err was caused by the master store.
func IsStoreUnavailable(err error) bool {
	return errors.Is(err, model.ErrStoreUnavailable)
}
