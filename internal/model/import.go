package model

import "time"

// ImportRecord is one cleaned roster entry handed to the intake merger.
// Email is already lowercased and trimmed.
type ImportRecord struct {
	Email     string
	FirstName string
	Provider  string
}

// RosterRow mirrors the Parquet layout of a daily roster export.
type RosterRow struct {
	FirstName string  `parquet:"patient_first_name"`
	Email     *string `parquet:"patient_email,optional"`
	Provider  *string `parquet:"appointment_provider_name,optional"`
}

// NoReviewFeed is a dated list of patients still awaiting review.
type NoReviewFeed struct {
	PostDate time.Time
	Emails   map[string]struct{}
}

// Contains reports whether email is still awaiting review.
func (f *NoReviewFeed) Contains(email string) bool {
	_, ok := f.Emails[email]
	return ok
}
