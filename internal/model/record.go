package model

import (
	"strconv"
	"time"
)

// DateLayout is the serialized form of every date in the master table.
const DateLayout = "2006-01-02"

// Master table column names, in their fixed storage order.
const (
	ColEmail         = "Patient Email"
	ColFirstName     = "Patient First Name"
	ColProvider      = "Appointment Provider Name"
	ColFirstSeen     = "First Seen Date"
	ColStatus        = "Status"
	ColLastEmail     = "Last Email Date"
	ColFollowupCount = "Followup Count"
)

// MasterColumns returns the master table header in storage order.
func MasterColumns() []string {
	return []string{
		ColEmail,
		ColFirstName,
		ColProvider,
		ColFirstSeen,
		ColStatus,
		ColLastEmail,
		ColFollowupCount,
	}
}

// Record is one row of the master table. Email is the primary key and is
// never changed after the record is created.
type Record struct {
	Email         string
	FirstName     string
	Provider      string
	FirstSeen     time.Time
	Status        Status
	LastEmail     *time.Time // nil until the first send
	FollowupCount int
}

// NewRecord builds a freshly seen PENDING record.
func NewRecord(in ImportRecord, today time.Time) Record {
	return Record{
		Email:     in.Email,
		FirstName: in.FirstName,
		Provider:  in.Provider,
		FirstSeen: Day(today),
		Status:    StatusPending,
	}
}

// Terminal reports whether the record has finished the cadence for good:
// FOLLOWUP14 with at least maxSends sends.
func (r *Record) Terminal(maxSends int) bool {
	return r.Status == StatusFollowup14 && r.FollowupCount >= maxSends
}

// Transition moves the record to status to, rejecting moves that are not
// on the cadence path.
func (r *Record) Transition(to Status) error {
	if !CanTransition(r.Status, to) {
		return &TransitionError{Email: r.Email, From: r.Status, To: to}
	}
	r.Status = to
	return nil
}

// MarkSent records one more send on day today.
func (r *Record) MarkSent(today time.Time) {
	d := Day(today)
	r.LastEmail = &d
	r.FollowupCount++
}

// Values returns the record as strings in MasterColumns order.
func (r *Record) Values() []string {
	last := ""
	if r.LastEmail != nil {
		last = r.LastEmail.Format(DateLayout)
	}
	return []string{
		r.Email,
		r.FirstName,
		r.Provider,
		r.FirstSeen.Format(DateLayout),
		string(r.Status),
		last,
		strconv.Itoa(r.FollowupCount),
	}
}

// CopyValues returns the record's values in SQL column order, with a nil
// last email date for unsent records.
func (r *Record) CopyValues() []any {
	var last any
	if r.LastEmail != nil {
		last = *r.LastEmail
	}
	return []any{
		r.Email,
		r.FirstName,
		r.Provider,
		r.FirstSeen,
		string(r.Status),
		last,
		r.FollowupCount,
	}
}

// SQLColumns returns the master table column names used by the SQL stores.
func SQLColumns() []string {
	return []string{
		"email",
		"first_name",
		"provider",
		"first_seen_date",
		"status",
		"last_email_date",
		"followup_count",
	}
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole calendar days from 'from' to 'to'.
func DaysBetween(from, to time.Time) int {
	return int(Day(to).Sub(Day(from)).Hours() / 24)
}

// Clone returns a deep copy of records so callers can mutate freely.
func Clone(records []Record) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = r
		if r.LastEmail != nil {
			d := *r.LastEmail
			out[i].LastEmail = &d
		}
	}
	return out
}
