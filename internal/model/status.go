package model

import "fmt"

// Status is the campaign position of a patient record.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusSent       Status = "SENT"
	StatusFollowup7  Status = "FOLLOWUP7"
	StatusFollowup14 Status = "FOLLOWUP14"
	StatusCompleted  Status = "COMPLETED"
)

// AllStatuses lists every status in cadence order.
var AllStatuses = []Status{
	StatusPending,
	StatusSent,
	StatusFollowup7,
	StatusFollowup14,
	StatusCompleted,
}

// transitions holds the only legal status moves. Staying in the same
// status is always allowed and is not listed here.
var transitions = map[Status][]Status{
	StatusPending:    {StatusSent, StatusCompleted},
	StatusSent:       {StatusFollowup7, StatusCompleted},
	StatusFollowup7:  {StatusFollowup14, StatusCompleted},
	StatusFollowup14: {StatusCompleted},
}

// ParseStatus returns the Status for s, or an error if s is not one of the
// five known states. Matching is exact: stored values are upper case.
func ParseStatus(s string) (Status, error) {
	for _, st := range AllStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// CanTransition reports whether a record may move from one status to another.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// TransitionError is returned when a status change is not on the cadence path.
type TransitionError struct {
	Email string
	From  Status
	To    Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid status transition for %s: %s -> %s", e.Email, e.From, e.To)
}
