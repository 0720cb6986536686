package campaign

import (
	"fmt"

	"github.com/gyeh/outreach/internal/config"
)

// Policy holds the cadence tunables.
type Policy struct {
	// DailyLimit caps the number of patients selected per run.
	DailyLimit int
	// FirstFollowupDays is the minimum age of a SENT email before the
	// patient moves to FOLLOWUP7.
	FirstFollowupDays int
	// SecondFollowupDays is the minimum age of a FOLLOWUP7 email before the
	// patient moves to FOLLOWUP14.
	SecondFollowupDays int
	// MaxSends is the send count at which a FOLLOWUP14 patient is done.
	MaxSends int
}

// DefaultPolicy returns the production cadence: 300 per day, follow-ups
// after 3 and 7 days, three sends in total.
func DefaultPolicy() Policy {
	return Policy{
		DailyLimit:         300,
		FirstFollowupDays:  3,
		SecondFollowupDays: 7,
		MaxSends:           3,
	}
}

// Validate rejects non-positive tunables.
func (p Policy) Validate() error {
	switch {
	case p.DailyLimit <= 0:
		return fmt.Errorf("daily limit must be positive, got %d", p.DailyLimit)
	case p.FirstFollowupDays < 0:
		return fmt.Errorf("first follow-up days must not be negative, got %d", p.FirstFollowupDays)
	case p.SecondFollowupDays < 0:
		return fmt.Errorf("second follow-up days must not be negative, got %d", p.SecondFollowupDays)
	case p.MaxSends <= 0:
		return fmt.Errorf("max sends must be positive, got %d", p.MaxSends)
	}
	return nil
}

// PolicyFrom reads the cadence tunables from cfg.
func PolicyFrom(cfg *config.Config) Policy {
	return Policy{
		DailyLimit:         cfg.DailyLimit,
		FirstFollowupDays:  cfg.FirstFollowupDays,
		SecondFollowupDays: cfg.SecondFollowupDays,
		MaxSends:           cfg.MaxSends,
	}
}
