package campaign

import (
	"fmt"
	"time"

	"github.com/gyeh/outreach/internal/model"
)

var today = time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)

func day(offset int) time.Time {
	return today.AddDate(0, 0, offset)
}

func ptr(t time.Time) *time.Time {
	return &t
}

// rec builds a record; lastOffset < -1000 means never sent.
func rec(email string, st model.Status, firstSeenOffset, lastOffset, count int) model.Record {
	r := model.Record{
		Email:         email,
		FirstName:     "Name " + email,
		Provider:      "Dr. Test",
		FirstSeen:     day(firstSeenOffset),
		Status:        st,
		FollowupCount: count,
	}
	if lastOffset > -1000 {
		r.LastEmail = ptr(day(lastOffset))
	}
	return r
}

const never = -9999

func byEmail(records []model.Record) map[string]model.Record {
	m := make(map[string]model.Record, len(records))
	for _, r := range records {
		m[r.Email] = r
	}
	return m
}

func emails(n int, prefix string) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s%03d@example.com", prefix, i)
	}
	return out
}
