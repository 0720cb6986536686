package campaign

import (
	"sort"
	"time"

	"github.com/gyeh/outreach/internal/model"
)

// Batch is the ordered list of patients selected for today's send.
type Batch struct {
	Records []model.Record
	Summary model.BatchSummary
}

// SelectBatch picks today's recipients from master and advances them.
//
// Terminal records are skipped. The rest are taken in three tiers, PENDING
// by first-seen date, then FOLLOWUP7 and FOLLOWUP14 by last email date,
// oldest first, up to p.DailyLimit. Each selected record moves one step
// (PENDING to SENT, FOLLOWUP7 to FOLLOWUP14, FOLLOWUP14 stays) and gets
// today's date and one more send. Unselected records are untouched.
//
// It returns the batch (post-update copies, in selection order) and the
// full updated table. master itself is not mutated.
func SelectBatch(master []model.Record, p Policy, today time.Time) (*Batch, []model.Record, error) {
	updated := model.Clone(master)

	var pending, f7, f14 []int
	terminal := 0
	for i := range updated {
		r := &updated[i]
		if r.Terminal(p.MaxSends) {
			terminal++
			continue
		}
		switch r.Status {
		case model.StatusPending:
			pending = append(pending, i)
		case model.StatusFollowup7:
			f7 = append(f7, i)
		case model.StatusFollowup14:
			f14 = append(f14, i)
		}
	}

	sort.SliceStable(pending, func(a, b int) bool {
		return updated[pending[a]].FirstSeen.Before(updated[pending[b]].FirstSeen)
	})
	byLastEmail := func(idx []int) {
		sort.SliceStable(idx, func(a, b int) bool {
			return lastEmail(&updated[idx[a]]).Before(lastEmail(&updated[idx[b]]))
		})
	}
	byLastEmail(f7)
	byLastEmail(f14)

	order := make([]int, 0, len(pending)+len(f7)+len(f14))
	order = append(order, pending...)
	order = append(order, f7...)
	order = append(order, f14...)

	summary := model.BatchSummary{Terminal: terminal, Eligible: len(order)}
	if len(order) > p.DailyLimit {
		order = order[:p.DailyLimit]
	}

	batch := &Batch{Records: make([]model.Record, 0, len(order))}
	for _, i := range order {
		r := &updated[i]
		switch r.Status {
		case model.StatusPending:
			summary.FromPending++
			if err := r.Transition(model.StatusSent); err != nil {
				return nil, nil, err
			}
		case model.StatusFollowup7:
			summary.FromF7++
			if err := r.Transition(model.StatusFollowup14); err != nil {
				return nil, nil, err
			}
		case model.StatusFollowup14:
			summary.FromF14++
		}
		r.MarkSent(today)
		batch.Records = append(batch.Records, model.Clone([]model.Record{*r})[0])
	}
	summary.Selected = len(batch.Records)
	batch.Summary = summary

	return batch, updated, nil
}

// lastEmail returns the last send date, or the zero time for a record that
// was never sent, which sorts it first.
func lastEmail(r *model.Record) time.Time {
	if r.LastEmail == nil {
		return time.Time{}
	}
	return *r.LastEmail
}
