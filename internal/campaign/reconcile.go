package campaign

import (
	"time"

	"github.com/gyeh/outreach/internal/model"
)

// Reconcile re-evaluates every previously sent record against a no-review
// feed posted on feed.PostDate. The first matching rule wins:
//
//  1. terminal records are skipped;
//  2. records never sent are skipped;
//  3. records last sent after the post date are skipped;
//  4. records absent from the feed are COMPLETED;
//  5. records still in the feed advance by elapsed days since the last
//     send: SENT to FOLLOWUP7, FOLLOWUP7 to FOLLOWUP14.
//
// master is not mutated; the updated table is returned.
func Reconcile(master []model.Record, feed *model.NoReviewFeed, p Policy, today time.Time) ([]model.Record, *model.ReconcileSummary, error) {
	updated := model.Clone(master)
	postDate := model.Day(feed.PostDate)
	summary := &model.ReconcileSummary{PostDate: postDate, FeedSize: len(feed.Emails)}

	for i := range updated {
		r := &updated[i]

		if r.Terminal(p.MaxSends) {
			summary.SkippedTerm++
			continue
		}
		if r.LastEmail == nil {
			summary.SkippedUnsent++
			continue
		}
		if r.LastEmail.After(postDate) {
			summary.SkippedLater++
			continue
		}

		before := r.Status
		if !feed.Contains(r.Email) {
			if err := r.Transition(model.StatusCompleted); err != nil {
				return nil, nil, err
			}
			if before != model.StatusCompleted {
				summary.Completed++
			} else {
				summary.Unchanged++
			}
			continue
		}

		elapsed := model.DaysBetween(*r.LastEmail, today)
		switch {
		case r.Status == model.StatusSent && elapsed >= p.FirstFollowupDays:
			if err := r.Transition(model.StatusFollowup7); err != nil {
				return nil, nil, err
			}
			summary.AdvancedToF7++
		case r.Status == model.StatusFollowup7 && elapsed >= p.SecondFollowupDays:
			if err := r.Transition(model.StatusFollowup14); err != nil {
				return nil, nil, err
			}
			summary.AdvancedToF14++
		default:
			summary.Unchanged++
		}
	}

	summary.NoChange = summary.Completed+summary.AdvancedToF7+summary.AdvancedToF14 == 0
	return updated, summary, nil
}
