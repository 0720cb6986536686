package campaign

import (
	"testing"
	"time"

	"github.com/gyeh/outreach/internal/model"
)

func feedOf(post time.Time, emails ...string) *model.NoReviewFeed {
	f := &model.NoReviewFeed{PostDate: post, Emails: make(map[string]struct{})}
	for _, e := range emails {
		f.Emails[e] = struct{}{}
	}
	return f
}

func TestReconcile_SentAdvancesWhenStillPending(t *testing.T) {
	master := []model.Record{rec("a@example.com", model.StatusSent, -10, -4, 1)}

	updated, summary, err := Reconcile(master, feedOf(today, "a@example.com"), DefaultPolicy(), today)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if updated[0].Status != model.StatusFollowup7 {
		t.Errorf("status = %s, want FOLLOWUP7", updated[0].Status)
	}
	if summary.AdvancedToF7 != 1 || summary.NoChange {
		t.Errorf("unexpected summary: %+v", summary)
	}
}

func TestReconcile_AbsentCompletes(t *testing.T) {
	master := []model.Record{
		rec("a@example.com", model.StatusSent, -10, -4, 1),
		rec("b@example.com", model.StatusSent, -10, 0, 1),
		rec("c@example.com", model.StatusFollowup14, -30, -1, 2),
	}

	updated, summary, err := Reconcile(master, feedOf(today), DefaultPolicy(), today)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	for _, r := range updated {
		if r.Status != model.StatusCompleted {
			t.Errorf("%s: status = %s, want COMPLETED", r.Email, r.Status)
		}
	}
	if summary.Completed != 3 {
		t.Errorf("completed = %d, want 3", summary.Completed)
	}
}

func TestReconcile_ElapsedThresholds(t *testing.T) {
	master := []model.Record{
		rec("sent2@example.com", model.StatusSent, -10, -2, 1),
		rec("sent3@example.com", model.StatusSent, -10, -3, 1),
		rec("f7-6@example.com", model.StatusFollowup7, -20, -6, 1),
		rec("f7-7@example.com", model.StatusFollowup7, -20, -7, 1),
		rec("f14@example.com", model.StatusFollowup14, -40, -20, 2),
		rec("done@example.com", model.StatusCompleted, -40, -20, 1),
	}
	all := []string{"sent2@example.com", "sent3@example.com", "f7-6@example.com", "f7-7@example.com", "f14@example.com", "done@example.com"}

	updated, _, err := Reconcile(master, feedOf(today, all...), DefaultPolicy(), today)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	got := byEmail(updated)
	want := map[string]model.Status{
		"sent2@example.com": model.StatusSent,
		"sent3@example.com": model.StatusFollowup7,
		"f7-6@example.com":  model.StatusFollowup7,
		"f7-7@example.com":  model.StatusFollowup14,
		"f14@example.com":   model.StatusFollowup14,
		"done@example.com":  model.StatusCompleted,
	}
	for email, st := range want {
		if got[email].Status != st {
			t.Errorf("%s: status = %s, want %s", email, got[email].Status, st)
		}
	}
}

func TestReconcile_TerminalUntouched(t *testing.T) {
	term := rec("t@example.com", model.StatusFollowup14, -40, -10, 3)

	for _, feed := range []*model.NoReviewFeed{feedOf(today), feedOf(today, "t@example.com")} {
		updated, summary, err := Reconcile([]model.Record{term}, feed, DefaultPolicy(), today)
		if err != nil {
			t.Fatalf("Reconcile: %v", err)
		}
		if updated[0].Status != model.StatusFollowup14 || updated[0].FollowupCount != 3 {
			t.Errorf("terminal record changed: %+v", updated[0])
		}
		if summary.SkippedTerm != 1 || !summary.NoChange {
			t.Errorf("unexpected summary: %+v", summary)
		}
	}
}

func TestReconcile_SkipsUnsentAndLaterSends(t *testing.T) {
	master := []model.Record{
		rec("pending@example.com", model.StatusPending, -1, never, 0),
		rec("later@example.com", model.StatusSent, -10, -1, 1),
	}
	post := day(-3)

	updated, summary, err := Reconcile(master, feedOf(post), DefaultPolicy(), today)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if updated[0].Status != model.StatusPending || updated[1].Status != model.StatusSent {
		t.Errorf("records changed: %+v", updated)
	}
	if summary.SkippedUnsent != 1 || summary.SkippedLater != 1 || !summary.NoChange {
		t.Errorf("unexpected summary: %+v", summary)
	}
}

func TestReconcile_SendOnPostDateIsIncluded(t *testing.T) {
	post := day(-5)
	master := []model.Record{rec("a@example.com", model.StatusSent, -10, -5, 1)}

	updated, _, err := Reconcile(master, feedOf(post.Add(13*time.Hour)), DefaultPolicy(), today)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if updated[0].Status != model.StatusCompleted {
		t.Errorf("status = %s, want COMPLETED", updated[0].Status)
	}
}

func TestReconcile_DoesNotMutateInput(t *testing.T) {
	master := []model.Record{rec("a@example.com", model.StatusSent, -10, -4, 1)}
	if _, _, err := Reconcile(master, feedOf(today), DefaultPolicy(), today); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if master[0].Status != model.StatusSent {
		t.Errorf("input mutated: %+v", master[0])
	}
}
