package campaign

import (
	"testing"

	"github.com/gyeh/outreach/internal/model"
)

func TestSelectBatch_OldestPendingFirst(t *testing.T) {
	master := []model.Record{
		rec("p3@example.com", model.StatusPending, -3, never, 0),
		rec("p5@example.com", model.StatusPending, -5, never, 0),
		rec("p1@example.com", model.StatusPending, -1, never, 0),
		rec("p4@example.com", model.StatusPending, -4, never, 0),
		rec("p2@example.com", model.StatusPending, -2, never, 0),
	}
	p := DefaultPolicy()
	p.DailyLimit = 3

	batch, updated, err := SelectBatch(master, p, today)
	if err != nil {
		t.Fatalf("SelectBatch: %v", err)
	}

	want := []string{"p5@example.com", "p4@example.com", "p3@example.com"}
	if len(batch.Records) != len(want) {
		t.Fatalf("batch size = %d, want %d", len(batch.Records), len(want))
	}
	for i, r := range batch.Records {
		if r.Email != want[i] {
			t.Errorf("batch[%d] = %s, want %s", i, r.Email, want[i])
		}
		if r.Status != model.StatusSent || r.FollowupCount != 1 || r.LastEmail == nil || !r.LastEmail.Equal(today) {
			t.Errorf("batch[%d] not advanced: %+v", i, r)
		}
	}

	got := byEmail(updated)
	for _, e := range []string{"p1@example.com", "p2@example.com"} {
		r := got[e]
		if r.Status != model.StatusPending || r.FollowupCount != 0 || r.LastEmail != nil {
			t.Errorf("%s should be untouched: %+v", e, r)
		}
	}
	if len(updated) != len(master) {
		t.Errorf("updated table has %d rows, want %d", len(updated), len(master))
	}
}

func TestSelectBatch_TierOrdering(t *testing.T) {
	master := []model.Record{
		rec("f14-new@example.com", model.StatusFollowup14, -40, -2, 2),
		rec("f7-new@example.com", model.StatusFollowup7, -30, -4, 1),
		rec("pending@example.com", model.StatusPending, 0, never, 0),
		rec("f14-old@example.com", model.StatusFollowup14, -40, -9, 2),
		rec("f7-old@example.com", model.StatusFollowup7, -30, -12, 1),
		rec("sent@example.com", model.StatusSent, -5, -5, 1),
		rec("done@example.com", model.StatusCompleted, -50, -20, 2),
	}

	batch, _, err := SelectBatch(master, DefaultPolicy(), today)
	if err != nil {
		t.Fatalf("SelectBatch: %v", err)
	}

	want := []string{
		"pending@example.com",
		"f7-old@example.com",
		"f7-new@example.com",
		"f14-old@example.com",
		"f14-new@example.com",
	}
	if len(batch.Records) != len(want) {
		t.Fatalf("batch size = %d, want %d", len(batch.Records), len(want))
	}
	for i, r := range batch.Records {
		if r.Email != want[i] {
			t.Errorf("batch[%d] = %s, want %s", i, r.Email, want[i])
		}
	}

	s := batch.Summary
	if s.FromPending != 1 || s.FromF7 != 2 || s.FromF14 != 2 {
		t.Errorf("summary tiers = %d/%d/%d, want 1/2/2", s.FromPending, s.FromF7, s.FromF14)
	}
}

func TestSelectBatch_Transitions(t *testing.T) {
	master := []model.Record{
		rec("p@example.com", model.StatusPending, -1, never, 0),
		rec("f7@example.com", model.StatusFollowup7, -20, -10, 1),
		rec("f14@example.com", model.StatusFollowup14, -30, -10, 2),
	}

	_, updated, err := SelectBatch(master, DefaultPolicy(), today)
	if err != nil {
		t.Fatalf("SelectBatch: %v", err)
	}
	got := byEmail(updated)

	tests := []struct {
		email  string
		status model.Status
		count  int
	}{
		{"p@example.com", model.StatusSent, 1},
		{"f7@example.com", model.StatusFollowup14, 2},
		{"f14@example.com", model.StatusFollowup14, 3},
	}
	for _, tt := range tests {
		r := got[tt.email]
		if r.Status != tt.status || r.FollowupCount != tt.count {
			t.Errorf("%s: status=%s count=%d, want %s %d", tt.email, r.Status, r.FollowupCount, tt.status, tt.count)
		}
		if r.LastEmail == nil || !r.LastEmail.Equal(today) {
			t.Errorf("%s: last email = %v, want today", tt.email, r.LastEmail)
		}
	}

	// The FOLLOWUP14 record now has three sends and must never be picked again.
	batch, _, err := SelectBatch(updated, DefaultPolicy(), day(1))
	if err != nil {
		t.Fatalf("second SelectBatch: %v", err)
	}
	for _, r := range batch.Records {
		if r.Email == "f14@example.com" {
			t.Error("terminal record selected again")
		}
	}
}

func TestSelectBatch_Cap(t *testing.T) {
	var master []model.Record
	for i, e := range emails(200, "p") {
		master = append(master, rec(e, model.StatusPending, -i, never, 0))
	}
	for i, e := range emails(150, "f7") {
		master = append(master, rec(e, model.StatusFollowup7, -100, -10-i, 1))
	}
	for _, e := range emails(25, "t") {
		master = append(master, rec(e, model.StatusFollowup14, -100, -30, 3))
	}

	batch, updated, err := SelectBatch(master, DefaultPolicy(), today)
	if err != nil {
		t.Fatalf("SelectBatch: %v", err)
	}
	if len(batch.Records) != 300 {
		t.Fatalf("batch size = %d, want 300", len(batch.Records))
	}
	if batch.Summary.Eligible != 350 || batch.Summary.Terminal != 25 {
		t.Errorf("eligible=%d terminal=%d, want 350 and 25", batch.Summary.Eligible, batch.Summary.Terminal)
	}

	// Every pending record precedes every follow-up record.
	seenFollowup := false
	for _, r := range batch.Records {
		if r.FollowupCount != 1 && r.FollowupCount != 2 {
			t.Fatalf("unexpected count %d", r.FollowupCount)
		}
		isFromF7 := r.Status == model.StatusFollowup14
		if isFromF7 {
			seenFollowup = true
		} else if seenFollowup {
			t.Fatal("pending record after a follow-up record")
		}
	}

	// Counter monotonicity: selected rows +1, others unchanged.
	selected := byEmail(batch.Records)
	before := byEmail(master)
	for _, r := range updated {
		prev := before[r.Email]
		if _, ok := selected[r.Email]; ok {
			if r.FollowupCount != prev.FollowupCount+1 {
				t.Errorf("%s: count %d -> %d", r.Email, prev.FollowupCount, r.FollowupCount)
			}
		} else if r.FollowupCount != prev.FollowupCount || r.Status != prev.Status {
			t.Errorf("%s changed without being selected", r.Email)
		}
	}
}

func TestSelectBatch_SmallerThanLimit(t *testing.T) {
	master := []model.Record{
		rec("a@example.com", model.StatusPending, -1, never, 0),
		rec("b@example.com", model.StatusSent, -5, -3, 1),
	}
	batch, _, err := SelectBatch(master, DefaultPolicy(), today)
	if err != nil {
		t.Fatalf("SelectBatch: %v", err)
	}
	if len(batch.Records) != 1 {
		t.Errorf("batch size = %d, want 1", len(batch.Records))
	}
}

func TestSelectBatch_TerminalOnly(t *testing.T) {
	term := rec("t@example.com", model.StatusFollowup14, -40, -10, 3)
	p := DefaultPolicy()
	p.DailyLimit = 1

	batch, updated, err := SelectBatch([]model.Record{term}, p, today)
	if err != nil {
		t.Fatalf("SelectBatch: %v", err)
	}
	if len(batch.Records) != 0 {
		t.Fatalf("terminal record selected: %+v", batch.Records)
	}
	r := updated[0]
	if r.Status != term.Status || r.FollowupCount != 3 || !r.LastEmail.Equal(*term.LastEmail) {
		t.Errorf("terminal record mutated: %+v", r)
	}
}

func TestSelectBatch_Empty(t *testing.T) {
	batch, updated, err := SelectBatch(nil, DefaultPolicy(), today)
	if err != nil {
		t.Fatalf("SelectBatch: %v", err)
	}
	if len(batch.Records) != 0 || len(updated) != 0 {
		t.Errorf("expected empty batch and table")
	}
}

func TestSelectBatch_DoesNotMutateInput(t *testing.T) {
	master := []model.Record{rec("a@example.com", model.StatusPending, -1, never, 0)}
	if _, _, err := SelectBatch(master, DefaultPolicy(), today); err != nil {
		t.Fatalf("SelectBatch: %v", err)
	}
	if master[0].Status != model.StatusPending || master[0].FollowupCount != 0 {
		t.Errorf("input mutated: %+v", master[0])
	}
}

func TestPolicyValidate(t *testing.T) {
	if err := DefaultPolicy().Validate(); err != nil {
		t.Fatalf("default policy invalid: %v", err)
	}
	bad := []Policy{
		{DailyLimit: 0, FirstFollowupDays: 3, SecondFollowupDays: 7, MaxSends: 3},
		{DailyLimit: 300, FirstFollowupDays: -1, SecondFollowupDays: 7, MaxSends: 3},
		{DailyLimit: 300, FirstFollowupDays: 3, SecondFollowupDays: 7, MaxSends: 0},
	}
	for _, p := range bad {
		if err := p.Validate(); err == nil {
			t.Errorf("expected error for %+v", p)
		}
	}
}
