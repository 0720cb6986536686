package campaign

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/gyeh/outreach/internal/model"
	"github.com/gyeh/outreach/internal/store"
)

// failingStore fails Load or Save on demand.
type failingStore struct {
	*store.Memory
	loadErr error
	saveErr error
}

func (f *failingStore) Load(ctx context.Context) ([]model.Record, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.Memory.Load(ctx)
}

func (f *failingStore) Save(ctx context.Context, records []model.Record) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	return f.Memory.Save(ctx, records)
}

func newTestCampaign(s store.Store, opts ...Option) *Campaign {
	opts = append([]Option{WithClock(func() time.Time { return today.Add(9 * time.Hour) })}, opts...)
	return New(s, zerolog.Nop(), opts...)
}

func TestIntake_NoNewPatientsSkipsWrite(t *testing.T) {
	mem := store.NewMemory([]model.Record{rec("a@example.com", model.StatusSent, -3, -3, 1)})
	c := newTestCampaign(mem)

	res, err := c.Intake(context.Background(), []model.ImportRecord{{Email: "a@example.com"}})
	if err != nil {
		t.Fatalf("Intake: %v", err)
	}
	if !res.Summary.NoChange || res.Summary.RowsAdded != 0 {
		t.Errorf("unexpected summary: %+v", res.Summary)
	}
	if mem.Saves() != 0 {
		t.Errorf("store written %d times, want 0", mem.Saves())
	}
}

func TestIntake_TwiceIsIdempotent(t *testing.T) {
	mem := store.NewMemory(nil)
	c := newTestCampaign(mem)
	imports := []model.ImportRecord{
		{Email: "a@example.com", FirstName: "A", Provider: "Dr. A"},
		{Email: "b@example.com", FirstName: "B", Provider: "Dr. B"},
	}

	ctx := context.Background()
	if _, err := c.Intake(ctx, imports); err != nil {
		t.Fatalf("first Intake: %v", err)
	}
	first, _ := mem.Load(ctx)
	if _, err := c.Intake(ctx, imports); err != nil {
		t.Fatalf("second Intake: %v", err)
	}
	second, _ := mem.Load(ctx)
	if len(first) != 2 || len(second) != len(first) {
		t.Errorf("row counts %d then %d, want 2 and 2", len(first), len(second))
	}
}

func TestRunDaily(t *testing.T) {
	mem := store.NewMemory([]model.Record{
		rec("f7@example.com", model.StatusFollowup7, -20, -10, 1),
		rec("t@example.com", model.StatusFollowup14, -40, -10, 3),
	})
	c := newTestCampaign(mem)
	imports := []model.ImportRecord{
		{Email: "new1@example.com", FirstName: "N1", Provider: "Dr. A"},
		{Email: "new2@example.com", FirstName: "N2", Provider: "Dr. B"},
	}

	res, err := c.RunDaily(context.Background(), imports)
	if err != nil {
		t.Fatalf("RunDaily: %v", err)
	}
	if res.Summary.RunID == "" {
		t.Error("missing run id")
	}
	if res.Summary.Intake.RowsAdded != 2 {
		t.Errorf("rows added = %d, want 2", res.Summary.Intake.RowsAdded)
	}
	if len(res.Batch) != 3 {
		t.Fatalf("batch size = %d, want 3", len(res.Batch))
	}
	if res.Batch[0].Email != "new1@example.com" || res.Batch[2].Email != "f7@example.com" {
		t.Errorf("unexpected batch order: %s, %s, %s", res.Batch[0].Email, res.Batch[1].Email, res.Batch[2].Email)
	}

	stored, _ := mem.Load(context.Background())
	got := byEmail(stored)
	if got["new1@example.com"].Status != model.StatusSent || got["f7@example.com"].Status != model.StatusFollowup14 {
		t.Errorf("statuses not persisted: %+v", stored)
	}
	if got["t@example.com"].FollowupCount != 3 {
		t.Errorf("terminal record changed: %+v", got["t@example.com"])
	}
	if mem.Saves() != 2 {
		t.Errorf("saves = %d, want 2 (intake + schedule)", mem.Saves())
	}
}

func TestSchedule_EmptyMaster(t *testing.T) {
	mem := store.NewMemory(nil)
	res, err := newTestCampaign(mem).Schedule(context.Background())
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if len(res.Batch.Records) != 0 {
		t.Errorf("batch size = %d, want 0", len(res.Batch.Records))
	}
}

func TestSchedule_UsesPolicy(t *testing.T) {
	var seed []model.Record
	for i, e := range emails(5, "p") {
		seed = append(seed, rec(e, model.StatusPending, -i, never, 0))
	}
	p := DefaultPolicy()
	p.DailyLimit = 2
	res, err := newTestCampaign(store.NewMemory(seed), WithPolicy(p)).Schedule(context.Background())
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if len(res.Batch.Records) != 2 {
		t.Errorf("batch size = %d, want 2", len(res.Batch.Records))
	}
}

func TestReconcileFeed_PersistsOnce(t *testing.T) {
	mem := store.NewMemory([]model.Record{
		rec("stay@example.com", model.StatusSent, -10, -4, 1),
		rec("gone@example.com", model.StatusSent, -10, -4, 1),
	})
	c := newTestCampaign(mem)

	res, err := c.ReconcileFeed(context.Background(), feedOf(today, "stay@example.com"))
	if err != nil {
		t.Fatalf("ReconcileFeed: %v", err)
	}
	if res.Summary.Completed != 1 || res.Summary.AdvancedToF7 != 1 {
		t.Errorf("unexpected summary: %+v", res.Summary)
	}
	if mem.Saves() != 1 {
		t.Errorf("saves = %d, want 1", mem.Saves())
	}
	stored, _ := mem.Load(context.Background())
	got := byEmail(stored)
	if got["stay@example.com"].Status != model.StatusFollowup7 || got["gone@example.com"].Status != model.StatusCompleted {
		t.Errorf("statuses not persisted: %+v", stored)
	}
}

func TestReconcileFeed_NothingToDo(t *testing.T) {
	mem := store.NewMemory([]model.Record{rec("p@example.com", model.StatusPending, -1, never, 0)})
	res, err := newTestCampaign(mem).ReconcileFeed(context.Background(), feedOf(today))
	if err != nil {
		t.Fatalf("ReconcileFeed: %v", err)
	}
	if !res.Summary.NoChange || mem.Saves() != 0 {
		t.Errorf("expected no write, got summary %+v and %d saves", res.Summary, mem.Saves())
	}
}

func TestStoreFailuresAreTyped(t *testing.T) {
	boom := errors.New("connection refused")
	ctx := context.Background()

	loadFail := &failingStore{Memory: store.NewMemory(nil), loadErr: boom}
	_, err := newTestCampaign(loadFail).Schedule(ctx)
	var pe *PipelineError
	if !errors.As(err, &pe) || pe.Phase != "load" {
		t.Fatalf("expected load PipelineError, got %v", err)
	}
	if !IsStoreUnavailable(err) || IsMalformed(err) {
		t.Errorf("load failure misclassified: %v", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("cause lost: %v", err)
	}

	seed := []model.Record{rec("a@example.com", model.StatusSent, -10, -4, 1)}
	saveFail := &failingStore{Memory: store.NewMemory(seed), saveErr: boom}
	_, err = newTestCampaign(saveFail).ReconcileFeed(ctx, feedOf(today))
	if !errors.As(err, &pe) || pe.Phase != "save" || !IsStoreUnavailable(err) {
		t.Fatalf("expected save store failure, got %v", err)
	}
	stored, _ := saveFail.Memory.Load(ctx)
	if stored[0].Status != model.StatusSent {
		t.Errorf("partial write after failed save: %+v", stored[0])
	}
}

func TestMalformedImportIsTyped(t *testing.T) {
	mem := store.NewMemory(nil)
	_, err := newTestCampaign(mem).RunDaily(context.Background(), []model.ImportRecord{{Email: ""}})
	if !IsMalformed(err) || IsStoreUnavailable(err) {
		t.Fatalf("expected malformed input error, got %v", err)
	}
	if mem.Saves() != 0 {
		t.Errorf("store written after malformed import")
	}
}

func TestCorruptStoredRowStaysMalformed(t *testing.T) {
	corrupt := &failingStore{Memory: store.NewMemory(nil), loadErr: errors.Join(model.ErrMalformedInput, errors.New("bad date"))}
	_, err := newTestCampaign(corrupt).Schedule(context.Background())
	if !IsMalformed(err) || IsStoreUnavailable(err) {
		t.Fatalf("expected malformed classification, got %v", err)
	}
}

func TestRunsAreSerialized(t *testing.T) {
	locker := store.NewMutexLocker()
	c := newTestCampaign(store.NewMemory(nil), WithLocker(locker))

	unlock, err := locker.Lock(context.Background())
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.Schedule(ctx)
	if !IsStoreUnavailable(err) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected lock timeout, got %v", err)
	}
}

func TestToday(t *testing.T) {
	c := newTestCampaign(store.NewMemory(nil))
	if !c.Today().Equal(today) {
		t.Errorf("Today = %v, want %v", c.Today(), today)
	}
}
