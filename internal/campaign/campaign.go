package campaign

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gyeh/outreach/internal/model"
	"github.com/gyeh/outreach/internal/store"
)

// Campaign runs the merge, schedule and reconcile operations against one
// master store. Every operation holds the store lock for its whole
// load-mutate-save cycle and writes nothing unless the cycle succeeds.
type Campaign struct {
	store  store.Store
	locker store.Locker
	policy Policy
	log    zerolog.Logger
	now    func() time.Time
}

// Option configures a Campaign.
type Option func(*Campaign)

// WithPolicy overrides DefaultPolicy.
func WithPolicy(p Policy) Option {
	return func(c *Campaign) { c.policy = p }
}

// WithClock overrides time.Now as the source of "today".
func WithClock(now func() time.Time) Option {
	return func(c *Campaign) { c.now = now }
}

// WithLocker overrides the lock used to serialize runs.
func WithLocker(l store.Locker) Option {
	return func(c *Campaign) { c.locker = l }
}

// New returns a Campaign over s. Runs are serialized with an in-process
// mutex unless WithLocker supplies another lock.
func New(s store.Store, log zerolog.Logger, opts ...Option) *Campaign {
	c := &Campaign{
		store:  s,
		policy: DefaultPolicy(),
		log:    log,
		now:    time.Now,
	}
	c.locker = store.NewMutexLocker()
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Policy returns the cadence in effect.
func (c *Campaign) Policy() Policy {
	return c.policy
}

// Today returns the current run date.
func (c *Campaign) Today() time.Time {
	return model.Day(c.now())
}

// IntakeResult is the outcome of Intake.
type IntakeResult struct {
	Summary model.IntakeSummary
	Master  []model.Record
}

// Intake merges imports into the master table. When no new emails are
// found nothing is written and Summary.NoChange is set.
func (c *Campaign) Intake(ctx context.Context, imports []model.ImportRecord) (*IntakeResult, error) {
	log := c.runLogger("intake")
	unlock, err := c.lock(ctx, log)
	if err != nil {
		return nil, err
	}
	defer unlock()

	res, err := c.intake(ctx, log, imports)
	if err != nil {
		log.Error().Err(err).Msg("intake failed")
		return nil, err
	}
	return res, nil
}

// ScheduleResult is the outcome of Schedule.
type ScheduleResult struct {
	Batch  *Batch
	Master []model.Record
}

// Schedule selects and advances today's batch and saves the full table.
func (c *Campaign) Schedule(ctx context.Context) (*ScheduleResult, error) {
	log := c.runLogger("schedule")
	unlock, err := c.lock(ctx, log)
	if err != nil {
		return nil, err
	}
	defer unlock()

	res, err := c.schedule(ctx, log)
	if err != nil {
		log.Error().Err(err).Msg("schedule failed")
		return nil, err
	}
	return res, nil
}

// DailyResult is the outcome of RunDaily.
type DailyResult struct {
	Summary model.DailySummary
	Batch   []model.Record
	Master  []model.Record
}

// RunDaily merges imports and then schedules today's batch, holding the
// store lock across both steps.
func (c *Campaign) RunDaily(ctx context.Context, imports []model.ImportRecord) (*DailyResult, error) {
	start := time.Now()
	runID := uuid.New().String()
	log := c.log.With().Str("run_id", runID).Str("op", "daily").Logger()

	unlock, err := c.lock(ctx, log)
	if err != nil {
		return nil, err
	}
	defer unlock()

	in, err := c.intake(ctx, log, imports)
	if err != nil {
		log.Error().Err(err).Msg("daily run failed during intake")
		return nil, err
	}
	sched, err := c.schedule(ctx, log)
	if err != nil {
		log.Error().Err(err).Msg("daily run failed during schedule")
		return nil, err
	}

	res := &DailyResult{
		Summary: model.DailySummary{
			RunID:         runID,
			Intake:        in.Summary,
			Batch:         sched.Batch.Summary,
			DurationTotal: time.Since(start),
		},
		Batch:  sched.Batch.Records,
		Master: sched.Master,
	}
	log.Info().
		Int("added", in.Summary.RowsAdded).
		Int("selected", sched.Batch.Summary.Selected).
		Str("total_duration", res.Summary.DurationTotal.String()).
		Msg("daily run complete")
	return res, nil
}

// ReconcileResult is the outcome of ReconcileFeed.
type ReconcileResult struct {
	Summary *model.ReconcileSummary
	Master  []model.Record
}

// ReconcileFeed applies a no-review feed to the master table. The table is
// saved once after every record has been evaluated, and not at all when
// nothing changed.
func (c *Campaign) ReconcileFeed(ctx context.Context, feed *model.NoReviewFeed) (*ReconcileResult, error) {
	log := c.runLogger("reconcile")
	unlock, err := c.lock(ctx, log)
	if err != nil {
		return nil, err
	}
	defer unlock()

	start := time.Now()
	master, err := c.store.Load(ctx)
	if err != nil {
		err = storeFailure("load", err)
		log.Error().Err(err).Msg("reconcile failed")
		return nil, err
	}

	updated, summary, err := Reconcile(master, feed, c.policy, c.Today())
	if err != nil {
		err = &PipelineError{Phase: "reconcile", Err: err}
		log.Error().Err(err).Msg("reconcile failed")
		return nil, err
	}

	if summary.NoChange {
		log.Info().Str("post_date", summary.PostDate.Format(model.DateLayout)).Msg("no statuses changed, master not written")
		return &ReconcileResult{Summary: summary, Master: master}, nil
	}

	if err := c.store.Save(ctx, updated); err != nil {
		err = storeFailure("save", err)
		log.Error().Err(err).Msg("reconcile failed")
		return nil, err
	}

	log.Info().
		Str("post_date", summary.PostDate.Format(model.DateLayout)).
		Int("feed_size", summary.FeedSize).
		Int("completed", summary.Completed).
		Int("to_followup7", summary.AdvancedToF7).
		Int("to_followup14", summary.AdvancedToF14).
		Int("skipped_terminal", summary.SkippedTerm).
		Int("skipped_unsent", summary.SkippedUnsent).
		Int("skipped_later", summary.SkippedLater).
		Dur("duration", time.Since(start)).
		Msg("reconcile complete")
	return &ReconcileResult{Summary: summary, Master: updated}, nil
}

func (c *Campaign) intake(ctx context.Context, log zerolog.Logger, imports []model.ImportRecord) (*IntakeResult, error) {
	start := time.Now()
	master, err := c.store.Load(ctx)
	if err != nil {
		return nil, storeFailure("load", err)
	}
	if len(master) == 0 {
		log.Warn().Msg("master table empty")
	}

	merged, added, err := Merge(master, imports, c.Today())
	if err != nil {
		return nil, &PipelineError{Phase: "merge", Err: err}
	}

	summary := model.IntakeSummary{
		RowsImported: len(imports),
		RowsAdded:    added,
		MasterSize:   len(merged),
		NoChange:     added == 0,
	}
	if added == 0 {
		log.Info().Int("rows_imported", len(imports)).Msg("no new patients to add")
		return &IntakeResult{Summary: summary, Master: merged}, nil
	}

	if err := c.store.Save(ctx, merged); err != nil {
		return nil, storeFailure("save", err)
	}
	log.Info().
		Int("rows_imported", len(imports)).
		Int("rows_added", added).
		Int("master_size", len(merged)).
		Dur("duration", time.Since(start)).
		Msg("new patients added to master")
	return &IntakeResult{Summary: summary, Master: merged}, nil
}

func (c *Campaign) schedule(ctx context.Context, log zerolog.Logger) (*ScheduleResult, error) {
	start := time.Now()
	master, err := c.store.Load(ctx)
	if err != nil {
		return nil, storeFailure("load", err)
	}

	batch, updated, err := SelectBatch(master, c.policy, c.Today())
	if err != nil {
		return nil, &PipelineError{Phase: "schedule", Err: err}
	}

	if err := c.store.Save(ctx, updated); err != nil {
		return nil, storeFailure("save", err)
	}

	s := batch.Summary
	log.Info().
		Int("selected", s.Selected).
		Int("from_pending", s.FromPending).
		Int("from_followup7", s.FromF7).
		Int("from_followup14", s.FromF14).
		Int("eligible", s.Eligible).
		Int("terminal", s.Terminal).
		Int("daily_limit", c.policy.DailyLimit).
		Dur("duration", time.Since(start)).
		Msg("today's list created")
	return &ScheduleResult{Batch: batch, Master: updated}, nil
}

func (c *Campaign) lock(ctx context.Context, log zerolog.Logger) (func(), error) {
	unlock, err := c.locker.Lock(ctx)
	if err != nil {
		err = storeFailure("lock", err)
		log.Error().Err(err).Msg("could not acquire master lock")
		return nil, err
	}
	return unlock, nil
}

func (c *Campaign) runLogger(op string) zerolog.Logger {
	return c.log.With().Str("run_id", uuid.New().String()).Str("op", op).Logger()
}
