package model

import "time"

// IntakeSummary captures the outcome of merging one roster into the master table.
type IntakeSummary struct {
	RowsImported int
	RowsAdded    int
	MasterSize   int
	NoChange     bool
}

// BatchSummary captures the outcome of one daily scheduling pass.
type BatchSummary struct {
	Selected    int
	FromPending int
	FromF7      int
	FromF14     int
	Terminal    int
	Eligible    int
}

// ReconcileSummary captures the outcome of one no-review reconciliation.
type ReconcileSummary struct {
	PostDate      time.Time
	FeedSize      int
	Completed     int
	AdvancedToF7  int
	AdvancedToF14 int
	SkippedTerm   int
	SkippedUnsent int
	SkippedLater  int
	Unchanged     int
	NoChange      bool
}

// DailySummary captures a combined intake + schedule run.
type DailySummary struct {
	RunID         string
	Intake        IntakeSummary
	Batch         BatchSummary
	DurationTotal time.Duration
}
