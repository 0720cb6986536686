package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/outreach/internal/campaign"
	"github.com/gyeh/outreach/internal/exitcode"
	"github.com/gyeh/outreach/internal/export"
	"github.com/gyeh/outreach/internal/model"
	"github.com/gyeh/outreach/internal/roster"
	"github.com/gyeh/outreach/internal/store"
)

var (
	planFeed string
	planShow int
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Dry run: show what a run or reconcile would do (no writes)",
	RunE:  runPlan,
}

func init() {
	f := planCmd.Flags()
	f.StringVar(&cfg.FilePath, "file", "", "Roster export to merge before picking the batch")
	f.StringVar(&planFeed, "feed", "", "No-review feed to preview instead of a daily run")
	f.IntVar(&planShow, "show", 10, "Number of batch rows to print")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	log := setupLogger()
	ctx := context.Background()

	if err := cfg.ValidateStore(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}
	if err := checkPlanInputs(cfg.FilePath, planFeed); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	var imports []model.ImportRecord
	if cfg.FilePath != "" {
		logInputFile(log, cfg.FilePath)
		res, err := roster.Read(cfg.FilePath, cfg.DefaultProvider, log)
		if err != nil {
			exitFor(log, "roster read failed", err)
		}
		imports = res.Records
	}

	var feed *model.NoReviewFeed
	if planFeed != "" {
		logInputFile(log, planFeed)
		var err error
		if feed, err = roster.ReadFeed(planFeed); err != nil {
			exitFor(log, "no-review feed read failed", err)
		}
	}

	c, master := openCampaign(ctx, log)
	defer closeMaster(log, master)

	records, err := loadForPlan(ctx, master)
	if err != nil {
		exitFor(log, "master load failed", err)
	}
	today := c.Today()
	policy := c.Policy()

	fmt.Println("=== outreach plan ===")
	fmt.Printf("Store:       %s\n", cfg.Store)
	fmt.Printf("Today:       %s\n", today.Format(model.DateLayout))
	fmt.Printf("Master rows: %d\n", len(records))
	printStatusCounts(records)

	if feed != nil {
		_, s, err := campaign.Reconcile(records, feed, policy, today)
		if err != nil {
			exitFor(log, "reconcile preview failed", err)
		}
		fmt.Printf("\nFeed posted %s with %d emails would:\n", s.PostDate.Format(model.DateLayout), s.FeedSize)
		fmt.Printf("  complete           %d\n", s.Completed)
		fmt.Printf("  move to FOLLOWUP7  %d\n", s.AdvancedToF7)
		fmt.Printf("  move to FOLLOWUP14 %d\n", s.AdvancedToF14)
		fmt.Printf("  skip (terminal %d, never sent %d, sent after post date %d)\n",
			s.SkippedTerm, s.SkippedUnsent, s.SkippedLater)
		return nil
	}

	merged, added, err := campaign.Merge(records, imports, today)
	if err != nil {
		exitFor(log, "merge preview failed", err)
	}
	if cfg.FilePath != "" {
		fmt.Printf("\nRoster %s would add %d of %d patients\n", cfg.FilePath, added, len(imports))
	}

	batch, _, err := campaign.SelectBatch(merged, policy, today)
	if err != nil {
		exitFor(log, "schedule preview failed", err)
	}
	s := batch.Summary
	fmt.Printf("\nToday's batch: %d of %d eligible (limit %d, %d terminal)\n",
		s.Selected, s.Eligible, policy.DailyLimit, s.Terminal)
	fmt.Printf("  from PENDING    %d\n", s.FromPending)
	fmt.Printf("  from FOLLOWUP7  %d\n", s.FromF7)
	fmt.Printf("  from FOLLOWUP14 %d\n", s.FromF14)

	for _, g := range export.GroupByProvider(batch.Records) {
		fmt.Printf("  %-30s %d\n", g.Provider, len(g.Records))
	}
	for i, r := range batch.Records {
		if i >= planShow {
			fmt.Printf("  ... %d more\n", len(batch.Records)-planShow)
			break
		}
		fmt.Printf("  %3d %-40s %-10s %s\n", i+1, r.Email, r.Status, r.Provider)
	}
	return nil
}

// checkPlanInputs rejects previewing a roster and a feed in one run.
func checkPlanInputs(file, feed string) error {
	if file != "" && feed != "" {
		return errors.New("--file and --feed preview different runs, pass only one")
	}
	return nil
}

func loadForPlan(ctx context.Context, s store.Store) ([]model.Record, error) {
	records, err := s.Load(ctx)
	if err != nil {
		return nil, &campaign.PipelineError{Phase: "load", Err: fmt.Errorf("%w: %w", model.ErrStoreUnavailable, err)}
	}
	return records, nil
}

func printStatusCounts(records []model.Record) {
	counts := make(map[model.Status]int)
	for _, r := range records {
		counts[r.Status]++
	}
	for _, st := range model.AllStatuses {
		fmt.Printf("  %-12s %d\n", st, counts[st])
	}
}
