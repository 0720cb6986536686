package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/outreach/internal/exitcode"
	"github.com/gyeh/outreach/internal/model"
	"github.com/gyeh/outreach/internal/roster"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Apply a no-review feed to the master table",
	RunE:  runReconcile,
}

func init() {
	reconcileCmd.Flags().StringVar(&cfg.FilePath, "file", "", "No-review feed with Post Date and Email columns (required)")
	_ = reconcileCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	log := setupLogger()
	ctx := context.Background()

	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}
	logInputFile(log, cfg.FilePath)

	feed, err := roster.ReadFeed(cfg.FilePath)
	if err != nil {
		exitFor(log, "no-review feed read failed", err)
	}

	c, master := openCampaign(ctx, log)
	defer closeMaster(log, master)

	res, err := c.ReconcileFeed(ctx, feed)
	if err != nil {
		exitFor(log, "reconcile failed", err)
	}

	s := res.Summary
	if s.NoChange {
		fmt.Printf("Feed posted %s: no status changes\n", s.PostDate.Format(model.DateLayout))
		return nil
	}
	fmt.Printf("Feed posted %s: %d completed, %d to FOLLOWUP7, %d to FOLLOWUP14, %d unchanged\n",
		s.PostDate.Format(model.DateLayout), s.Completed, s.AdvancedToF7, s.AdvancedToF14, s.Unchanged)
	return nil
}
