package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/outreach/internal/exitcode"
	"github.com/gyeh/outreach/internal/export"
	"github.com/gyeh/outreach/internal/roster"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Merge a roster export, pick today's batch and write the provider lists",
	RunE:  runDaily,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&cfg.FilePath, "file", "", "Roster export: .xlsx, .csv or .parquet (required)")
	f.StringVar(&cfg.OutputDir, "out", "output", "Directory for the provider lists and zip")
	_ = runCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(runCmd)
}

func runDaily(cmd *cobra.Command, args []string) error {
	log := setupLogger()
	ctx := context.Background()

	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}
	logInputFile(log, cfg.FilePath)

	res, err := roster.Read(cfg.FilePath, cfg.DefaultProvider, log)
	if err != nil {
		exitFor(log, "roster read failed", err)
	}

	c, master := openCampaign(ctx, log)
	defer closeMaster(log, master)

	daily, err := c.RunDaily(ctx, res.Records)
	if err != nil {
		exitFor(log, "daily run failed", err)
	}

	files, err := export.WriteBatch(cfg.OutputDir, export.Stem(cfg.FilePath), daily.Batch)
	if err != nil {
		log.Error().Err(err).
			Str("run_id", daily.Summary.RunID).
			Str("out", cfg.OutputDir).
			Msg("export failed after master was updated")
		os.Exit(exitcode.ExportError)
	}

	s := daily.Summary
	fmt.Printf("Run %s complete: %d new patients (master %d), %d selected "+
		"(%d pending, %d followup7, %d followup14) (%.1fs)\n",
		s.RunID, s.Intake.RowsAdded, s.Intake.MasterSize, s.Batch.Selected,
		s.Batch.FromPending, s.Batch.FromF7, s.Batch.FromF14, s.DurationTotal.Seconds())
	fmt.Printf("Wrote %d provider lists, %s and %s\n", len(files.Providers), files.Combined, files.Archive)
	return nil
}
