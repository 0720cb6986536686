package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/outreach/internal/db"
	"github.com/gyeh/outreach/internal/exitcode"
	"github.com/gyeh/outreach/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database schema migrations",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	log := setupLogger()
	ctx := context.Background()

	if err := cfg.ValidateStore(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	switch cfg.Store {
	case store.KindPostgres:
		pool, err := db.NewPool(ctx, cfg.DSN)
		if err != nil {
			log.Error().Err(err).Msg("database connection failed")
			os.Exit(exitcode.StoreError)
		}
		defer pool.Close()

		if err := db.ApplyMigrations(ctx, pool, log); err != nil {
			log.Error().Err(err).Msg("migration failed")
			os.Exit(exitcode.StoreError)
		}
	case store.KindSQLite:
		// Opening applies the embedded migrations.
		s, err := store.OpenSQLite(ctx, cfg.StorePath)
		if err != nil {
			log.Error().Err(err).Msg("migration failed")
			os.Exit(exitcode.StoreError)
		}
		closeMaster(log, s)
	default:
		log.Info().Str("store", cfg.Store).Msg("store has no schema, nothing to migrate")
		return nil
	}

	log.Info().Str("store", cfg.Store).Msg("all migrations applied successfully")
	return nil
}
