package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gyeh/outreach/internal/campaign"
	"github.com/gyeh/outreach/internal/config"
	"github.com/gyeh/outreach/internal/exitcode"
	"github.com/gyeh/outreach/internal/logging"
	"github.com/gyeh/outreach/internal/normalize"
	"github.com/gyeh/outreach/internal/store"
)

// .env values must be in the environment before the flag defaults below
// read it, so this runs during package variable initialization.
var _ = loadDotEnv()

var (
	cfg        config.Config
	configFile string
	logDir     string
)

var rootCmd = &cobra.Command{
	Use:   "outreach",
	Short: "Patient follow-up email campaign engine",
	Long: "Merges the daily roster export into the master patient table, picks today's " +
		"send list and reconciles follow-up status against the no-review feed.",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfg.Store, "store", envOr("STORE", "csv"), "Master store: csv, sqlite, postgres, sheets or memory (or set STORE)")
	pf.StringVar(&cfg.StorePath, "store-path", envOr("STORE_PATH", "master_patients.csv"), "CSV file or SQLite database for the master table (or set STORE_PATH)")
	pf.StringVar(&cfg.DSN, "dsn", os.Getenv("DATABASE_URL"), "Postgres connection string (or set DATABASE_URL)")
	pf.StringVar(&cfg.SheetID, "sheet-id", os.Getenv("GOOGLE_SHEET_ID"), "Google spreadsheet ID (or set GOOGLE_SHEET_ID)")
	pf.StringVar(&cfg.SheetName, "sheet-name", envOr("GOOGLE_SHEET_NAME", store.DefaultSheetName), "Worksheet holding the master table (or set GOOGLE_SHEET_NAME)")
	pf.StringVar(&cfg.CredentialsFile, "credentials", os.Getenv("GOOGLE_CREDENTIALS_FILE"), "Service account JSON key (or set GOOGLE_CREDENTIALS_FILE)")
	pf.StringVar(&cfg.LogFormat, "log-format", "text", "Log format: text or json")
	pf.StringVar(&cfg.LogFile, "log-file", os.Getenv("LOG_FILE"), "Also append JSON logs to this file")
	pf.StringVar(&logDir, "log-dir", os.Getenv("LOG_DIR"), "Also append JSON logs to a dated app_YYYY_MM_DD.log in this directory")
	pf.StringVar(&cfg.Today, "today", "", "Run as if today were this date (YYYY-MM-DD)")
	pf.StringVar(&configFile, "config", os.Getenv("OUTREACH_CONFIG"), "YAML file with campaign tunables")
}

func loadDotEnv() bool {
	return godotenv.Load() == nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func loadConfig(cmd *cobra.Command, args []string) error {
	cfg.ApplyDefaults()
	if configFile != "" {
		if err := cfg.LoadFromFile(configFile); err != nil {
			return err
		}
	}
	if _, err := cfg.RunDate(); err != nil {
		return err
	}
	if cfg.LogFile == "" && logDir != "" {
		day, _ := cfg.RunDate()
		cfg.LogFile = logging.DailyFile(logDir, day)
	}
	return nil
}

func setupLogger() zerolog.Logger {
	return logging.Setup(cfg.LogFormat, cfg.LogFile)
}

// openCampaign opens the configured master store and wraps it in a
// Campaign using the configured cadence and run date. It exits the process
// on failure.
func openCampaign(ctx context.Context, log zerolog.Logger) (*campaign.Campaign, store.Master) {
	if err := cfg.ValidateStore(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}
	policy := campaign.PolicyFrom(&cfg)
	if err := policy.Validate(); err != nil {
		log.Error().Err(err).Msg("invalid campaign policy")
		os.Exit(exitcode.UsageError)
	}

	master, err := store.Open(ctx, &cfg, log)
	if err != nil {
		log.Error().Err(err).Str("store", cfg.Store).Msg("master store unavailable")
		os.Exit(exitcode.StoreError)
	}

	opts := []campaign.Option{
		campaign.WithPolicy(policy),
		campaign.WithLocker(store.LockerFor(master)),
	}
	if cfg.Today != "" {
		day, _ := cfg.RunDate()
		opts = append(opts, campaign.WithClock(func() time.Time { return day }))
	}
	return campaign.New(master, log, opts...), master
}

// logInputFile records the SHA-256 of an input file so repeated uploads
// can be traced.
func logInputFile(log zerolog.Logger, path string) {
	sha, err := normalize.FileHash(path)
	if err != nil {
		log.Warn().Err(err).Str("file", path).Msg("failed to hash file")
		return
	}
	stat, err := os.Stat(path)
	if err != nil {
		log.Warn().Err(err).Str("file", path).Msg("failed to stat file")
		return
	}
	log.Info().Str("file", path).Str("sha256", sha).Int64("size", stat.Size()).Msg("input file")
}

// exitFor maps a campaign error to the process exit code.
func exitFor(log zerolog.Logger, msg string, err error) {
	var pe *campaign.PipelineError
	if errors.As(err, &pe) {
		log.Error().Err(pe.Err).Str("phase", pe.Phase).Msg(msg)
	} else {
		log.Error().Err(err).Msg(msg)
	}
	switch {
	case campaign.IsMalformed(err):
		os.Exit(exitcode.ValidationError)
	case campaign.IsStoreUnavailable(err):
		os.Exit(exitcode.StoreError)
	default:
		os.Exit(exitcode.ProcessingError)
	}
}

func closeMaster(log zerolog.Logger, m store.Master) {
	if err := m.Close(); err != nil {
		log.Warn().Err(err).Msg("closing master store")
	}
}
