package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all runtime configuration for an outreach run.
type Config struct {
	// Master store selection.
	Store           string // csv, sqlite, postgres, sheets or memory
	StorePath       string // csv file or sqlite database
	DSN             string
	SheetID         string
	SheetName       string
	CredentialsFile string

	FilePath   string // roster or no-review feed, depending on the command
	OutputDir  string
	ListenAddr string
	LogFormat  string // "text" or "json"
	LogFile    string
	Today      string // YYYY-MM-DD override of the run date

	DailyLimit         int
	FirstFollowupDays  int
	SecondFollowupDays int
	MaxSends           int
	DefaultProvider    string
}

// Default cadence tunables.
const (
	DefaultDailyLimit         = 300
	DefaultFirstFollowupDays  = 3
	DefaultSecondFollowupDays = 7
	DefaultMaxSends           = 3
	DefaultProviderName       = "NIH"
)

// ApplyDefaults fills every unset tunable.
func (c *Config) ApplyDefaults() {
	if c.DailyLimit == 0 {
		c.DailyLimit = DefaultDailyLimit
	}
	if c.FirstFollowupDays == 0 {
		c.FirstFollowupDays = DefaultFirstFollowupDays
	}
	if c.SecondFollowupDays == 0 {
		c.SecondFollowupDays = DefaultSecondFollowupDays
	}
	if c.MaxSends == 0 {
		c.MaxSends = DefaultMaxSends
	}
	if c.DefaultProvider == "" {
		c.DefaultProvider = DefaultProviderName
	}
}

// yamlConfig is the on-disk YAML structure. Pointers tell "absent" from
// an explicit zero.
type yamlConfig struct {
	DailyLimit         *int   `yaml:"daily_limit"`
	FirstFollowupDays  *int   `yaml:"first_followup_days"`
	SecondFollowupDays *int   `yaml:"second_followup_days"`
	MaxSends           *int   `yaml:"max_sends"`
	DefaultProvider    string `yaml:"default_provider"`
}

// LoadFromFile reads a YAML config file and merges its values into Config.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if yc.DailyLimit != nil {
		c.DailyLimit = *yc.DailyLimit
	}
	if yc.FirstFollowupDays != nil {
		c.FirstFollowupDays = *yc.FirstFollowupDays
	}
	if yc.SecondFollowupDays != nil {
		c.SecondFollowupDays = *yc.SecondFollowupDays
	}
	if yc.MaxSends != nil {
		c.MaxSends = *yc.MaxSends
	}
	if yc.DefaultProvider != "" {
		c.DefaultProvider = yc.DefaultProvider
	}
	return c.validateCadence()
}

// validateCadence checks the tunables are usable.
func (c *Config) validateCadence() error {
	if c.DailyLimit <= 0 {
		return fmt.Errorf("daily_limit must be positive, got %d", c.DailyLimit)
	}
	if c.FirstFollowupDays < 0 || c.SecondFollowupDays < 0 {
		return fmt.Errorf("follow-up days must not be negative")
	}
	if c.MaxSends <= 0 {
		return fmt.Errorf("max_sends must be positive, got %d", c.MaxSends)
	}
	return nil
}

// Validate checks the input file and returns an error if the config is invalid.
func (c *Config) Validate() error {
	if c.FilePath == "" {
		return fmt.Errorf("--file is required")
	}
	if _, err := os.Stat(c.FilePath); err != nil {
		return fmt.Errorf("file not accessible: %w", err)
	}
	return c.validateCadence()
}

// ValidateStore checks the fields required by the selected master store.
func (c *Config) ValidateStore() error {
	switch c.Store {
	case "csv", "sqlite":
		if c.StorePath == "" {
			return fmt.Errorf("--store-path is required for the %s store", c.Store)
		}
	case "postgres":
		if c.DSN == "" {
			return fmt.Errorf("--dsn or DATABASE_URL is required for the postgres store")
		}
	case "sheets":
		if c.SheetID == "" {
			return fmt.Errorf("--sheet-id or GOOGLE_SHEET_ID is required for the sheets store")
		}
		if c.CredentialsFile == "" {
			return fmt.Errorf("--credentials or GOOGLE_CREDENTIALS_FILE is required for the sheets store")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown --store %q (want csv, sqlite, postgres, sheets or memory)", c.Store)
	}
	return nil
}

// RunDate returns the run date: the --today override when set, otherwise
// the current date.
func (c *Config) RunDate() (time.Time, error) {
	if c.Today == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse("2006-01-02", c.Today)
	if err != nil {
		return time.Time{}, fmt.Errorf("--today must be YYYY-MM-DD: %w", err)
	}
	return t, nil
}
