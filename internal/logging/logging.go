package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Setup initializes a zerolog.Logger based on the requested format.
// format can be "text" (human-friendly console) or "json" (structured).
// When file is non-empty, JSON lines are also appended to it; a file that
// cannot be opened is reported on the returned logger and otherwise ignored.
func Setup(format, file string) zerolog.Logger {
	var console io.Writer = os.Stderr
	if format == "text" {
		console = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}
	}
	if file == "" {
		return zerolog.New(console).With().Timestamp().Logger()
	}

	f, err := openLogFile(file)
	if err != nil {
		log := zerolog.New(console).With().Timestamp().Logger()
		log.Warn().Err(err).Str("log_file", file).Msg("log file unavailable, logging to stderr only")
		return log
	}
	return zerolog.New(zerolog.MultiLevelWriter(console, f)).With().Timestamp().Logger()
}

// DailyFile returns dir/app_YYYY_MM_DD.log for the given day.
func DailyFile(dir string, day time.Time) string {
	return filepath.Join(dir, "app_"+day.Format("2006_01_02")+".log")
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}
