package store

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/gyeh/outreach/internal/config"
	"github.com/gyeh/outreach/internal/db"
)

// Kinds of master store accepted by Open.
const (
	KindCSV      = "csv"
	KindSQLite   = "sqlite"
	KindPostgres = "postgres"
	KindSheets   = "sheets"
	KindMemory   = "memory"
)

// Master is a Store that owns resources released by Close.
type Master interface {
	Store
	io.Closer
}

// Open builds the master store selected by cfg.Store.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (Master, error) {
	switch cfg.Store {
	case KindCSV:
		log.Info().Str("path", cfg.StorePath).Msg("using csv master store")
		return NewCSVFile(cfg.StorePath), nil
	case KindSQLite:
		log.Info().Str("path", cfg.StorePath).Msg("using sqlite master store")
		return OpenSQLite(ctx, cfg.StorePath)
	case KindPostgres:
		log.Info().Msg("using postgres master store")
		pool, err := db.NewPool(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return db.NewMasterStore(pool), nil
	case KindSheets:
		log.Info().Str("spreadsheet", cfg.SheetID).Str("sheet", cfg.SheetName).Msg("using google sheets master store")
		return OpenSheets(ctx, cfg.CredentialsFile, cfg.SheetID, cfg.SheetName)
	case KindMemory:
		return NewMemory(nil), nil
	default:
		return nil, fmt.Errorf("unknown store kind %q", cfg.Store)
	}
}
