package store

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/gyeh/outreach/internal/model"
	"github.com/gyeh/outreach/internal/normalize"
	embedsql "github.com/gyeh/outreach/internal/sql"
)

// SQLite keeps the master table in a local SQLite database.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and applies
// the embedded migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := "file:" + filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// A single connection keeps the delete+insert transaction and the
	// following reads on one consistent handle.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applySQLiteMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &SQLite{db: db}, nil
}

func applySQLiteMigrations(ctx context.Context, db *sql.DB) error {
	const dir = "migrations/sqlite"
	entries, err := fs.ReadDir(embedsql.SQLiteMigrations, dir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	for _, entry := range entries {
		data, err := fs.ReadFile(embedsql.SQLiteMigrations, dir+"/"+entry.Name())
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		if _, err := db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("execute migration %s: %w", entry.Name(), err)
		}
	}
	return nil
}

func (s *SQLite) Load(ctx context.Context) ([]model.Record, error) {
	rows, err := s.db.QueryContext(ctx, embedsql.SQLiteLoadMaster)
	if err != nil {
		return nil, fmt.Errorf("query master: %w", err)
	}
	defer rows.Close()

	records := []model.Record{}
	for rows.Next() {
		var (
			r         model.Record
			firstSeen string
			status    string
			lastEmail sql.NullString
		)
		if err := rows.Scan(&r.Email, &r.FirstName, &r.Provider, &firstSeen, &status, &lastEmail, &r.FollowupCount); err != nil {
			return nil, fmt.Errorf("scan master row: %w", err)
		}
		if err := fillSQLiteRecord(&r, firstSeen, status, lastEmail); err != nil {
			return nil, fmt.Errorf("%w: row %s: %w", model.ErrMalformedInput, r.Email, err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate master rows: %w", err)
	}
	return records, nil
}

func fillSQLiteRecord(r *model.Record, firstSeen, status string, lastEmail sql.NullString) error {
	first := normalize.ParseDate(firstSeen)
	if first == nil {
		return fmt.Errorf("bad first seen date %q", firstSeen)
	}
	r.FirstSeen = model.Day(*first)

	st, err := model.ParseStatus(status)
	if err != nil {
		return err
	}
	r.Status = st

	if lastEmail.Valid && lastEmail.String != "" {
		last := normalize.ParseDate(lastEmail.String)
		if last == nil {
			return fmt.Errorf("bad last email date %q", lastEmail.String)
		}
		d := model.Day(*last)
		r.LastEmail = &d
	}
	return nil
}

// Save replaces the table in one transaction.
func (s *SQLite) Save(ctx context.Context, records []model.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, embedsql.SQLiteDeleteMaster); err != nil {
		return fmt.Errorf("clear master: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, embedsql.SQLiteInsertMaster)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range records {
		r := &records[i]
		var last any
		if r.LastEmail != nil {
			last = r.LastEmail.Format(model.DateLayout)
		}
		if _, err := stmt.ExecContext(ctx,
			i, r.Email, r.FirstName, r.Provider,
			r.FirstSeen.Format(model.DateLayout), string(r.Status), last, r.FollowupCount,
		); err != nil {
			return fmt.Errorf("insert %s: %w", r.Email, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

// Close closes the database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLite)(nil)
