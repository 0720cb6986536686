package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gyeh/outreach/internal/model"
	embedsql "github.com/gyeh/outreach/internal/sql"
)

// masterLockKey is the advisory lock id shared by every outreach process
// writing to the same database.
const masterLockKey int64 = 0x6f757472656163

// MasterStore keeps the master table in campaign.master_patients.
type MasterStore struct {
	pool *pgxpool.Pool
}

// NewMasterStore wraps an open pool. Migrations must already be applied.
func NewMasterStore(pool *pgxpool.Pool) *MasterStore {
	return &MasterStore{pool: pool}
}

// Load reads every record in stored order.
func (s *MasterStore) Load(ctx context.Context) ([]model.Record, error) {
	rows, err := s.pool.Query(ctx, embedsql.LoadMaster)
	if err != nil {
		return nil, fmt.Errorf("query master: %w", err)
	}
	defer rows.Close()

	records := []model.Record{}
	for rows.Next() {
		var (
			r         model.Record
			status    string
			firstSeen time.Time
			lastEmail *time.Time
		)
		if err := rows.Scan(&r.Email, &r.FirstName, &r.Provider, &firstSeen, &status, &lastEmail, &r.FollowupCount); err != nil {
			return nil, fmt.Errorf("scan master row: %w", err)
		}
		st, err := model.ParseStatus(status)
		if err != nil {
			return nil, fmt.Errorf("%w: row %s: %w", model.ErrMalformedInput, r.Email, err)
		}
		r.Status = st
		r.FirstSeen = model.Day(firstSeen)
		if lastEmail != nil {
			d := model.Day(*lastEmail)
			r.LastEmail = &d
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate master rows: %w", err)
	}
	return records, nil
}

// Save replaces the table contents in one transaction: TRUNCATE, then COPY.
func (s *MasterStore) Save(ctx context.Context, records []model.Record) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, embedsql.TruncateMaster); err != nil {
		return fmt.Errorf("truncate master: %w", err)
	}

	n, err := tx.CopyFrom(ctx,
		pgx.Identifier{"campaign", "master_patients"},
		CopyColumns(),
		NewRecordSource(records),
	)
	if err != nil {
		return fmt.Errorf("copy master: %w", err)
	}
	if n != int64(len(records)) {
		return fmt.Errorf("copy master: wrote %d of %d rows", n, len(records))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

// Lock takes a session advisory lock on a dedicated connection, so runs in
// other processes against the same database wait for this one.
func (s *MasterStore) Lock(ctx context.Context) (func(), error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire lock connection: %w", err)
	}
	if _, err := conn.Exec(ctx, embedsql.AdvisoryLock, masterLockKey); err != nil {
		conn.Release()
		return nil, fmt.Errorf("advisory lock: %w", err)
	}
	return func() {
		// A failed unlock is released with the session; destroy the
		// connection rather than return a locked session to the pool.
		if _, err := conn.Exec(context.Background(), embedsql.AdvisoryUnlock, masterLockKey); err != nil {
			_ = conn.Conn().Close(context.Background())
		}
		conn.Release()
	}, nil
}

// Close releases the pool.
func (s *MasterStore) Close() error {
	s.pool.Close()
	return nil
}
