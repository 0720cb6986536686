// Package store holds the master table backends. Every backend loads and
// saves the whole table; Save replaces prior contents entirely.
package store

import (
	"context"

	"github.com/gyeh/outreach/internal/model"
)

// Store persists the master table.
type Store interface {
	// Load returns every record in storage order. An empty backing store
	// yields an empty slice and no error.
	Load(ctx context.Context) ([]model.Record, error)
	// Save replaces the stored table with records.
	Save(ctx context.Context, records []model.Record) error
}

// Locker serializes load-mutate-save cycles against one store. The
// returned unlock func must be called exactly once.
type Locker interface {
	Lock(ctx context.Context) (unlock func(), err error)
}

// MutexLocker is an in-process Locker that honours context cancellation
// while waiting.
type MutexLocker struct {
	ch chan struct{}
}

// NewMutexLocker returns an unlocked MutexLocker.
func NewMutexLocker() *MutexLocker {
	return &MutexLocker{ch: make(chan struct{}, 1)}
}

// Lock blocks until the lock is free or ctx is done.
func (l *MutexLocker) Lock(ctx context.Context) (func(), error) {
	select {
	case l.ch <- struct{}{}:
		return func() { <-l.ch }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// LockerFor returns s itself when it can lock across processes, and a new
// MutexLocker otherwise.
func LockerFor(s Store) Locker {
	if l, ok := s.(Locker); ok {
		return l
	}
	return NewMutexLocker()
}

var _ Locker = (*MutexLocker)(nil)
