package store

import (
	"context"
	"sync"

	"github.com/gyeh/outreach/internal/model"
)

// Memory keeps the master table in process. It backs dry runs and tests.
type Memory struct {
	mu      sync.Mutex
	records []model.Record
	saves   int
}

// NewMemory returns a Memory store seeded with a copy of records.
func NewMemory(records []model.Record) *Memory {
	return &Memory{records: model.Clone(records)}
}

func (m *Memory) Load(ctx context.Context) ([]model.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return model.Clone(m.records), nil
}

func (m *Memory) Save(ctx context.Context, records []model.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = model.Clone(records)
	m.saves++
	return nil
}

// Saves returns how many times Save succeeded.
func (m *Memory) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func (m *Memory) Close() error { return nil }

var _ Store = (*Memory)(nil)
