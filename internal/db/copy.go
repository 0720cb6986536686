package db

import (
	"github.com/jackc/pgx/v5"

	"github.com/gyeh/outreach/internal/model"
)

// RecordSource implements pgx.CopyFromSource over an in-memory master
// table, prefixing each row with its position so load order survives a
// round trip.
type RecordSource struct {
	records []model.Record
	idx     int
}

// NewRecordSource creates a CopyFromSource backed by records.
func NewRecordSource(records []model.Record) *RecordSource {
	return &RecordSource{records: records, idx: -1}
}

// Next advances to the next record. Returns false when all are consumed.
func (s *RecordSource) Next() bool {
	s.idx++
	return s.idx < len(s.records)
}

// Values returns the current record's values in CopyColumns order.
func (s *RecordSource) Values() ([]any, error) {
	return append([]any{s.idx}, s.records[s.idx].CopyValues()...), nil
}

// Err returns any error encountered during iteration.
func (s *RecordSource) Err() error {
	return nil
}

// CopyColumns returns the COPY column list matching RecordSource.Values.
func CopyColumns() []string {
	return append([]string{"row_order"}, model.SQLColumns()...)
}

// Compile-time check that RecordSource satisfies the interface.
var _ pgx.CopyFromSource = (*RecordSource)(nil)
