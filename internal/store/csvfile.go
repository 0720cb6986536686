package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gyeh/outreach/internal/model"
)

// CSVFile keeps the master table in a local CSV file.
type CSVFile struct {
	path string
}

// NewCSVFile returns a store backed by the CSV file at path. The file does
// not need to exist yet.
func NewCSVFile(path string) *CSVFile {
	return &CSVFile{path: path}
}

func (s *CSVFile) Load(ctx context.Context) ([]model.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []model.Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open master csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	table, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: read master csv: %w", model.ErrMalformedInput, err)
	}
	return DecodeTable(table)
}

// Save writes the table to a temp file beside the target and renames it
// into place, so readers never see a half-written master.
func (s *CSVFile) Save(ctx context.Context, records []model.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create master dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".master-*.csv")
	if err != nil {
		return fmt.Errorf("create temp master: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.WriteAll(EncodeTable(records)); err != nil {
		tmp.Close()
		return fmt.Errorf("write master csv: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp master: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace master csv: %w", err)
	}
	return nil
}

func (s *CSVFile) Close() error { return nil }

var _ Store = (*CSVFile)(nil)
