package roster

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/gyeh/outreach/internal/model"
)

// ParquetReader wraps a parquet GenericReader for streaming RosterRow records.
type ParquetReader struct {
	file   *os.File
	reader *parquet.GenericReader[model.RosterRow]
}

// OpenParquet opens a Parquet roster, checks its schema and returns a
// streaming reader.
func OpenParquet(path string) (*ParquetReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open parquet file: %w", err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat parquet file: %w", err)
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: open parquet: %w", model.ErrMalformedInput, err)
	}
	if err := ValidateSchema(pf.Schema()); err != nil {
		f.Close()
		return nil, err
	}

	r := parquet.NewGenericReader[model.RosterRow](pf)
	return &ParquetReader{file: f, reader: r}, nil
}

// NumRows returns the total number of rows in the Parquet file.
func (r *ParquetReader) NumRows() int64 {
	return r.reader.NumRows()
}

// Read reads up to len(rows) records into the provided slice.
// Returns the number of rows read and io.EOF when done.
func (r *ParquetReader) Read(rows []model.RosterRow) (int, error) {
	n, err := r.reader.Read(rows)
	if err != nil && err != io.EOF {
		return n, fmt.Errorf("read parquet rows: %w", err)
	}
	return n, err
}

// Close releases all resources.
func (r *ParquetReader) Close() error {
	if err := r.reader.Close(); err != nil {
		r.file.Close()
		return err
	}
	return r.file.Close()
}

// ValidateSchema checks that the file schema has the email and first-name
// columns. The provider column is optional.
func ValidateSchema(schema *parquet.Schema) error {
	columns := make(map[string]bool)
	for _, field := range schema.Fields() {
		columns[strings.ToLower(field.Name())] = true
	}

	for _, col := range []string{"patient_email", "patient_first_name"} {
		if !columns[col] {
			return fmt.Errorf("%w: missing required column: %s", model.ErrMalformedInput, col)
		}
	}
	return nil
}

// readParquet streams every roster row into raw (email, name, provider) triples.
func readParquet(path string) ([]rawRow, error) {
	reader, err := OpenParquet(path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	out := make([]rawRow, 0, reader.NumRows())
	buf := make([]model.RosterRow, 256)
	for {
		n, readErr := reader.Read(buf)
		for i := 0; i < n; i++ {
			out = append(out, rawRow{
				email:     deref(buf[i].Email),
				firstName: buf[i].FirstName,
				provider:  deref(buf[i].Provider),
			})
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, fmt.Errorf("%w: %w", model.ErrMalformedInput, readErr)
		}
	}
	return out, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
