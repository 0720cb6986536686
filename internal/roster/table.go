// Package roster reads the daily roster export and the no-review feed into
// cleaned model types.
package roster

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/gyeh/outreach/internal/model"
)

// File formats recognized by extension.
const (
	FormatCSV     = "csv"
	FormatXLSX    = "xlsx"
	FormatParquet = "parquet"
)

// DetectFormat maps a file name to one of the supported formats.
func DetectFormat(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".parquet":
		return FormatParquet, nil
	}
	return "", fmt.Errorf("%w: unsupported file type %q", model.ErrMalformedInput, filepath.Ext(path))
}

// ReadTable loads a CSV file or the first worksheet of an Excel workbook
// as a grid of trimmed strings.
func ReadTable(path string) ([][]string, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatCSV:
		return readCSV(path)
	case FormatXLSX:
		return readXLSX(path)
	}
	return nil, fmt.Errorf("%w: %s files are not tabular", model.ErrMalformedInput, format)
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: read csv: %w", model.ErrMalformedInput, err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\uFEFF")
	}
	return trimAll(rows), nil
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %w", model.ErrMalformedInput, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", model.ErrMalformedInput)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %s: %w", model.ErrMalformedInput, sheets[0], err)
	}
	return trimAll(rows), nil
}

func trimAll(rows [][]string) [][]string {
	for _, row := range rows {
		for i := range row {
			row[i] = strings.TrimSpace(row[i])
		}
	}
	return rows
}

// headerScanRows bounds how far down a report preamble the header row may sit.
const headerScanRows = 25

// findHeader returns the index of the first row within headerScanRows that
// has every one of the wanted normalized headers, and the column position
// of each header present in that row.
func findHeader(rows [][]string, match func(string) string, required ...string) (int, map[string]int, bool) {
	for i, row := range rows {
		if i >= headerScanRows {
			break
		}
		pos := make(map[string]int)
		for j, cell := range row {
			if key := match(cell); key != "" {
				if _, dup := pos[key]; !dup {
					pos[key] = j
				}
			}
		}
		ok := true
		for _, k := range required {
			if _, has := pos[k]; !has {
				ok = false
				break
			}
		}
		if ok {
			return i, pos, true
		}
	}
	return -1, nil, false
}

func cellAt(row []string, i int, ok bool) string {
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}
