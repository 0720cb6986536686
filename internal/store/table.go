package store

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gyeh/outreach/internal/model"
	"github.com/gyeh/outreach/internal/normalize"
)

// EncodeTable renders records as a header row followed by one row per
// record, in the fixed master column order.
func EncodeTable(records []model.Record) [][]string {
	out := make([][]string, 0, len(records)+1)
	out = append(out, model.MasterColumns())
	for i := range records {
		out = append(out, records[i].Values())
	}
	return out
}

// DecodeTable parses a header row plus data rows into records. Columns are
// matched by name so reordered sheets still load; short rows are padded
// with blanks and fully blank rows are skipped. A table with no rows at
// all is an empty master.
func DecodeTable(table [][]string) ([]model.Record, error) {
	if len(table) == 0 {
		return []model.Record{}, nil
	}

	pos := make(map[string]int, len(table[0]))
	for i, h := range table[0] {
		pos[strings.TrimSpace(h)] = i
	}
	for _, col := range model.MasterColumns() {
		if _, ok := pos[col]; !ok {
			return nil, fmt.Errorf("%w: master table missing column %q", model.ErrMalformedInput, col)
		}
	}

	records := make([]model.Record, 0, len(table)-1)
	seen := make(map[string]int, len(table)-1)
	for n, row := range table[1:] {
		if blankRow(row) {
			continue
		}
		cell := func(col string) string {
			i := pos[col]
			if i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		r, err := decodeRecord(cell)
		if err != nil {
			return nil, fmt.Errorf("%w: master row %d: %w", model.ErrMalformedInput, n+2, err)
		}
		if prev, dup := seen[r.Email]; dup {
			return nil, fmt.Errorf("%w: master rows %d and %d share email %s", model.ErrMalformedInput, prev, n+2, r.Email)
		}
		seen[r.Email] = n + 2
		records = append(records, r)
	}
	return records, nil
}

func decodeRecord(cell func(string) string) (model.Record, error) {
	r := model.Record{
		Email:     normalize.Email(cell(model.ColEmail)),
		FirstName: cell(model.ColFirstName),
		Provider:  cell(model.ColProvider),
	}
	if r.Email == "" {
		return r, fmt.Errorf("empty email")
	}

	first := normalize.ParseDate(cell(model.ColFirstSeen))
	if first == nil {
		return r, fmt.Errorf("bad first seen date %q", cell(model.ColFirstSeen))
	}
	r.FirstSeen = model.Day(*first)

	st, err := model.ParseStatus(strings.ToUpper(cell(model.ColStatus)))
	if err != nil {
		return r, err
	}
	r.Status = st

	if raw := cell(model.ColLastEmail); raw != "" {
		last := normalize.ParseDate(raw)
		if last == nil {
			return r, fmt.Errorf("bad last email date %q", raw)
		}
		d := model.Day(*last)
		r.LastEmail = &d
	}

	if raw := cell(model.ColFollowupCount); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return r, fmt.Errorf("bad followup count %q", raw)
		}
		r.FollowupCount = n
	}
	return r, nil
}

func blankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
