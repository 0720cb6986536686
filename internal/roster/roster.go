package roster

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/gyeh/outreach/internal/model"
	"github.com/gyeh/outreach/internal/normalize"
)

// Normalized header keys for the roster columns.
const (
	keyEmail     = "patientemail"
	keyFirstName = "patientfirstname"
	keyProvider  = "appointmentprovidername"
)

// Stats counts what cleaning did to a roster.
type Stats struct {
	RowsRead     int
	Kept         int
	NoEmail      int
	InvalidEmail int
	Duplicates   int
	Defaulted    int
}

// Result is a cleaned roster.
type Result struct {
	Records []model.ImportRecord
	Stats   Stats
}

type rawRow struct {
	email     string
	firstName string
	provider  string
}

// Read loads and cleans a roster export. Rows without a usable email are
// dropped, a blank provider becomes defaultProvider and repeated emails
// keep their first occurrence.
func Read(path, defaultProvider string, log zerolog.Logger) (*Result, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	var rows []rawRow
	if format == FormatParquet {
		rows, err = readParquet(path)
	} else {
		rows, err = readRosterTable(path)
	}
	if err != nil {
		return nil, err
	}

	res := clean(rows, defaultProvider)
	log.Info().
		Str("file", path).
		Str("format", format).
		Int("rows_read", res.Stats.RowsRead).
		Int("kept", res.Stats.Kept).
		Int("no_email", res.Stats.NoEmail).
		Int("invalid_email", res.Stats.InvalidEmail).
		Int("duplicates", res.Stats.Duplicates).
		Int("provider_defaulted", res.Stats.Defaulted).
		Msg("roster read")
	return res, nil
}

func readRosterTable(path string) ([]rawRow, error) {
	table, err := ReadTable(path)
	if err != nil {
		return nil, err
	}

	start, pos, ok := findHeader(table, rosterHeader, keyEmail, keyFirstName)
	if !ok {
		return nil, fmt.Errorf("%w: %s: no header row with Patient Email and Patient First Name",
			model.ErrMalformedInput, path)
	}
	ei := pos[keyEmail]
	ni := pos[keyFirstName]
	pi, hasProvider := pos[keyProvider]

	rows := make([]rawRow, 0, len(table)-start-1)
	for _, row := range table[start+1:] {
		rows = append(rows, rawRow{
			email:     cellAt(row, ei, true),
			firstName: cellAt(row, ni, true),
			provider:  cellAt(row, pi, hasProvider),
		})
	}
	return rows, nil
}

func rosterHeader(cell string) string {
	switch h := normalize.Header(cell); h {
	case keyEmail, keyFirstName, keyProvider:
		return h
	}
	return ""
}

// clean applies the roster cleaning rules to raw rows.
func clean(rows []rawRow, defaultProvider string) *Result {
	res := &Result{Records: make([]model.ImportRecord, 0, len(rows))}
	seen := make(map[string]struct{}, len(rows))

	for _, r := range rows {
		res.Stats.RowsRead++
		email := normalize.Email(r.email)
		if email == "" {
			res.Stats.NoEmail++
			continue
		}
		if !normalize.ValidEmail(email) {
			res.Stats.InvalidEmail++
			continue
		}
		if _, dup := seen[email]; dup {
			res.Stats.Duplicates++
			continue
		}
		seen[email] = struct{}{}

		provider := normalize.Text(r.provider)
		if provider == "" {
			provider = defaultProvider
			res.Stats.Defaulted++
		}
		res.Records = append(res.Records, model.ImportRecord{
			Email:     email,
			FirstName: normalize.Text(r.firstName),
			Provider:  provider,
		})
	}
	res.Stats.Kept = len(res.Records)
	return res
}
