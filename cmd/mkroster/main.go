// mkroster writes a synthetic daily roster export for trying out the
// pipeline. The xlsx and csv outputs mimic the real report: a preamble
// above the header, some rows without an email or provider, a repeated
// patient and a footer.
// Usage: go run ./cmd/mkroster --out testdata/roster.xlsx --rows 500
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	goparquet "github.com/parquet-go/parquet-go"
	"github.com/xuri/excelize/v2"

	"github.com/gyeh/outreach/internal/model"
)

var (
	firstNames = []string{"Ann", "Bob", "Carmen", "Dev", "Eli", "Fatima", "Grace", "Hiro", "Ines", "Jon"}
	providers  = []string{"Dr. Smith", "Dr. Jones", "Dr. Patel", "Dr. O'Neil", ""}
	header     = []string{"Patient First Name", "Patient E-mail", "Appointment Provider Name"}
)

func main() {
	out := flag.String("out", "testdata/roster.xlsx", "output file (.xlsx, .csv or .parquet)")
	rows := flag.Int("rows", 200, "number of patient rows")
	offset := flag.Int("offset", 0, "first patient number, to make overlapping rosters")
	seed := flag.Int64("seed", 1, "random seed")
	flag.Parse()

	data := generate(*rows, *offset, rand.New(rand.NewSource(*seed)))

	if dir := filepath.Dir(*out); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "create output dir: %v\n", err)
			os.Exit(1)
		}
	}

	var err error
	switch strings.ToLower(filepath.Ext(*out)) {
	case ".xlsx":
		err = writeXLSX(*out, data)
	case ".csv":
		err = writeCSV(*out, data)
	case ".parquet":
		err = writeParquet(*out, data)
	default:
		err = fmt.Errorf("unsupported extension %q", filepath.Ext(*out))
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "write %s: %v\n", *out, err)
		os.Exit(1)
	}

	var noEmail, noProvider int
	for _, r := range data {
		if r.Email == nil {
			noEmail++
		}
		if r.Provider == nil {
			noProvider++
		}
	}
	fmt.Printf("Wrote %d rows to %s (%d without email, %d without provider)\n", len(data), *out, noEmail, noProvider)
}

func generate(n, offset int, rng *rand.Rand) []model.RosterRow {
	rows := make([]model.RosterRow, 0, n+1)
	for i := 0; i < n; i++ {
		num := offset + i
		name := firstNames[rng.Intn(len(firstNames))]
		row := model.RosterRow{FirstName: name}

		// Roughly one in twenty rows has no email.
		if rng.Intn(20) != 0 {
			email := fmt.Sprintf("%s.%04d@example.com", strings.ToLower(name), num)
			if rng.Intn(4) == 0 {
				email = "  " + strings.ToUpper(email) + " "
			}
			row.Email = &email
		}
		if p := providers[rng.Intn(len(providers))]; p != "" {
			row.Provider = &p
		}
		rows = append(rows, row)
	}
	if len(rows) > 1 {
		rows = append(rows, rows[0])
	}
	return rows
}

func cells(r model.RosterRow) []string {
	return []string{r.FirstName, deref(r.Email), deref(r.Provider)}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func preamble(n int) [][]string {
	return [][]string{
		{"Appointment Report"},
		{"Facility", "Main Campus"},
		{"Rows", fmt.Sprint(n)},
		{},
	}
}

func footer() [][]string {
	return [][]string{{}, {"Confidential: contains patient information"}}
}

func writeCSV(path string, data []model.RosterRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	lines := append(preamble(len(data)), header)
	for _, r := range data {
		lines = append(lines, cells(r))
	}
	lines = append(lines, footer()...)
	for _, l := range lines {
		if len(l) == 0 {
			l = []string{""}
		}
		if err := w.Write(l); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeXLSX(path string, data []model.RosterRow) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	lines := append(preamble(len(data)), header)
	for _, r := range data {
		lines = append(lines, cells(r))
	}
	lines = append(lines, footer()...)

	for i, l := range lines {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		row := make([]any, len(l))
		for j, v := range l {
			row[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}

func writeParquet(path string, data []model.RosterRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	writer := goparquet.NewGenericWriter[model.RosterRow](f)
	if _, err := writer.Write(data); err != nil {
		return err
	}
	return writer.Close()
}
