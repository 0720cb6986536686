package store

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/gyeh/outreach/internal/model"
)

// Sheets keeps the master table in one worksheet of a Google spreadsheet.
// Save clears the worksheet and rewrites it; the two calls are not atomic,
// so runs must be serialized by the caller's Locker.
type Sheets struct {
	svc           *sheets.Service
	spreadsheetID string
	sheetName     string
}

// DefaultSheetName is the worksheet holding the master table when none is
// configured.
const DefaultSheetName = "Master"

// OpenSheets connects with the service-account credentials in
// credentialsFile.
func OpenSheets(ctx context.Context, credentialsFile, spreadsheetID, sheetName string) (*Sheets, error) {
	if credentialsFile == "" {
		return nil, fmt.Errorf("google credentials file is required")
	}
	return NewSheets(ctx, spreadsheetID, sheetName,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
}

// NewSheets builds a Sheets store from arbitrary client options.
func NewSheets(ctx context.Context, spreadsheetID, sheetName string, opts ...option.ClientOption) (*Sheets, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is required")
	}
	if sheetName == "" {
		sheetName = DefaultSheetName
	}
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Sheets{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}, nil
}

func (s *Sheets) Load(ctx context.Context) ([]model.Record, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.sheetName).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", s.sheetName, err)
	}

	table := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		table[i] = make([]string, len(row))
		for j, v := range row {
			table[i][j] = strings.TrimSpace(fmt.Sprint(v))
		}
	}
	return DecodeTable(table)
}

func (s *Sheets) Save(ctx context.Context, records []model.Record) error {
	if _, err := s.svc.Spreadsheets.Values.Clear(s.spreadsheetID, s.sheetName, &sheets.ClearValuesRequest{}).
		Context(ctx).
		Do(); err != nil {
		return fmt.Errorf("clear sheet %s: %w", s.sheetName, err)
	}

	table := EncodeTable(records)
	values := make([][]interface{}, len(table))
	for i, row := range table {
		values[i] = make([]interface{}, len(row))
		for j, v := range row {
			values[i][j] = v
		}
	}

	if _, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, s.sheetName+"!A1", &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).
		Do(); err != nil {
		return fmt.Errorf("write sheet %s: %w", s.sheetName, err)
	}
	return nil
}

func (s *Sheets) Close() error { return nil }

var _ Store = (*Sheets)(nil)
