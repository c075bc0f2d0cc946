package ledger

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/sheets/v4"
)

// lastColumn is the spreadsheet column of the final ledger cell (Image Link)
const lastColumn = "I"

// Sheets is a Table backed by one tab of a Google Sheets spreadsheet
type Sheets struct {
	svc           *sheets.Service
	spreadsheetID string
	sheetName     string
}

// NewSheets returns a table over sheetName in the given spreadsheet
func NewSheets(svc *sheets.Service, spreadsheetID, sheetName string) *Sheets {
	if sheetName == "" {
		sheetName = "Sheet1"
	}
	return &Sheets{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}
}

func (s *Sheets) Read(ctx context.Context) ([][]string, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.columnsRange()).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get values: %w", err)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, r := range resp.Values {
		row := make([]string, len(r))
		for i, v := range r {
			row[i] = fmt.Sprint(v)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *Sheets) Update(ctx context.Context, row int, values []string) error {
	rng := fmt.Sprintf("%s!A%d:%s%d", quoteSheetName(s.sheetName), row, lastColumn, row)
	_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng, toValueRange([][]string{values})).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", rng, err)
	}
	return nil
}

func (s *Sheets) Append(ctx context.Context, rows [][]string) error {
	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, s.columnsRange(), toValueRange(rows)).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to append values: %w", err)
	}
	return nil
}

func (s *Sheets) columnsRange() string {
	return fmt.Sprintf("%s!A:%s", quoteSheetName(s.sheetName), lastColumn)
}

func toValueRange(rows [][]string) *sheets.ValueRange {
	values := make([][]interface{}, len(rows))
	for i, r := range rows {
		values[i] = make([]interface{}, len(r))
		for j, v := range r {
			values[i][j] = v
		}
	}
	return &sheets.ValueRange{Values: values}
}

// quoteSheetName quotes tab names that A1 notation cannot take bare
func quoteSheetName(name string) string {
	for _, r := range name {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_') {
			return "'" + strings.ReplaceAll(name, "'", "''") + "'"
		}
	}
	return name
}
