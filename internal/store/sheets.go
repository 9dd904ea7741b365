package store

import (
	"context"
	"fmt"

	"google.golang.org/api/sheets/v4"

	"engage-engine/internal/gsheets"
	"engage-engine/internal/ratelimit"
)

// SheetsTable is the applicant sheet in Google Sheets, the system of record.
type SheetsTable struct {
	reader        gsheets.Reader
	spreadsheetID string
	sheet         string
}

func NewSheetsTable(svc *sheets.Service, limiter *ratelimit.HostLimiter, spreadsheetID, sheet string) *SheetsTable {
	return &SheetsTable{
		reader:        gsheets.Reader{Svc: svc, Limiter: limiter},
		spreadsheetID: spreadsheetID,
		sheet:         sheet,
	}
}

func (t *SheetsTable) Snapshot(ctx context.Context) ([]string, [][]string, error) {
	rows, err := t.reader.Values(ctx, t.spreadsheetID, t.sheet)
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, nil
	}
	return rows[0], rows[1:], nil
}

func (t *SheetsTable) AppendRow(ctx context.Context, row []string) error {
	if err := t.reader.Limiter.Wait(ctx, gsheets.Host); err != nil {
		return err
	}
	cells := make([]interface{}, len(row))
	for i, v := range row {
		cells[i] = v
	}
	_, err := t.reader.Svc.Spreadsheets.Values.
		Append(t.spreadsheetID, gsheets.A1(t.sheet), &sheets.ValueRange{Values: [][]interface{}{cells}}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		if gsheets.IsRateLimited(err) {
			return fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
		return fmt.Errorf("append row: %w", err)
	}
	return nil
}
