package gsheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/sheets/v4"

	"engage-engine/internal/ratelimit"
)

// Reader reads whole sheets through a shared client.
type Reader struct {
	Svc     *sheets.Service
	Limiter *ratelimit.HostLimiter
}

// A1 quotes a sheet name for use as a range.
func A1(sheet string) string {
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
}

// Values returns every populated row of a sheet as formatted strings.
func (r Reader) Values(ctx context.Context, spreadsheetID, sheet string) ([][]string, error) {
	if err := r.Limiter.Wait(ctx, Host); err != nil {
		return nil, err
	}
	resp, err := r.Svc.Spreadsheets.Values.Get(spreadsheetID, A1(sheet)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	out := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		out[i] = make([]string, len(row))
		for j, v := range row {
			out[i][j] = fmt.Sprint(v)
		}
	}
	return out, nil
}

// Records reads a sheet whose first row is a header and returns one map per
// data row keyed by header name.
func (r Reader) Records(ctx context.Context, spreadsheetID, sheet string) ([]map[string]string, error) {
	rows, err := r.Values(ctx, spreadsheetID, sheet)
	if err != nil {
		return nil, err
	}
	return RecordsFromRows(rows), nil
}

// RecordsFromRows converts header + rows into maps. Short rows yield "".
func RecordsFromRows(rows [][]string) []map[string]string {
	if len(rows) == 0 {
		return nil
	}
	header := rows[0]
	out := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make(map[string]string, len(header))
		for i, h := range header {
			h = strings.TrimSpace(h)
			if h == "" {
				continue
			}
			if i < len(row) {
				rec[h] = strings.TrimSpace(row[i])
			} else {
				rec[h] = ""
			}
		}
		out = append(out, rec)
	}
	return out
}

// IsRateLimited reports whether err is a Sheets API quota rejection.
func IsRateLimited(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusTooManyRequests
	}
	return false
}
