// Package store appends application rows to the shared applicant table.
package store

import (
	"context"
	"errors"
)

// ErrRateLimited marks a transient quota rejection worth retrying.
var ErrRateLimited = errors.New("store rate limited")

// Table is an append-only row store whose first row is the header.
type Table interface {
	// Snapshot returns the header row and every data row.
	Snapshot(ctx context.Context) (header []string, rows [][]string, err error)
	// AppendRow adds one row laid out in header order.
	AppendRow(ctx context.Context, row []string) error
}
