package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"engage-engine/internal/domain"
)

// SQLiteTable keeps the applicant table in a local file. It stands in for
// the sheet on dry runs and is never used alongside it.
type SQLiteTable struct {
	Pool *sql.DB
}

func OpenSQLite(path string) (*SQLiteTable, error) {
	// modernc sqlite uses DSN like: file:foo.db?_pragma=busy_timeout(5000)
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)

	pool, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	pool.SetMaxOpenConns(1) // sqlite typically wants 1 writer
	pool.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, err
	}

	t := &SQLiteTable{Pool: pool}
	if err := t.migrate(domain.DefaultHeader); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("migrate sqlite table: %w", err)
	}
	return t, nil
}

func (t *SQLiteTable) Close() error {
	if t == nil || t.Pool == nil {
		return nil
	}
	return t.Pool.Close()
}

func (t *SQLiteTable) migrate(header []string) error {
	tx, err := t.Pool.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}
	if v >= 1 {
		return tx.Commit()
	}

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS header_cols (
  pos INTEGER PRIMARY KEY,
  name TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS applications (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  cells TEXT NOT NULL,
  appended_at TEXT NOT NULL
);
`); err != nil {
		return err
	}

	for i, h := range header {
		if _, err := tx.Exec(`INSERT OR IGNORE INTO header_cols(pos, name) VALUES(?, ?);`, i, h); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(`PRAGMA user_version = 1;`); err != nil {
		return err
	}
	return tx.Commit()
}

func (t *SQLiteTable) Snapshot(ctx context.Context) ([]string, [][]string, error) {
	hrows, err := t.Pool.QueryContext(ctx, `SELECT name FROM header_cols ORDER BY pos;`)
	if err != nil {
		return nil, nil, err
	}
	defer hrows.Close()

	var header []string
	for hrows.Next() {
		var name string
		if err := hrows.Scan(&name); err != nil {
			return nil, nil, err
		}
		header = append(header, name)
	}
	if err := hrows.Err(); err != nil {
		return nil, nil, err
	}

	rrows, err := t.Pool.QueryContext(ctx, `SELECT cells FROM applications ORDER BY id;`)
	if err != nil {
		return nil, nil, err
	}
	defer rrows.Close()

	var rows [][]string
	for rrows.Next() {
		var raw string
		if err := rrows.Scan(&raw); err != nil {
			return nil, nil, err
		}
		var cells []string
		if err := json.Unmarshal([]byte(raw), &cells); err != nil {
			return nil, nil, fmt.Errorf("decode row: %w", err)
		}
		rows = append(rows, cells)
	}
	return header, rows, rrows.Err()
}

func (t *SQLiteTable) AppendRow(ctx context.Context, row []string) error {
	b, err := json.Marshal(row)
	if err != nil {
		return err
	}
	_, err = t.Pool.ExecContext(ctx,
		`INSERT INTO applications(cells, appended_at) VALUES(?, ?);`,
		string(b), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert row: %w", err)
	}
	return nil
}
