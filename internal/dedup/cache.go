// Package dedup holds the process-wide set of recorded application keys and
// the single lock that serializes check, append and commit across workers.
package dedup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"engage-engine/internal/domain"
)

var ErrNotReady = errors.New("duplicate cache not initialized")

type State int

const (
	Empty State = iota
	Initializing
	Ready
)

func (s State) String() string {
	switch s {
	case Initializing:
		return "initializing"
	case Ready:
		return "ready"
	default:
		return "empty"
	}
}

// Outcome of a guarded write.
type Outcome int

const (
	Success Outcome = iota
	Duplicate
	Error
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Duplicate:
		return "duplicate"
	default:
		return "error"
	}
}

// Loader returns the store's header row and every data row.
type Loader interface {
	Snapshot(ctx context.Context) (header []string, rows [][]string, err error)
}

// WriteFunc performs the durable append. It runs while the cache lock is held
// and receives the header captured at initialization.
type WriteFunc func(ctx context.Context, header []string) error

type Cache struct {
	initMu sync.Mutex // one initializer at a time

	mu       sync.Mutex // keys, header, state; held across Guard
	state    State
	applyIDs map[string]struct{}
	pairs    map[string]struct{}
	header   []string

	log zerolog.Logger
}

func New(log zerolog.Logger) *Cache {
	return &Cache{
		applyIDs: make(map[string]struct{}),
		pairs:    make(map[string]struct{}),
		log:      log.With().Str("component", "dedup").Logger(),
	}
}

// Initialize seeds the cache from the store exactly once. Concurrent callers
// wait for the one in flight; after success every call is a no-op. A failed
// load leaves the cache Empty so the caller can abort the run.
func (c *Cache) Initialize(ctx context.Context, src Loader) error {
	c.initMu.Lock()
	defer c.initMu.Unlock()

	if c.State() == Ready {
		return nil
	}
	c.setState(Initializing)

	header, rows, err := src.Snapshot(ctx)
	if err != nil {
		c.setState(Empty)
		return fmt.Errorf("seed duplicate cache: %w", err)
	}

	cols := columnsOf(header)
	applyIDs := make(map[string]struct{}, len(rows))
	pairs := make(map[string]struct{}, len(rows))

	for _, row := range rows {
		id := cols.get(row, domain.ColApplyID)
		if id != "" {
			applyIDs[id] = struct{}{}
		}
		title := cols.get(row, domain.ColTitle)
		at, ok := parseSheetTime(cols.get(row, domain.ColReceivedAt))
		if !ok || title == "" {
			continue
		}
		pairs[Key{ReceivedAt: at, Title: title}.pair()] = struct{}{}
	}

	c.mu.Lock()
	c.header = append([]string(nil), header...)
	c.applyIDs = applyIDs
	c.pairs = pairs
	c.state = Ready
	c.mu.Unlock()

	c.log.Info().
		Int("rows", len(rows)).
		Int("apply_ids", len(applyIDs)).
		Int("pairs", len(pairs)).
		Msg("duplicate cache ready")
	return nil
}

func (c *Cache) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Cache) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Header returns the store header captured at initialization.
func (c *Cache) Header() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.header...)
}

// IsDuplicate reports whether key is already recorded.
func (c *Cache) IsDuplicate(key Key) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Ready {
		return false, ErrNotReady
	}
	return c.containsLocked(key), nil
}

// Commit records key. Only call after a durable write; Guard does this itself.
func (c *Cache) Commit(key Key) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Ready {
		return ErrNotReady
	}
	c.commitLocked(key)
	return nil
}

// Guard runs check, write and commit as one critical section shared by every
// worker, so two accounts producing the same key can never both succeed.
func (c *Cache) Guard(ctx context.Context, key Key, write WriteFunc) (Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Ready {
		return Error, ErrNotReady
	}
	if c.containsLocked(key) {
		return Duplicate, nil
	}
	if err := ctx.Err(); err != nil {
		return Error, err
	}
	if err := write(ctx, c.header); err != nil {
		return Error, err
	}
	c.commitLocked(key)
	return Success, nil
}

// Len returns the number of apply ids and pair keys held.
func (c *Cache) Len() (applyIDs, pairs int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.applyIDs), len(c.pairs)
}

func (c *Cache) containsLocked(key Key) bool {
	if key.ApplyID != "" {
		if _, ok := c.applyIDs[key.ApplyID]; ok {
			return true
		}
	}
	if p := key.pair(); p != "" {
		if _, ok := c.pairs[p]; ok {
			return true
		}
	}
	return false
}

func (c *Cache) commitLocked(key Key) {
	if key.ApplyID != "" {
		c.applyIDs[key.ApplyID] = struct{}{}
	}
	if p := key.pair(); p != "" {
		c.pairs[p] = struct{}{}
	}
}

type columns map[string]int

func columnsOf(header []string) columns {
	cols := make(columns, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if _, seen := cols[h]; !seen {
			cols[h] = i
		}
	}
	return cols
}

func (c columns) get(row []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
