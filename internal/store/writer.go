package store

import (
	"context"
	"errors"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog"

	"engage-engine/internal/dedup"
	"engage-engine/internal/domain"
)

const (
	appendAttempts = 3
	appendBackoff  = 10 * time.Second
)

// Writer appends records through the duplicate cache's critical section.
type Writer struct {
	table Table
	cache *dedup.Cache
	log   zerolog.Logger

	// Backoff is the unit of the linear retry delay: attempt n waits (n+1)*Backoff.
	Backoff  time.Duration
	Attempts uint
}

func NewWriter(table Table, cache *dedup.Cache, log zerolog.Logger) *Writer {
	return &Writer{
		table:    table,
		cache:    cache,
		log:      log.With().Str("component", "store_writer").Logger(),
		Backoff:  appendBackoff,
		Attempts: appendAttempts,
	}
}

// Append writes rec unless its key is already known. The duplicate check,
// the remote append and the cache commit happen under one lock.
func (w *Writer) Append(ctx context.Context, rec domain.ApplicationRecord) (dedup.Outcome, error) {
	key := dedup.KeyOf(rec)

	out, err := w.cache.Guard(ctx, key, func(ctx context.Context, header []string) error {
		if len(header) == 0 {
			header = domain.DefaultHeader
		}
		row := RowFor(header, rec)
		return w.appendWithRetry(ctx, row)
	})

	switch out {
	case dedup.Success:
		w.log.Info().Str("key", key.String()).Str("title", rec.JobTitle).Msg("row appended")
	case dedup.Duplicate:
		w.log.Info().Str("key", key.String()).Msg("duplicate, not appended")
	default:
		w.log.Error().Err(err).Str("key", key.String()).Msg("append failed")
	}
	return out, err
}

func (w *Writer) appendWithRetry(ctx context.Context, row []string) error {
	return retry.Do(
		func() error { return w.table.AppendRow(ctx, row) },
		retry.Context(ctx),
		retry.Attempts(w.Attempts),
		retry.DelayType(func(n uint, _ error, _ *retry.Config) time.Duration {
			return time.Duration(n+1) * w.Backoff
		}),
		retry.RetryIf(func(err error) bool { return errors.Is(err, ErrRateLimited) }),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			w.log.Warn().Err(err).Uint("attempt", n+1).Uint("of", w.Attempts).
				Dur("wait", time.Duration(n+1)*w.Backoff).Msg("append rate limited, retrying")
		}),
	)
}
