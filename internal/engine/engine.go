// Package engine runs fleet passes and keeps the status the watch API reports.
package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"engage-engine/internal/events"
	"engage-engine/internal/fleet"
	"engage-engine/internal/metrics"
)

// ErrRunning is returned when a run is requested while one is in progress.
var ErrRunning = errors.New("a run is already in progress")

type Runner interface {
	Run(ctx context.Context) (fleet.RunSummary, error)
}

// Status is the last known state of the engine.
type Status struct {
	Running   bool   `json:"running"`
	Profile   string `json:"profile"`
	LastRunAt string `json:"last_run_at,omitempty"`
	LastOkAt  string `json:"last_ok_at,omitempty"`
	LastError string `json:"last_error,omitempty"`

	RunID      string `json:"run_id,omitempty"`
	Accounts   int    `json:"accounts"`
	Processed  int    `json:"processed"`
	Failed     int    `json:"failed"`
	TimedOut   int    `json:"timed_out"`
	DurationMs int64  `json:"duration_ms"`
}

type Engine struct {
	Runner  Runner
	Profile string
	Hub     *events.Hub
	Log     zerolog.Logger

	closers []func() error

	running atomic.Bool
	status  atomic.Value // Status
	wg      sync.WaitGroup
}

func (e *Engine) Status() Status {
	if st, ok := e.status.Load().(Status); ok {
		return st
	}
	return Status{Profile: e.Profile}
}

// RunOnce performs one fleet run unless another is in progress.
func (e *Engine) RunOnce(ctx context.Context) (fleet.RunSummary, error) {
	if !e.running.CompareAndSwap(false, true) {
		return fleet.RunSummary{}, ErrRunning
	}
	defer e.running.Store(false)

	prev := e.Status()
	start := time.Now()
	e.status.Store(Status{Running: true, Profile: e.Profile, LastRunAt: start.Format(time.RFC3339), LastOkAt: prev.LastOkAt})
	metrics.RunsTotal.Inc()
	e.Hub.Publish(events.TypeRunStarted, "", map[string]string{"profile": e.Profile})

	sum, err := e.Runner.Run(ctx)

	next := Status{
		Profile:    e.Profile,
		LastRunAt:  start.Format(time.RFC3339),
		LastOkAt:   prev.LastOkAt,
		RunID:      sum.RunID,
		Accounts:   sum.Accounts,
		Processed:  sum.Processed,
		Failed:     sum.Failed,
		TimedOut:   sum.TimedOut,
		DurationMs: sum.Duration.Milliseconds(),
	}
	log := e.Log.With().Str("run_id", sum.RunID).Str("profile", e.Profile).Logger()
	switch {
	case errors.Is(err, fleet.ErrNoAccounts):
		// Nothing to do is not a failure.
		next.LastOkAt = time.Now().Format(time.RFC3339)
		log.Info().Msg("no accounts to process")
		err = nil
	case err != nil:
		next.LastError = err.Error()
		metrics.RunErrorsTotal.Inc()
		log.Error().Err(err).Msg("run aborted")
	default:
		next.LastOkAt = time.Now().Format(time.RFC3339)
		metrics.ObserveRun(sum.Duration)
		log.Info().
			Int("accounts", sum.Accounts).
			Int("processed", sum.Processed).
			Int("failed", sum.Failed).
			Int("timed_out", sum.TimedOut).
			Dur("duration", sum.Duration).
			Msg("run finished")
	}
	e.status.Store(next)
	e.Hub.Publish(events.TypeRunFinished, sum.RunID, next)
	return sum, err
}

// Trigger starts a run in the background. It reports false when one is
// already running.
func (e *Engine) Trigger(ctx context.Context) bool {
	if e.running.Load() {
		return false
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		if _, err := e.RunOnce(ctx); err != nil && !errors.Is(err, ErrRunning) {
			e.Log.Warn().Err(err).Msg("triggered run failed")
		}
	}()
	return true
}

// Close waits for triggered runs and releases what New opened.
func (e *Engine) Close() error {
	e.wg.Wait()
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		errs = append(errs, e.closers[i]())
	}
	return errors.Join(errs...)
}
