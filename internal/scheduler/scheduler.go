// Package scheduler repeats a task on a fixed interval.
package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

type Task func(ctx context.Context) error

// Every runs task immediately and then on each tick until ctx ends. Runs never
// overlap: a tick that fires while the task is still running is skipped.
func Every(ctx context.Context, interval time.Duration, name string, log zerolog.Logger, task Task) {
	t := time.NewTicker(interval)
	defer t.Stop()

	run := func() {
		if err := task(ctx); err != nil {
			log.Error().Err(err).Str("task", name).Msg("scheduled task failed")
		}
	}

	run()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			run()
		}
	}
}
