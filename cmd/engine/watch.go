package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"engage-engine/internal/engine"
	"engage-engine/internal/events"
	"engage-engine/internal/httpapi"
	"engage-engine/internal/runlock"
	"engage-engine/internal/scheduler"
)

var (
	watchInstant bool
	watchEvery   time.Duration
	watchAddr    string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the fleet on an interval and serve a status API",
	Long: `Run the fleet immediately and then every --every, never overlapping.

The status API serves:
  GET  /health
  GET  /status   last run summary
  POST /run      start a run now
  GET  /events   server-sent run and application events
  GET  /metrics  Prometheus metrics
  GET  /config   loaded configuration`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		opts := engine.Options{Instant: watchInstant}
		rt, err := prepare("watch-"+profileName(opts), watchInstant)
		if errors.Is(err, runlock.ErrLocked) {
			fmt.Fprintln(cmd.OutOrStdout(), "already running")
			return nil
		}
		if err != nil {
			return err
		}
		defer rt.Close()

		every := rt.cfg.Watch.Interval
		if watchEvery > 0 {
			every = watchEvery
		}
		addr := rt.cfg.Watch.Addr
		if watchAddr != "" {
			addr = watchAddr
		}

		hub := events.NewHub()
		eng, err := engine.New(ctx, rt.cfg, rt.env, opts, hub, rt.log)
		if err != nil {
			return err
		}
		defer eng.Close()

		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return err
		}
		srv := &http.Server{
			Handler: httpapi.NewHandler(httpapi.Deps{
				Runner: eng,
				Hub:    hub,
				Log:    rt.log.With().Str("component", "http").Logger(),
				Config: rt.cfg,
				RunCtx: ctx,
			}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				rt.log.Error().Err(err).Msg("status server stopped")
			}
		}()
		rt.log.Info().Str("addr", ln.Addr().String()).Dur("every", every).Str("profile", eng.Profile).Msg("watching")

		scheduler.Every(ctx, every, "fleet", rt.log, func(ctx context.Context) error {
			_, err := eng.RunOnce(ctx)
			if errors.Is(err, engine.ErrRunning) {
				return nil
			}
			return err
		})

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	watchCmd.Flags().BoolVar(&watchInstant, "instant", false, "process instant-reaction accounts")
	watchCmd.Flags().DurationVar(&watchEvery, "every", 0, "interval between runs (default: watch.interval)")
	watchCmd.Flags().StringVar(&watchAddr, "addr", "", "status API listen address (default: watch.addr)")
}
