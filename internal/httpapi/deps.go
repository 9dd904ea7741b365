package httpapi

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"engage-engine/internal/config"
	"engage-engine/internal/engine"
	"engage-engine/internal/events"
)

// Runner is the engine as seen by the API.
type Runner interface {
	Status() engine.Status
	Trigger(ctx context.Context) bool
}

type Deps struct {
	Runner Runner
	Hub    *events.Hub
	Log    zerolog.Logger

	// Config is served read-only; secrets never live in it.
	Config config.Config

	// RunCtx outlives the request that triggers a run.
	RunCtx context.Context

	// Metrics defaults to promhttp.Handler().
	Metrics http.Handler
}
