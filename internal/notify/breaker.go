package notify

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// newBreaker trips after more than 5 consecutive failures, or a 60% failure
// ratio over at least 10 requests, and probes again after 30s.
func newBreaker(name string, log zerolog.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			ratio := float64(c.TotalFailures) / float64(c.Requests)
			return c.ConsecutiveFailures > 5 || (c.Requests >= 10 && ratio >= 0.6)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})
}
