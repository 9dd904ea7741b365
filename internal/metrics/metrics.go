// Package metrics holds the engine's Prometheus collectors, registered on the
// default registry and served by promhttp in watch mode.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engage_messages_total",
			Help: "Mailbox messages handled, by terminal outcome",
		},
		[]string{"outcome"},
	)

	RunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "engage_runs_total",
			Help: "Fleet runs started",
		},
	)

	RunErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "engage_run_errors_total",
			Help: "Fleet runs aborted before processing accounts",
		},
	)

	AccountFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engage_account_failures_total",
			Help: "Accounts that contributed nothing to a run, by reason",
		},
		[]string{"reason"},
	)

	NotificationFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engage_notification_failures_total",
			Help: "Failed notification deliveries, by channel",
		},
		[]string{"channel"},
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "engage_run_duration_seconds",
			Help:    "Wall time of completed fleet runs",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)
)

func Outcome(outcome string) { MessagesTotal.WithLabelValues(outcome).Inc() }

func AccountFailure(reason string) { AccountFailuresTotal.WithLabelValues(reason).Inc() }

func NotificationFailure(channel string) { NotificationFailuresTotal.WithLabelValues(channel).Inc() }

func ObserveRun(d time.Duration) { RunDuration.Observe(d.Seconds()) }
