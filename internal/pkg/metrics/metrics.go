// Package metrics provides Prometheus metrics definitions.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fitgram"

var (
	// HTTPRequestDuration tracks HTTP request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "route", "status_code"},
	)

	// DBPoolConnections tracks database connection pool state.
	DBPoolConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "pool_connections",
			Help:      "Number of database connections by state",
		},
		[]string{"state"},
	)

	// ContentMutations counts editor changes to programs, days and exercises.
	ContentMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "content",
			Name:      "mutations_total",
			Help:      "Content mutations by entity, operation and result",
		},
		[]string{"entity", "operation", "result"},
	)

	// EditorVerifications counts authorization checks by credential kind and outcome.
	EditorVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "editor_verifications_total",
			Help:      "Editor verification attempts by method and result",
		},
		[]string{"method", "result"},
	)

	// AccessGrants counts access-grant requests. id_field is the payload field
	// that carried the user id.
	AccessGrants = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "access",
			Name:      "grants_total",
			Help:      "Access grants by source, resolved id field and result",
		},
		[]string{"source", "id_field", "result"},
	)

	// TelegramMessages counts outgoing bot messages.
	TelegramMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "telegram",
			Name:      "messages_total",
			Help:      "Outgoing Telegram messages by status",
		},
		[]string{"status"},
	)
)
