// Package metrics declares the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playlister_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "playlister_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "playlister_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	HTTPRateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "playlister_http_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
	)
)

// Domain metrics
var (
	AuthFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playlister_auth_failures_total",
			Help: "Rejected logins and bearer tokens",
		},
		[]string{"reason"}, // "login", "token"
	)

	PlaylistPlays = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "playlister_playlist_plays_total",
			Help: "Total playlist plays",
		},
	)

	EntityMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playlister_entity_mutations_total",
			Help: "Successful writes by entity and operation",
		},
		[]string{"entity", "operation"},
	)
)

// Export metrics
var (
	ExportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playlister_exports_total",
			Help: "Playlist exports by format and outcome",
		},
		[]string{"format", "status"},
	)

	ExportDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "playlister_export_duration_seconds",
			Help:    "Duration of bulk export runs",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)
)

// Mutation records a successful write.
func Mutation(entity, operation string) {
	EntityMutations.WithLabelValues(entity, operation).Inc()
}
