package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPAttemptsTotal tracks physical HTTP attempts by method and outcome
	HTTPAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paydash_http_attempts_total",
			Help: "Total number of physical HTTP attempts",
		},
		[]string{"method", "outcome"},
	)

	// HTTPLatency tracks attempt latency
	HTTPLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "paydash_http_latency_seconds",
			Help:    "HTTP attempt latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// RetriesTotal tracks re-dispatches by reason
	RetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paydash_http_retries_total",
			Help: "Total number of re-dispatched attempts",
		},
		[]string{"reason"},
	)

	// TokenRefreshTotal tracks token refresh calls by result
	TokenRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paydash_token_refresh_total",
			Help: "Total number of token refresh calls",
		},
		[]string{"result"},
	)

	// FailuresTotal tracks logical requests that ended in a classified failure
	FailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paydash_request_failures_total",
			Help: "Total number of classified request failures",
		},
		[]string{"class"},
	)

	// InflightRequests tracks attempts currently in flight
	InflightRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "paydash_inflight_requests",
			Help: "Number of HTTP attempts in flight",
		},
	)

	// ForcedLogoutsTotal tracks sessions cleared after an unrecoverable 401
	ForcedLogoutsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "paydash_forced_logouts_total",
			Help: "Total number of forced logouts",
		},
	)

	// DBConnectionPoolUsage tracks journal connection pool usage percentage
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "paydash_db_connection_pool_usage",
			Help: "Database connection pool usage percentage",
		},
	)

	// BackendUp reports the last probe result (1 = reachable)
	BackendUp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "paydash_backend_up",
			Help: "Whether the last backend probe succeeded",
		},
	)
)

// Outcome returns the outcome label for an attempt status code.
// A zero code means no response was received.
func Outcome(statusCode int) string {
	switch {
	case statusCode == 0:
		return "no_response"
	case statusCode < 300:
		return "2xx"
	case statusCode < 400:
		return "3xx"
	case statusCode < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
