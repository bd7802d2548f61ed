package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RateLimitBlocked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_blocked_total",
			Help: "Total number of requests blocked by rate limiter",
		},
		[]string{"path", "limiter_type"},
	)

	DomainErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domain_errors_total",
			Help: "Total number of domain errors by category and code",
		},
		[]string{"category", "code", "status"},
	)

	HTTPErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Total number of HTTP errors by status code",
		},
		[]string{"status", "path", "method"},
	)

	PanicsRecoveredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_panics_recovered_total",
			Help: "Total number of handler panics turned into 500 responses",
		},
		[]string{"path"},
	)

	HealthCheckFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "health_check_failures_total",
			Help: "Total number of failed dependency probes by check name",
		},
		[]string{"check"},
	)

	UserStoreWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "user_store_writes_total",
			Help: "Total number of full user store rewrites by result",
		},
		[]string{"result"},
	)
)
