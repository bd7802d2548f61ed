package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SessionsIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "session_tokens_issued_total",
			Help: "Total number of session tokens issued",
		},
	)

	SessionsRevoked = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "session_tokens_revoked_total",
			Help: "Total number of session tokens revoked on logout",
		},
	)

	SweptEntriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sweeper_deleted_total",
			Help: "Total number of expired in-memory entries removed, by sweeper",
		},
		[]string{"sweeper"},
	)

	TokenValidationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "session_token_validations_total",
			Help: "Total number of session token validations",
		},
	)

	TokenValidationsFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "session_token_validations_failed_total",
			Help: "Total number of failed session token validations",
		},
	)

	LoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logins_total",
			Help: "Total number of login attempts by result",
		},
		[]string{"result"},
	)

	RegistrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registrations_total",
			Help: "Total number of registration attempts by result",
		},
		[]string{"result"},
	)

	PasswordHashDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "password_hash_duration_seconds",
			Help:    "Duration of PBKDF2 password derivations in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)
)
