package service

import (
	"github.com/AlibekovAA/dining-quiz/backend/internal/observability/metrics"
)

func incrementSessionsIssued() {
	metrics.SessionsIssued.Inc()
}

func incrementSessionsRevoked() {
	metrics.SessionsRevoked.Inc()
}

func incrementTokenValidations() {
	metrics.TokenValidationsTotal.Inc()
}

func incrementTokenValidationsFailed() {
	metrics.TokenValidationsFailed.Inc()
}

func recordLogin(result string) {
	metrics.LoginsTotal.WithLabelValues(result).Inc()
}

func recordRegistration(result string) {
	metrics.RegistrationsTotal.WithLabelValues(result).Inc()
}

func recordStatUpdate(kind string) {
	metrics.GameStatUpdatesTotal.WithLabelValues(kind).Inc()
}
