package http

import (
	"context"
	"net/http"
	"time"

	"github.com/AlibekovAA/dining-quiz/backend/internal/common/logger"
	"github.com/AlibekovAA/dining-quiz/backend/internal/observability/metrics"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheck probes one dependency. A nil error means healthy.
type HealthCheck struct {
	Name  string
	Probe func(ctx context.Context) error
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// HealthHandler answers 200 {"status":"ok"} while every probe passes and 503
// with the failing check names otherwise.
func HealthHandler(log *logger.Logger, checks ...HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		resp := healthResponse{Status: "ok"}
		status := http.StatusOK

		for _, check := range checks {
			if err := check.Probe(ctx); err != nil {
				if resp.Checks == nil {
					resp.Checks = make(map[string]string)
				}
				resp.Checks[check.Name] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable

				metrics.HealthCheckFailuresTotal.WithLabelValues(check.Name).Inc()
				log.WithFields(ctx, logger.Fields{
					"check":  check.Name,
					"action": "health_check_failed",
				}).Warnf("health check failed: %v", err)
			}
		}

		WriteJSON(w, status, resp)
	}
}
