package api

import (
	"context"
	"net/http"
	"time"
)

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

// HealthHandler returns the health check handler. Optional checks turn the
// response into 503 when any of them fails.
func HealthHandler(version string, checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{
			Status:    "healthy",
			Service:   "heimdall-relay",
			Version:   version,
			Timestamp: time.Now().UTC(),
		}

		status := http.StatusOK
		if len(checks) > 0 {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			resp.Checks = make(map[string]string, len(checks))
			for name, check := range checks {
				if err := check(ctx); err != nil {
					resp.Checks[name] = "unhealthy: " + err.Error()
					resp.Status = "unhealthy"
					status = http.StatusServiceUnavailable
					continue
				}
				resp.Checks[name] = "healthy"
			}
		}

		respondJSON(w, status, resp)
	}
}
