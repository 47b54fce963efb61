package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

const healthCheckTimeout = 5 * time.Second

// HealthChecker handles health check requests
type HealthChecker struct {
	db       DependencyChecker
	cache    Pinger
	jobQueue DependencyChecker
	model    ModelState
}

// DependencyChecker is a dependency exposing a health check
type DependencyChecker interface {
	HealthCheck(ctx context.Context) error
}

// Pinger is a dependency reachable with a ping
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewHealthChecker creates a health checker that only checks the database
func NewHealthChecker(db DependencyChecker) *HealthChecker {
	return &HealthChecker{db: db}
}

// NewHealthCheckerWithDeps creates a health checker for the database plus the
// optional Redis cache and job queue. Nil dependencies are reported as disabled.
func NewHealthCheckerWithDeps(db DependencyChecker, cache Pinger, jobQueue DependencyChecker) *HealthChecker {
	return &HealthChecker{db: db, cache: cache, jobQueue: jobQueue}
}

// WithModel adds the model training state to extended checks
func (h *HealthChecker) WithModel(model ModelState) *HealthChecker {
	h.model = model
	return h
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthCheck handles the /healthz endpoint. ?mode=extended checks every dependency.
func (h *HealthChecker) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	statusCode := http.StatusOK

	if r.URL.Query().Get("mode") == "extended" {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		checks := map[string]string{
			"database": dependencyStatus(ctx, h.db, true),
			"redis":    ping(ctx, h.cache),
			"rabbitmq": dependencyStatus(ctx, h.jobQueue, false),
		}
		if h.model != nil {
			checks["model"] = "untrained"
			if h.model.Trained() {
				checks["model"] = "trained"
			}
		}
		for name, result := range checks {
			if name != "model" && result != "healthy" && result != "disabled" {
				response.Status = "unhealthy"
				statusCode = http.StatusServiceUnavailable
			}
		}
		response.Checks = checks
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}

func dependencyStatus(ctx context.Context, dep DependencyChecker, required bool) string {
	if dep == nil {
		if required {
			return "unhealthy: not configured"
		}
		return "disabled"
	}
	if err := dep.HealthCheck(ctx); err != nil {
		return "unhealthy: " + sanitizeErrorMessage(err.Error())
	}
	return "healthy"
}

func ping(ctx context.Context, dep Pinger) string {
	if dep == nil {
		return "disabled"
	}
	if err := dep.Ping(ctx); err != nil {
		return "unhealthy: " + sanitizeErrorMessage(err.Error())
	}
	return "healthy"
}
