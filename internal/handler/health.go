package handler

import (
	"context"
	"net/http"
	"time"
)

// HealthChecker defines an interface for checking service health.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthHandler manages health check endpoints.
type HealthHandler struct {
	store     HealthChecker
	storeName string
	cache     HealthChecker
}

// NewHealthHandler creates a new HealthHandler. storeName labels the
// store check ("postgres", "mongodb", "memory"). Pass nil for cache when
// Redis is not configured.
func NewHealthHandler(store HealthChecker, storeName string, cache HealthChecker) *HealthHandler {
	return &HealthHandler{
		store:     store,
		storeName: storeName,
		cache:     cache,
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Healthz is a liveness probe. It performs no dependency checks.
//
// GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status: "ok",
	}
	writeJSON(w, http.StatusOK, response)
}

// Readyz returns 200 only if the store and, when configured, Redis respond.
//
// GET /readyz
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	healthy := true

	name := h.storeName
	if name == "" {
		name = "store"
	}
	if !check(ctx, h.store, name, checks) {
		healthy = false
	}
	if !check(ctx, h.cache, "redis", checks) {
		healthy = false
	}

	status := "ok"
	statusCode := http.StatusOK
	if !healthy {
		status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status: status,
		Checks: checks,
	}

	writeJSON(w, statusCode, response)
}

// check pings one dependency and records the outcome under name.
// An unconfigured dependency is reported but does not fail readiness.
func check(ctx context.Context, dep HealthChecker, name string, checks map[string]string) bool {
	if dep == nil {
		checks[name] = "not configured"
		return true
	}
	if err := dep.Ping(ctx); err != nil {
		checks[name] = "error: " + err.Error()
		return false
	}
	checks[name] = "ok"
	return true
}
