package handler

import (
	"fmt"
	"net/http"

	"github.com/coally/coally-api/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "coally_users_registered_total %d\n", snap.UsersRegistered)

	writeMetric(w, "coally_logins_total{outcome=\"success\"} %d\n", snap.LoginSuccess)
	writeMetric(w, "coally_logins_total{outcome=\"unknown_user\"} %d\n", snap.LoginUnknownUser)
	writeMetric(w, "coally_logins_total{outcome=\"invalid_password\"} %d\n", snap.LoginInvalidPassword)
	writeMetric(w, "coally_login_duration_seconds_count %d\n", snap.LoginDurationCount)
	writeMetric(w, "coally_login_duration_seconds_sum %.6f\n", float64(snap.LoginDurationTotalNs)/1e9)

	writeMetric(w, "coally_token_checks_total{outcome=\"valid\"} %d\n", snap.TokenValid)
	writeMetric(w, "coally_token_checks_total{outcome=\"rejected\"} %d\n", snap.TokenRejected)
	writeMetric(w, "coally_token_checks_total{outcome=\"superseded\"} %d\n", snap.TokenSuperseded)
	writeMetric(w, "coally_session_cache_hits_total %d\n", snap.SessionCacheHits)
	writeMetric(w, "coally_session_cache_misses_total %d\n", snap.SessionCacheMisses)

	writeMetric(w, "coally_tasks_created_total %d\n", snap.TasksCreated)
	writeMetric(w, "coally_tasks_updated_total %d\n", snap.TasksUpdated)
	writeMetric(w, "coally_tasks_deleted_total %d\n", snap.TasksDeleted)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
