package handler

import (
	"fmt"
	"net/http"

	"github.com/gamereviews/gamereviews/internal/metrics"
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
// GET /metrics
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "gamereviews_users_registered_total %d\n", snap.UsersRegistered)
	writeMetric(w, "gamereviews_logins_total{status=\"success\"} %d\n", snap.LoginsSucceeded)
	writeMetric(w, "gamereviews_logins_total{status=\"failed\"} %d\n", snap.LoginsFailed)
	writeMetric(w, "gamereviews_auth_rejected_total{reason=\"missing\"} %d\n", snap.AuthRejectedMissing)
	writeMetric(w, "gamereviews_auth_rejected_total{reason=\"invalid\"} %d\n", snap.AuthRejectedInvalid)

	writeMetric(w, "gamereviews_reviews_created_total %d\n", snap.ReviewsCreated)
	writeMetric(w, "gamereviews_reviews_updated_total %d\n", snap.ReviewsUpdated)
	writeMetric(w, "gamereviews_reviews_deleted_total %d\n", snap.ReviewsDeleted)
	writeMetric(w, "gamereviews_reviews_rejected_total{reason=\"duplicate\"} %d\n", snap.ReviewsDuplicate)
	writeMetric(w, "gamereviews_reviews_rejected_total{reason=\"forbidden\"} %d\n", snap.ReviewsForbidden)

	writeMetric(w, "gamereviews_review_cache_hits_total %d\n", snap.ReviewCacheHits)
	writeMetric(w, "gamereviews_review_cache_misses_total %d\n", snap.ReviewCacheMisses)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
