package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/okian/shotline/internal/adapters/repository"
	"github.com/okian/shotline/internal/domain/model"
)

// MetricsDependencies reads stored accuracy records.
type MetricsDependencies interface {
	Metrics(ctx context.Context, shotID int64) (model.ShotAccuracy, error)
}

// MetricsHandler serves stored per-shot metrics.
type MetricsHandler struct {
	deps MetricsDependencies
}

// NewMetricsHandler creates a new metrics handler.
func NewMetricsHandler(deps MetricsDependencies) *MetricsHandler {
	return &MetricsHandler{deps: deps}
}

// HandleGetMetrics handles GET /metrics/{shot_id} requests.
func (h *MetricsHandler) HandleGetMetrics(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_metrics"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id, err := pathID(r, "/metrics/")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	rec, err := h.deps.Metrics(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", err)
		return
	}
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
