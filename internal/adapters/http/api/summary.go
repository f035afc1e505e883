package api

import (
	"context"
	"net/http"

	"github.com/okian/shotline/internal/domain/types"
)

// SummaryDependencies builds aggregate reports.
type SummaryDependencies interface {
	Summary(ctx context.Context, minConfidence float64, minSample int) (types.Summary, error)
}

// SummaryHandler serves aggregate accuracy reports.
type SummaryHandler struct {
	deps      SummaryDependencies
	minSample int
}

// NewSummaryHandler creates a new summary handler.
func NewSummaryHandler(deps SummaryDependencies, minSample int) *SummaryHandler {
	return &SummaryHandler{deps: deps, minSample: minSample}
}

// HandleGetSummary handles GET /summary?min_confidence=C&min_sample=N requests.
func (h *SummaryHandler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_summary"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	minConfidence, err := queryFloat(r, "min_confidence", 0, 0, 1)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	minSample, err := queryInt(r, "min_sample", h.minSample, 1)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	sum, err := h.deps.Summary(r.Context(), minConfidence, minSample)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
