package api

import (
	"context"
	"net/http"

	"github.com/okian/shotline/internal/domain/model"
	"github.com/okian/shotline/internal/domain/types"
)

// EvaluateDependencies analyzes a shot synchronously.
type EvaluateDependencies interface {
	Evaluate(ctx context.Context, job model.Job) (types.Evaluation, bool, error)
}

// EvaluateHandler handles synchronous evaluation requests.
type EvaluateHandler struct {
	deps EvaluateDependencies
}

// NewEvaluateHandler creates a new evaluate handler.
func NewEvaluateHandler(deps EvaluateDependencies) *EvaluateHandler {
	return &EvaluateHandler{deps: deps}
}

// HandleEvaluate handles POST /evaluate requests. A shot without an
// identifiable thrown stone yields 204.
func (h *EvaluateHandler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	const op = "api.evaluate"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	job, err := decodeShot(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	ev, ok, err := h.deps.Evaluate(r.Context(), job)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}
