package api

import (
	"context"
	"net/http"

	service "github.com/okian/shotline/internal/app"
	"github.com/okian/shotline/internal/domain/model"
)

// ShotDependencies queues shots for analysis.
type ShotDependencies interface {
	Submit(ctx context.Context, job model.Job) (service.SubmitStatus, error)
}

// ShotsHandler handles shot submissions.
type ShotsHandler struct {
	deps ShotDependencies
}

// NewShotsHandler creates a new shots handler.
func NewShotsHandler(deps ShotDependencies) *ShotsHandler {
	return &ShotsHandler{deps: deps}
}

// HandlePostShot handles POST /shots requests.
func (h *ShotsHandler) HandlePostShot(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_shot"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	job, err := decodeShot(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	status, err := h.deps.Submit(r.Context(), job)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	if status == service.Duplicate {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", ShotID: job.Shot.ID, Duplicate: true})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", ShotID: job.Shot.ID})
}
