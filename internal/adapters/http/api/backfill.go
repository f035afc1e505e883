package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	service "github.com/okian/shotline/internal/app"
	"github.com/okian/shotline/internal/domain/types"
)

// BackfillDependencies replays stored shots through the analyzer.
type BackfillDependencies interface {
	StartBackfill(ctx context.Context) (types.BackfillResult, error)
	BackfillRun(runID string) (types.BackfillResult, bool)
}

// BackfillHandler starts backfill runs and reports on them.
type BackfillHandler struct {
	deps BackfillDependencies
}

// NewBackfillHandler creates a new backfill handler.
func NewBackfillHandler(deps BackfillDependencies) *BackfillHandler {
	return &BackfillHandler{deps: deps}
}

// HandleBackfill handles POST /backfill requests. The response carries the
// run ID as soon as the shot list is loaded; shots are queued afterwards.
func (h *BackfillHandler) HandleBackfill(w http.ResponseWriter, r *http.Request) {
	const op = "api.backfill"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	res, err := h.deps.StartBackfill(r.Context())
	if errors.Is(err, service.ErrNoShotSource) {
		writeError(w, http.StatusNotImplemented, "not_implemented", err)
		return
	}
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusAccepted, res)
}

// HandleGetBackfill handles GET /backfill/{run_id} requests.
func (h *BackfillHandler) HandleGetBackfill(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	runID := strings.TrimPrefix(r.URL.Path, "/backfill/")
	res, ok := h.deps.BackfillRun(runID)
	if runID == "" || !ok {
		writeError(w, http.StatusNotFound, "not_found", errors.New("unknown backfill run"))
		return
	}
	writeJSON(w, http.StatusOK, res)
}
