// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/okian/shotline/internal/app"
	"github.com/okian/shotline/internal/domain/model"
)

// defaultMinSample is used for /summary when the server was built with a
// non-positive minimum.
const defaultMinSample = 1

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	ShotDependencies
	EvaluateDependencies
	MetricsDependencies
	SummaryDependencies
	BackfillDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	shotsHandler    *ShotsHandler
	evaluateHandler *EvaluateHandler
	metricsHandler  *MetricsHandler
	summaryHandler  *SummaryHandler
	backfillHandler *BackfillHandler
}

// NewServer creates a new API server with all handlers. minSample is the
// default per-group minimum for /summary.
func NewServer(deps Dependencies, statsProvider StatsProvider, minSample int) *Server {
	if minSample < 1 {
		minSample = defaultMinSample
	}
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		shotsHandler:    NewShotsHandler(deps),
		evaluateHandler: NewEvaluateHandler(deps),
		metricsHandler:  NewMetricsHandler(deps),
		summaryHandler:  NewSummaryHandler(deps, minSample),
		backfillHandler: NewBackfillHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/shots", MetricsMiddleware(s.shotsHandler.HandlePostShot, "shots"))
	mux.HandleFunc("/evaluate", MetricsMiddleware(s.evaluateHandler.HandleEvaluate, "evaluate"))
	mux.HandleFunc("/metrics/", MetricsMiddleware(s.metricsHandler.HandleGetMetrics, "metrics"))
	mux.HandleFunc("/summary", MetricsMiddleware(s.summaryHandler.HandleGetSummary, "summary"))
	mux.HandleFunc("/backfill", MetricsMiddleware(s.backfillHandler.HandleBackfill, "backfill"))
	mux.HandleFunc("/backfill/", MetricsMiddleware(s.backfillHandler.HandleGetBackfill, "backfill_run"))
}

// shotRequest mirrors the OpenAPI schema for POST /shots and POST /evaluate.
type shotRequest = model.Job

func decodeShot(r *http.Request) (model.Job, error) {
	var req shotRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return model.Job{}, err
	}
	return req, nil
}

type ackResponse struct {
	Status    string `json:"status"`
	ShotID    int64  `json:"shot_id"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError maps service errors to status codes.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidJob):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, service.ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", WrapKind(op, ErrBackpressure, err))
	case errors.Is(err, service.ErrNotStarted), errors.Is(err, service.ErrQueueClosed):
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}
