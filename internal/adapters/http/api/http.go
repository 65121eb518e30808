// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/okian/fixturedensity/internal/domain/advisor"
	"github.com/okian/fixturedensity/internal/domain/types"
)

// maxBodyBytes bounds a request body.
const maxBodyBytes = 32 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Score(ctx context.Context, req types.ScoreRequest) (types.ScoreResponse, error)
	Alternatives(ctx context.Context, req types.ScoreRequest) (types.AlternativesResponse, error)
	Congestion(ctx context.Context, req types.ScoreRequest) (types.CongestionResponse, error)
	OverlapIndex(ctx context.Context, req types.ScoreRequest) (types.OverlapResponse, error)
}

// Server wires HTTP routes for the density API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	scoreHandler  *ScoreHandler
	reportHandler *ReportHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		scoreHandler:  NewScoreHandler(deps),
		reportHandler: NewReportHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/v1/score", MetricsMiddleware(RequestIDMiddleware(s.scoreHandler.HandleScore), "score"))
	mux.HandleFunc("/v1/alternatives", MetricsMiddleware(RequestIDMiddleware(s.scoreHandler.HandleAlternatives), "alternatives"))
	mux.HandleFunc("/v1/congestion", MetricsMiddleware(RequestIDMiddleware(s.reportHandler.HandleCongestion), "congestion"))
	mux.HandleFunc("/v1/overlap-index", MetricsMiddleware(RequestIDMiddleware(s.reportHandler.HandleOverlapIndex), "overlap_index"))
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

// decodeRequest reads a ScoreRequest body. An empty body is an empty request.
func decodeRequest(op string, r *http.Request, w http.ResponseWriter) (types.ScoreRequest, error) {
	var req types.ScoreRequest
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return types.ScoreRequest{}, WrapKind(op, ErrBadRequest, err)
	}
	return req, nil
}

// writeServiceError maps service errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, advisor.ErrSuperseded):
		writeError(w, http.StatusConflict, "superseded", WrapKind(op, ErrConflict, err))
	case errors.Is(err, types.ErrInvalidRequest), errors.Is(err, advisor.ErrUnknownCandidate):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "cancelled", Wrap(op, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal", WrapKind(op, ErrInternal, err))
	}
}
