package api

import (
	"net/http"
)

// ScoreHandler serves the target scoring endpoints.
type ScoreHandler struct {
	deps Dependencies
}

// NewScoreHandler creates a new score handler.
func NewScoreHandler(deps Dependencies) *ScoreHandler {
	return &ScoreHandler{deps: deps}
}

// HandleScore handles POST /v1/score requests.
func (h *ScoreHandler) HandleScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.score"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	req, err := decodeRequest(op, r, w)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	resp, err := h.deps.Score(r.Context(), req)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	resp.RequestID = RequestID(r.Context())
	writeJSON(w, http.StatusOK, resp)
}

// HandleAlternatives handles POST /v1/alternatives requests.
func (h *ScoreHandler) HandleAlternatives(w http.ResponseWriter, r *http.Request) {
	const op = "api.alternatives"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	req, err := decodeRequest(op, r, w)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	resp, err := h.deps.Alternatives(r.Context(), req)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	resp.RequestID = RequestID(r.Context())
	writeJSON(w, http.StatusOK, resp)
}
