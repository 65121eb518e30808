package api

import (
	"net/http"
)

// ReportHandler serves the aggregate density reports.
type ReportHandler struct {
	deps Dependencies
}

// NewReportHandler creates a new report handler.
func NewReportHandler(deps Dependencies) *ReportHandler {
	return &ReportHandler{deps: deps}
}

// HandleCongestion handles POST /v1/congestion requests. The group_by query
// parameter overrides the body's groupBy.
func (h *ReportHandler) HandleCongestion(w http.ResponseWriter, r *http.Request) {
	const op = "api.congestion"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	req, err := decodeRequest(op, r, w)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if g := r.URL.Query().Get("group_by"); g != "" {
		req.GroupBy = g
	}
	resp, err := h.deps.Congestion(r.Context(), req)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	resp.RequestID = RequestID(r.Context())
	writeJSON(w, http.StatusOK, resp)
}

// HandleOverlapIndex handles POST /v1/overlap-index requests. The
// granularity query parameter overrides the body's granularity.
func (h *ReportHandler) HandleOverlapIndex(w http.ResponseWriter, r *http.Request) {
	const op = "api.overlap_index"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	req, err := decodeRequest(op, r, w)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if g := r.URL.Query().Get("granularity"); g != "" {
		req.Granularity = g
	}
	resp, err := h.deps.OverlapIndex(r.Context(), req)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	resp.RequestID = RequestID(r.Context())
	writeJSON(w, http.StatusOK, resp)
}
