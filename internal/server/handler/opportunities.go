package handler

import (
	"net/http"

	"github.com/arbscan/arbscan/internal/report"
)

// OpportunitiesHandler serves the latest scan's ranked opportunity set.
type OpportunitiesHandler struct {
	latest *report.Latest
}

// NewOpportunitiesHandler creates an OpportunitiesHandler reading from the
// given holder.
func NewOpportunitiesHandler(latest *report.Latest) *OpportunitiesHandler {
	return &OpportunitiesHandler{latest: latest}
}

// GetOpportunities responds with the latest report as an ordered JSON object
// keyed by instrument, plus run metadata in headers.
// GET /api/opportunities
func (h *OpportunitiesHandler) GetOpportunities(w http.ResponseWriter, r *http.Request) {
	rep, runID, at, ok := h.latest.Get()
	if !ok {
		writeError(w, http.StatusNotFound, "no scan has completed yet")
		return
	}

	w.Header().Set("X-Scan-Run-Id", runID)
	w.Header().Set("X-Scan-Completed-At", at.Format(http.TimeFormat))
	writeJSON(w, http.StatusOK, rep)
}
