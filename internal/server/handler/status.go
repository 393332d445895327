package handler

import (
	"net/http"
	"time"

	"github.com/arbscan/arbscan/internal/report"
)

// StatusHandler serves the scanner's operational status.
type StatusHandler struct {
	Mode     string
	Strategy string
	latest   *report.Latest
	started  time.Time
}

// NewStatusHandler creates a StatusHandler.
func NewStatusHandler(mode, strategy string, latest *report.Latest) *StatusHandler {
	return &StatusHandler{
		Mode:     mode,
		Strategy: strategy,
		latest:   latest,
		started:  time.Now().UTC(),
	}
}

// GetStatus responds with the current mode, strategy, uptime, and last scan
// summary.
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"mode":           h.Mode,
		"strategy":       h.Strategy,
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
	}
	if rep, runID, at, ok := h.latest.Get(); ok {
		body["last_run_id"] = runID
		body["last_scan_at"] = at.Format(time.RFC3339)
		body["opportunities"] = rep.Len()
	}
	writeJSON(w, http.StatusOK, body)
}
