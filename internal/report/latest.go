package report

import (
	"sync"
	"time"
)

// Latest is a thread-safe holder for the most recent scan report. The watch
// loop publishes into it; HTTP handlers read from it.
type Latest struct {
	mu    sync.RWMutex
	r     *Report
	runID string
	at    time.Time
}

// Set replaces the held report.
func (l *Latest) Set(r *Report, runID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.r = r
	l.runID = runID
	l.at = time.Now().UTC()
}

// Get returns the held report, its run ID, and when it was set. ok is false
// before the first scan completes.
func (l *Latest) Get() (r *Report, runID string, at time.Time, ok bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.r, l.runID, l.at, l.r != nil
}
