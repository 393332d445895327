// Package notify delivers scan alerts to operator channels. A finished scan
// fans out to every configured sender (Telegram, Discord); each sender
// renders the ranked opportunities in its channel's native markup.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/arbscan/arbscan/internal/domain"
)

// Event types the scanner emits.
const (
	EventScanComplete = "scan_complete"
	EventError        = "error"
)

// Alert is a single notification. For EventScanComplete the Opportunities
// slice is already thresholded and capped by the Notifier; senders only
// render it. For EventError the Message carries the failure.
type Alert struct {
	Event         string
	RunID         string
	Message       string
	Opportunities []domain.Opportunity
}

// Sender delivers an alert over one channel.
type Sender interface {
	Send(ctx context.Context, a Alert) error
	// Name returns a human-readable identifier for the sender (e.g. "telegram").
	Name() string
}

// Config controls which alerts go out and how much they carry.
type Config struct {
	// Events is the allowed event types. Empty allows all.
	Events []string
	// MinProfit is the fee-adjusted profit an opportunity must exceed to be
	// included in a scan alert.
	MinProfit float64
	// TopN caps how many opportunities one alert lists. Zero means no cap.
	TopN int
}

// Notifier dispatches alerts to one or more Senders, filtering by event type
// and trimming scan results down to the opportunities worth waking someone
// up for.
type Notifier struct {
	senders   []Sender
	events    map[string]bool // allowed event types
	minProfit float64
	topN      int
	logger    *slog.Logger
}

// NewNotifier creates a Notifier that will deliver to the given senders.
func NewNotifier(senders []Sender, cfg Config, logger *slog.Logger) *Notifier {
	allowed := make(map[string]bool, len(cfg.Events))
	for _, e := range cfg.Events {
		allowed[strings.TrimSpace(e)] = true
	}
	return &Notifier{
		senders:   senders,
		events:    allowed,
		minProfit: cfg.MinProfit,
		topN:      cfg.TopN,
		logger:    logger.With(slog.String("component", "notifier")),
	}
}

// ScanComplete alerts about a finished run. Opportunities at or below the
// profit threshold are dropped and the remainder capped at TopN; when
// nothing clears the bar no alert goes out at all.
func (n *Notifier) ScanComplete(ctx context.Context, runID string, opps []domain.Opportunity) error {
	var picked []domain.Opportunity
	for _, o := range opps {
		if o.Profit <= n.minProfit {
			continue
		}
		picked = append(picked, o)
		if n.topN > 0 && len(picked) >= n.topN {
			break
		}
	}
	if len(picked) == 0 {
		return nil
	}

	return n.send(ctx, Alert{
		Event:         EventScanComplete,
		RunID:         runID,
		Opportunities: picked,
	})
}

// Error alerts about a failure that ended a scan run.
func (n *Notifier) Error(ctx context.Context, runID string, err error) error {
	return n.send(ctx, Alert{
		Event:   EventError,
		RunID:   runID,
		Message: err.Error(),
	})
}

// send dispatches the alert to all senders if its event type is allowed.
// Errors from individual senders are collected and returned combined; a
// single sender failure does not prevent delivery to the remaining senders.
func (n *Notifier) send(ctx context.Context, a Alert) error {
	if len(n.events) > 0 && !n.events[a.Event] {
		n.logger.DebugContext(ctx, "event filtered out",
			slog.String("event", a.Event),
		)
		return nil
	}
	if len(n.senders) == 0 {
		return nil
	}

	var errs []string
	for _, s := range n.senders {
		if err := s.Send(ctx, a); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("event", a.Event),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
		} else {
			n.logger.DebugContext(ctx, "alert sent",
				slog.String("sender", s.Name()),
				slog.String("event", a.Event),
				slog.String("run_id", a.RunID),
			)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}
