package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/arbscan/arbscan/internal/domain"
)

// Archiver uploads finished scan reports to object storage so historical
// spreads remain queryable after the local files rotate away.
type Archiver struct {
	writer domain.BlobWriter
	prefix string
	logger *slog.Logger
}

// NewArchiver creates an Archiver that stores reports under the given key
// prefix (e.g. "scans").
func NewArchiver(writer domain.BlobWriter, prefix string, logger *slog.Logger) *Archiver {
	if prefix == "" {
		prefix = "scans"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Archiver{
		writer: writer,
		prefix: prefix,
		logger: logger.With(slog.String("component", "report_archiver")),
	}
}

// Archive uploads the report under a date-partitioned key that embeds the
// scan run ID.
func (a *Archiver) Archive(ctx context.Context, r *Report, runID string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("report: marshal for archive: %w", err)
	}

	now := time.Now().UTC()
	key := fmt.Sprintf("%s/%s/run-%s.json", a.prefix, now.Format("2006/01/02"), runID)

	// Full-catalog scans can produce reports past the single-shot sweet spot.
	const multipartThreshold = 8 << 20
	if len(data) >= multipartThreshold {
		if err := a.writer.PutMultipart(ctx, key, bytes.NewReader(data), 0); err != nil {
			return fmt.Errorf("report: archive %s: %w", key, err)
		}
	} else if err := a.writer.Put(ctx, key, bytes.NewReader(data), "application/json"); err != nil {
		return fmt.Errorf("report: archive %s: %w", key, err)
	}

	a.logger.Info("report archived",
		slog.String("key", key),
		slog.Int("opportunities", r.Len()),
	)
	return nil
}
