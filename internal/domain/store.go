package domain

import (
	"context"
	"io"
	"time"
)

// CatalogStore persists the instrument -> venues mapping between collect and
// scan runs. Load must wrap unreadable-source failures in
// ErrCatalogUnavailable so the orchestrator can distinguish the single fatal
// error class from per-venue noise.
type CatalogStore interface {
	Load(ctx context.Context) (*Catalog, error)
	Save(ctx context.Context, c *Catalog) error
}

// QuoteCache is a short-lived cache of per-venue quotes, used to avoid
// refetching from rate-limited venues when scans repeat within a window.
type QuoteCache interface {
	SetQuote(ctx context.Context, venueID, instrument string, q Quote, ttl time.Duration) error
	GetQuote(ctx context.Context, venueID, instrument string) (Quote, error)
}

// SignalBus is a lightweight pub/sub channel between the scan loop and
// downstream consumers (notifications, result serving).
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// BlobWriter uploads finished scan reports to object storage. PutMultipart
// exists for reports large enough to benefit from chunked uploads.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
	PutMultipart(ctx context.Context, path string, data io.Reader, partSize int64) error
}
