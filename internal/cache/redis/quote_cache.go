package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/arbscan/arbscan/internal/domain"
)

// QuoteCache implements domain.QuoteCache using Redis string values with a
// TTL. Each quote is stored as JSON at key "quote:{venueID}:{instrument}", so
// repeated scans inside the TTL window reuse the venue's last answer instead
// of refetching.
type QuoteCache struct {
	rdb *redis.Client
}

// NewQuoteCache creates a QuoteCache backed by the given Client.
func NewQuoteCache(c *Client) *QuoteCache {
	return &QuoteCache{rdb: c.Underlying()}
}

func quoteKey(venueID, instrument string) string {
	return "quote:" + venueID + ":" + instrument
}

// SetQuote stores a quote with the given TTL. A non-positive TTL disables
// caching for the write.
func (qc *QuoteCache) SetQuote(ctx context.Context, venueID, instrument string, q domain.Quote, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("redis: marshal quote %s/%s: %w", venueID, instrument, err)
	}
	if err := qc.rdb.Set(ctx, quoteKey(venueID, instrument), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis: set quote %s/%s: %w", venueID, instrument, err)
	}
	return nil
}

// GetQuote retrieves a cached quote. It returns domain.ErrNotFound when the
// key is absent or expired.
func (qc *QuoteCache) GetQuote(ctx context.Context, venueID, instrument string) (domain.Quote, error) {
	data, err := qc.rdb.Get(ctx, quoteKey(venueID, instrument)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Quote{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Quote{}, fmt.Errorf("redis: get quote %s/%s: %w", venueID, instrument, err)
	}

	var q domain.Quote
	if err := json.Unmarshal(data, &q); err != nil {
		return domain.Quote{}, fmt.Errorf("redis: decode quote %s/%s: %w", venueID, instrument, err)
	}
	return q, nil
}
