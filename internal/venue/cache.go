// Package venue implements the gateway layer over individual trading venues:
// concrete REST and websocket adapters, a config-driven registry, and the
// per-run connection cache used by the scanner.
package venue

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/arbscan/arbscan/internal/domain"
)

// Factory constructs an initialized gateway for a venue ID. Initialization
// includes whatever connectivity or metadata load the venue family requires;
// a factory error means the venue is unusable.
type Factory interface {
	New(ctx context.Context, venueID string) (domain.VenueGateway, error)
}

// Cache is the shared venue connection cache for one scan run. Entries are
// created lazily with single-flight semantics so concurrent instrument tasks
// cannot initialize the same venue twice. A venue whose initialization failed
// stays failed for the rest of the run.
type Cache struct {
	factory Factory
	logger  *slog.Logger

	group singleflight.Group

	mu   sync.Mutex
	live map[string]domain.VenueGateway
	dead map[string]error
}

// NewCache creates an empty cache over the given factory.
func NewCache(factory Factory, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		factory: factory,
		logger:  logger.With(slog.String("component", "venue_cache")),
		live:    make(map[string]domain.VenueGateway),
		dead:    make(map[string]error),
	}
}

// GetOrInit returns the cached gateway for venueID, initializing it on first
// use. Initialization failures are remembered: subsequent calls return the
// same VenueInitError without contacting the venue again.
func (c *Cache) GetOrInit(ctx context.Context, venueID string) (domain.VenueGateway, error) {
	c.mu.Lock()
	if gw, ok := c.live[venueID]; ok {
		c.mu.Unlock()
		return gw, nil
	}
	if err, ok := c.dead[venueID]; ok {
		c.mu.Unlock()
		return nil, &domain.VenueInitError{VenueID: venueID, Err: err}
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do(venueID, func() (any, error) {
		gw, err := c.factory.New(ctx, venueID)
		c.mu.Lock()
		defer c.mu.Unlock()
		if err != nil {
			c.dead[venueID] = err
			return nil, err
		}
		c.live[venueID] = gw
		return gw, nil
	})
	if err != nil {
		return nil, &domain.VenueInitError{VenueID: venueID, Err: err}
	}
	return v.(domain.VenueGateway), nil
}

// Close releases any gateways holding live connections. The cache must not be
// used afterwards.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, gw := range c.live {
		if closer, ok := gw.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				c.logger.Warn("closing venue gateway failed",
					slog.String("venue", id),
					slog.String("error", err.Error()),
				)
			}
		}
	}
	c.live = make(map[string]domain.VenueGateway)
	c.dead = make(map[string]error)
}
