package scan

import (
	"context"
	"log/slog"

	"github.com/arbscan/arbscan/internal/domain"
)

// Collector builds the instrument catalog by asking every configured venue
// for its supported instruments and merging the listings.
type Collector struct {
	resolver GatewayResolver
	venueIDs []string
	logger   *slog.Logger
}

// NewCollector creates a Collector over the given venue IDs. The order of
// venueIDs determines venue order inside each catalog entry.
func NewCollector(resolver GatewayResolver, venueIDs []string, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{
		resolver: resolver,
		venueIDs: venueIDs,
		logger:   logger.With(slog.String("component", "collector")),
	}
}

// Collect queries each venue's instrument listing and merges them into a
// catalog mapping instrument -> listing venues. A venue that fails to
// initialize or to list instruments is logged and skipped; the catalog is
// built from whatever venues respond.
func (c *Collector) Collect(ctx context.Context) (*domain.Catalog, error) {
	catalog := domain.NewCatalog()

	for _, venueID := range c.venueIDs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		gw, err := c.resolver.GetOrInit(ctx, venueID)
		if err != nil {
			c.logger.Warn("venue unavailable for collection",
				slog.String("venue", venueID),
				slog.String("error", err.Error()),
			)
			continue
		}

		instruments, err := gw.LoadSupportedInstruments(ctx)
		if err != nil {
			c.logger.Warn("listing instruments failed",
				slog.String("venue", venueID),
				slog.String("error", err.Error()),
			)
			continue
		}

		for _, instrument := range instruments {
			catalog.Add(instrument, venueID)
		}
		c.logger.Info("venue collected",
			slog.String("venue", venueID),
			slog.Int("instruments", len(instruments)),
		)
	}

	c.logger.Info("collection finished", slog.Int("catalog_size", catalog.Len()))
	return catalog, nil
}
