package scan

import (
	"context"
	"errors"
	"log/slog"

	"github.com/arbscan/arbscan/internal/domain"
)

// GatewayResolver provides lazily initialized venue gateways. A resolver is
// scoped to one scan run; a venue that fails to initialize must keep failing
// for the rest of the run rather than being retried per instrument.
type GatewayResolver interface {
	GetOrInit(ctx context.Context, venueID string) (domain.VenueGateway, error)
}

// ScannerConfig configures the scan orchestrator.
type ScannerConfig struct {
	Resolver   GatewayResolver
	Aggregator *Aggregator

	// TradeAmount is the reference amount fed to the fee model. Defaults to 1.
	TradeAmount float64

	// Strategy selects the ratio formula and ranking metric.
	Strategy RankStrategy

	Logger *slog.Logger
}

// Scanner drives the aggregator over all filtered instruments and assembles
// the ranked opportunity set. Individual venue and quote failures are
// contained and logged; a scan only fails on context cancellation.
type Scanner struct {
	resolver GatewayResolver
	agg      *Aggregator
	amount   float64
	strategy RankStrategy
	logger   *slog.Logger
}

// NewScanner creates a Scanner from the given config.
func NewScanner(cfg ScannerConfig) *Scanner {
	if cfg.TradeAmount <= 0 {
		cfg.TradeAmount = 1
	}
	if cfg.Strategy == "" {
		cfg.Strategy = RankByProfitShare
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Scanner{
		resolver: cfg.Resolver,
		agg:      cfg.Aggregator,
		amount:   cfg.TradeAmount,
		strategy: cfg.Strategy,
		logger:   cfg.Logger.With(slog.String("component", "scanner")),
	}
}

// Scan filters the catalog, aggregates quotes per surviving instrument, and
// returns the ranked opportunity set. Instruments with zero usable quotes are
// omitted entirely. An instrument left with a single usable quote after venue
// failures yields a degenerate zero-spread opportunity (min == max); its
// profit reflects only fee cost.
func (s *Scanner) Scan(ctx context.Context, catalog *domain.Catalog, opts FilterOptions) ([]domain.Opportunity, error) {
	filtered := Filter(catalog, opts)
	s.logger.Info("scan started",
		slog.Int("catalog_size", catalog.Len()),
		slog.Int("eligible", filtered.Len()),
		slog.String("strategy", string(s.strategy)),
	)

	s.warmVenues(ctx, filtered)

	var opps []domain.Opportunity
	for _, instrument := range filtered.Instruments() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		gateways := s.liveGateways(ctx, filtered.Venues(instrument))
		if len(gateways) == 0 {
			s.logger.Debug("no live venues", slog.String("instrument", instrument))
			continue
		}

		pair, err := s.agg.Aggregate(ctx, gateways, instrument)
		if err != nil {
			if errors.Is(err, domain.ErrNoQuotes) {
				s.logger.Debug("instrument skipped", slog.String("instrument", instrument))
				continue
			}
			return nil, err
		}

		profit := ComputeProfit(pair.Min, pair.Max, s.amount)
		opps = append(opps, domain.Opportunity{
			Instrument: instrument,
			Diff:       profit,
			Ratio:      s.strategy.Ratio(pair, profit),
			Profit:     profit,
			Min:        pair.Min,
			Max:        pair.Max,
		})
	}

	ranked := Rank(opps, s.strategy)
	s.logger.Info("scan finished", slog.Int("opportunities", len(ranked)))
	return ranked, nil
}

// warmVenues initializes every venue referenced by the filtered catalog
// before quote aggregation begins. Failures are logged and remembered by the
// resolver; the venue is simply absent from the rest of the run.
func (s *Scanner) warmVenues(ctx context.Context, filtered *domain.Catalog) {
	seen := make(map[string]bool)
	for _, instrument := range filtered.Instruments() {
		for _, venueID := range filtered.Venues(instrument) {
			if seen[venueID] {
				continue
			}
			seen[venueID] = true
			if _, err := s.resolver.GetOrInit(ctx, venueID); err != nil {
				s.logger.Warn("venue init failed",
					slog.String("venue", venueID),
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// liveGateways resolves venue IDs to initialized gateways, dropping venues
// that failed initialization.
func (s *Scanner) liveGateways(ctx context.Context, venueIDs []string) []domain.VenueGateway {
	gateways := make([]domain.VenueGateway, 0, len(venueIDs))
	for _, id := range venueIDs {
		gw, err := s.resolver.GetOrInit(ctx, id)
		if err != nil {
			continue
		}
		gateways = append(gateways, gw)
	}
	return gateways
}
