package scan

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbscan/arbscan/internal/domain"
)

// staticResolver maps venue IDs to fixed gateways; unknown IDs fail with a
// VenueInitError like the real cache does.
func staticResolver(gateways map[string]domain.VenueGateway) *mockResolver {
	return &mockResolver{
		resolveFn: func(_ context.Context, venueID string) (domain.VenueGateway, error) {
			gw, ok := gateways[venueID]
			if !ok {
				return nil, &domain.VenueInitError{VenueID: venueID, Err: domain.ErrNotFound}
			}

			return gw, nil
		},
	}
}

func TestScanner_Scan(t *testing.T) {
	t.Parallel()

	t.Run("ranked opportunities across venues", func(t *testing.T) {
		t.Parallel()

		resolver := staticResolver(map[string]domain.VenueGateway{
			"binance": priceGateway("Binance", 100),
			"kraken":  priceGateway("Kraken", 105),
		})
		scanner := NewScanner(ScannerConfig{
			Resolver:   resolver,
			Aggregator: NewAggregator(AggregatorConfig{}),
		})

		c := catalogOf(t, map[string][]string{
			"BTC/USDT": {"binance", "kraken"},
		}, "BTC/USDT")

		opps, err := scanner.Scan(context.Background(), c, DefaultFilterOptions())

		require.NoError(t, err)
		require.Len(t, opps, 1)

		o := opps[0]
		assert.Equal(t, "BTC/USDT", o.Instrument)
		assert.Equal(t, "Binance", o.Min.VenueName)
		assert.Equal(t, "Kraken", o.Max.VenueName)
		// No fees configured: profit is the raw spread.
		assert.InDelta(t, 5, o.Profit, 1e-12)
		assert.Equal(t, o.Profit, o.Diff)
		assert.InDelta(t, (5.0/105)*100, o.Ratio, 1e-12)
	})

	t.Run("dead venue degrades to single quote", func(t *testing.T) {
		t.Parallel()

		resolver := staticResolver(map[string]domain.VenueGateway{
			"binance": priceGateway("Binance", 100),
			// "kraken" is absent and fails initialization.
		})
		scanner := NewScanner(ScannerConfig{
			Resolver:   resolver,
			Aggregator: NewAggregator(AggregatorConfig{}),
		})

		c := catalogOf(t, map[string][]string{
			"BTC/USDT": {"binance", "kraken"},
		}, "BTC/USDT")

		opps, err := scanner.Scan(context.Background(), c, DefaultFilterOptions())

		require.NoError(t, err)
		require.Len(t, opps, 1)

		o := opps[0]
		assert.Equal(t, o.Min, o.Max)
		assert.Zero(t, o.Profit)
	})

	t.Run("instrument without usable quotes is omitted", func(t *testing.T) {
		t.Parallel()

		resolver := staticResolver(map[string]domain.VenueGateway{
			"binance": priceGateway("Binance", 0),
			"kraken":  priceGateway("Kraken", 0),
		})
		scanner := NewScanner(ScannerConfig{
			Resolver:   resolver,
			Aggregator: NewAggregator(AggregatorConfig{}),
		})

		c := catalogOf(t, map[string][]string{
			"DEAD/USDT": {"binance", "kraken"},
		}, "DEAD/USDT")

		opps, err := scanner.Scan(context.Background(), c, DefaultFilterOptions())

		require.NoError(t, err)
		assert.Empty(t, opps)
	})

	t.Run("ordering follows the strategy", func(t *testing.T) {
		t.Parallel()

		resolver := staticResolver(map[string]domain.VenueGateway{
			"low": &mockGateway{
				nameFn: func() string { return "Low" },
				fetchFn: func(_ context.Context, instrument string) (domain.Quote, error) {
					prices := map[string]float64{
						"AAA/USDT": 100,
						"BBB/USDT": 10,
					}

					return domain.Quote{VenueName: "Low", Price: prices[instrument]}, nil
				},
			},
			"high": &mockGateway{
				nameFn: func() string { return "High" },
				fetchFn: func(_ context.Context, instrument string) (domain.Quote, error) {
					prices := map[string]float64{
						"AAA/USDT": 101, // 1% spread
						"BBB/USDT": 11,  // 10% spread
					}

					return domain.Quote{VenueName: "High", Price: prices[instrument]}, nil
				},
			},
		})
		scanner := NewScanner(ScannerConfig{
			Resolver:   resolver,
			Aggregator: NewAggregator(AggregatorConfig{}),
			Strategy:   RankBySpread,
		})

		c := catalogOf(t, map[string][]string{
			"AAA/USDT": {"low", "high"},
			"BBB/USDT": {"low", "high"},
		}, "AAA/USDT", "BBB/USDT")

		opps, err := scanner.Scan(context.Background(), c, DefaultFilterOptions())

		require.NoError(t, err)
		require.Len(t, opps, 2)
		assert.Equal(t, "BBB/USDT", opps[0].Instrument)
	})

	t.Run("cancelled context aborts the scan", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		scanner := NewScanner(ScannerConfig{
			Resolver:   staticResolver(nil),
			Aggregator: NewAggregator(AggregatorConfig{}),
		})

		c := catalogOf(t, map[string][]string{
			"BTC/USDT": {"binance", "kraken"},
		}, "BTC/USDT")

		_, err := scanner.Scan(ctx, c, DefaultFilterOptions())

		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestCollector_Collect(t *testing.T) {
	t.Parallel()

	t.Run("merges listings in venue order", func(t *testing.T) {
		t.Parallel()

		resolver := staticResolver(map[string]domain.VenueGateway{
			"binance": &mockGateway{
				loadFn: func(_ context.Context) ([]string, error) {
					return []string{"BTC/USDT", "ETH/USDT"}, nil
				},
			},
			"kraken": &mockGateway{
				loadFn: func(_ context.Context) ([]string, error) {
					return []string{"BTC/USDT", "SOL/USDT"}, nil
				},
			},
		})

		collector := NewCollector(resolver, []string{"binance", "kraken"}, nil)
		c, err := collector.Collect(context.Background())

		require.NoError(t, err)
		assert.Equal(t, []string{"BTC/USDT", "ETH/USDT", "SOL/USDT"}, c.Instruments())
		assert.Equal(t, []string{"binance", "kraken"}, c.Venues("BTC/USDT"))
		assert.Equal(t, []string{"binance"}, c.Venues("ETH/USDT"))
	})

	t.Run("failing venue is skipped", func(t *testing.T) {
		t.Parallel()

		resolver := staticResolver(map[string]domain.VenueGateway{
			"kraken": &mockGateway{
				loadFn: func(_ context.Context) ([]string, error) {
					return []string{"BTC/USDT"}, nil
				},
			},
		})

		collector := NewCollector(resolver, []string{"binance", "kraken"}, nil)
		c, err := collector.Collect(context.Background())

		require.NoError(t, err)
		assert.Equal(t, []string{"kraken"}, c.Venues("BTC/USDT"))
	})

	t.Run("cancelled context aborts collection", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		collector := NewCollector(staticResolver(nil), []string{"binance"}, nil)
		_, err := collector.Collect(ctx)

		assert.ErrorIs(t, err, context.Canceled)
	})
}
