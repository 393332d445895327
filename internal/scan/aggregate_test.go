package scan

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbscan/arbscan/internal/domain"
)

func priceGateway(name string, price float64) *mockGateway {
	return &mockGateway{
		nameFn: func() string {
			return name
		},
		fetchFn: func(_ context.Context, _ string) (domain.Quote, error) {
			return domain.Quote{VenueName: name, Price: price}, nil
		},
	}
}

func TestAggregator_Aggregate(t *testing.T) {
	t.Parallel()

	t.Run("selects min and max by price", func(t *testing.T) {
		t.Parallel()

		agg := NewAggregator(AggregatorConfig{})
		gateways := []domain.VenueGateway{
			priceGateway("mid", 102),
			priceGateway("low", 100),
			priceGateway("high", 105),
		}

		pair, err := agg.Aggregate(context.Background(), gateways, "BTC/USDT")

		require.NoError(t, err)
		assert.Equal(t, "low", pair.Min.VenueName)
		assert.Equal(t, "high", pair.Max.VenueName)
		assert.LessOrEqual(t, pair.Min.Price, pair.Max.Price)
	})

	t.Run("first quote wins price ties", func(t *testing.T) {
		t.Parallel()

		agg := NewAggregator(AggregatorConfig{})
		gateways := []domain.VenueGateway{
			priceGateway("first", 100),
			priceGateway("second", 100),
		}

		pair, err := agg.Aggregate(context.Background(), gateways, "BTC/USDT")

		require.NoError(t, err)
		assert.Equal(t, "first", pair.Min.VenueName)
		assert.Equal(t, "first", pair.Max.VenueName)
	})

	t.Run("single surviving quote collapses to itself", func(t *testing.T) {
		t.Parallel()

		fetchErr := errors.New("venue down")
		agg := NewAggregator(AggregatorConfig{})
		gateways := []domain.VenueGateway{
			priceGateway("only", 100),
			&mockGateway{
				nameFn: func() string { return "broken" },
				fetchFn: func(_ context.Context, _ string) (domain.Quote, error) {
					return domain.Quote{}, fetchErr
				},
			},
		}

		pair, err := agg.Aggregate(context.Background(), gateways, "BTC/USDT")

		require.NoError(t, err)
		assert.Equal(t, pair.Min, pair.Max)
		assert.Equal(t, "only", pair.Min.VenueName)
	})

	t.Run("all venues failing is ErrNoQuotes", func(t *testing.T) {
		t.Parallel()

		agg := NewAggregator(AggregatorConfig{})
		gateways := []domain.VenueGateway{
			&mockGateway{
				nameFn: func() string { return "broken" },
				fetchFn: func(_ context.Context, _ string) (domain.Quote, error) {
					return domain.Quote{}, errors.New("venue down")
				},
			},
		}

		_, err := agg.Aggregate(context.Background(), gateways, "BTC/USDT")

		assert.ErrorIs(t, err, domain.ErrNoQuotes)
	})

	t.Run("unusable prices are failures", func(t *testing.T) {
		t.Parallel()

		agg := NewAggregator(AggregatorConfig{})
		gateways := []domain.VenueGateway{
			priceGateway("zero", 0),
			priceGateway("negative", -1),
		}

		_, err := agg.Aggregate(context.Background(), gateways, "BTC/USDT")

		assert.ErrorIs(t, err, domain.ErrNoQuotes)
	})

	t.Run("cancellation propagates", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		agg := NewAggregator(AggregatorConfig{RequestTimeout: time.Minute})
		gateways := []domain.VenueGateway{
			&mockGateway{
				nameFn: func() string { return "slow" },
				fetchFn: func(ctx context.Context, _ string) (domain.Quote, error) {
					cancel()
					<-ctx.Done()

					return domain.Quote{}, ctx.Err()
				},
			},
		}

		_, err := agg.Aggregate(ctx, gateways, "BTC/USDT")

		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestAggregator_Retry(t *testing.T) {
	t.Parallel()

	t.Run("retries up to the configured budget", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int64

		agg := NewAggregator(AggregatorConfig{
			MaxRetries:   2,
			RetryBackoff: time.Millisecond,
		})
		gw := &mockGateway{
			nameFn: func() string { return "flaky" },
			fetchFn: func(_ context.Context, _ string) (domain.Quote, error) {
				if calls.Add(1) < 3 {
					return domain.Quote{}, errors.New("transient")
				}

				return domain.Quote{VenueName: "flaky", Price: 42}, nil
			},
		}

		pair, err := agg.Aggregate(context.Background(), []domain.VenueGateway{gw}, "BTC/USDT")

		require.NoError(t, err)
		assert.Equal(t, int64(3), calls.Load())
		assert.Equal(t, 42.0, pair.Min.Price)
	})

	t.Run("budget exhaustion surfaces as no quotes", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int64

		agg := NewAggregator(AggregatorConfig{
			MaxRetries:   1,
			RetryBackoff: time.Millisecond,
		})
		gw := &mockGateway{
			nameFn: func() string { return "flaky" },
			fetchFn: func(_ context.Context, _ string) (domain.Quote, error) {
				calls.Add(1)

				return domain.Quote{}, errors.New("transient")
			},
		}

		_, err := agg.Aggregate(context.Background(), []domain.VenueGateway{gw}, "BTC/USDT")

		assert.ErrorIs(t, err, domain.ErrNoQuotes)
		assert.Equal(t, int64(2), calls.Load())
	})
}

func TestAggregator_Cache(t *testing.T) {
	t.Parallel()

	t.Run("cache hit skips the venue", func(t *testing.T) {
		t.Parallel()

		var fetches atomic.Int64

		cached := domain.Quote{VenueName: "binance", Price: 99}
		agg := NewAggregator(AggregatorConfig{
			QuoteCache: &mockQuoteCache{
				getFn: func(_ context.Context, _, _ string) (domain.Quote, error) {
					return cached, nil
				},
			},
			CacheTTL: time.Minute,
		})
		gw := &mockGateway{
			nameFn: func() string { return "binance" },
			fetchFn: func(_ context.Context, _ string) (domain.Quote, error) {
				fetches.Add(1)

				return domain.Quote{VenueName: "binance", Price: 100}, nil
			},
		}

		pair, err := agg.Aggregate(context.Background(), []domain.VenueGateway{gw}, "BTC/USDT")

		require.NoError(t, err)
		assert.Zero(t, fetches.Load())
		assert.Equal(t, cached, pair.Min)
	})

	t.Run("miss fetches then writes back", func(t *testing.T) {
		t.Parallel()

		var (
			wroteVenue string
			wroteTTL   time.Duration
		)

		agg := NewAggregator(AggregatorConfig{
			QuoteCache: &mockQuoteCache{
				setFn: func(_ context.Context, venueID, _ string, _ domain.Quote, ttl time.Duration) error {
					wroteVenue = venueID
					wroteTTL = ttl

					return nil
				},
			},
			CacheTTL: time.Minute,
		})
		gw := priceGateway("kraken", 101)

		_, err := agg.Aggregate(context.Background(), []domain.VenueGateway{gw}, "BTC/USDT")

		require.NoError(t, err)
		assert.Equal(t, "kraken", wroteVenue)
		assert.Equal(t, time.Minute, wroteTTL)
	})
}
