package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/arbscan/arbscan/internal/domain"
)

// AggregatorConfig configures the per-instrument quote fan-out.
type AggregatorConfig struct {
	// RequestTimeout bounds each individual venue quote request. An expired
	// request is cancelled and counted as a failure so one unresponsive venue
	// cannot stall the whole instrument.
	RequestTimeout time.Duration

	// MaxRetries is the number of additional attempts after a failed quote
	// fetch. Zero disables retries.
	MaxRetries int

	// RetryBackoff is the delay before the first retry; it doubles per
	// attempt.
	RetryBackoff time.Duration

	// MaxInFlight caps the total number of venue requests in flight across
	// all instruments sharing this aggregator.
	MaxInFlight int64

	// QuoteCache, when non-nil, is consulted before fetching and updated
	// after a successful fetch.
	QuoteCache domain.QuoteCache
	CacheTTL   time.Duration

	Logger *slog.Logger
}

// Aggregator queries all of an instrument's venues concurrently and reduces
// the successful quotes to a min/max pair by price. It is shared across
// instruments so the in-flight ceiling applies scan-wide.
type Aggregator struct {
	timeout  time.Duration
	retries  int
	backoff  time.Duration
	sem      *semaphore.Weighted
	cache    domain.QuoteCache
	cacheTTL time.Duration
	logger   *slog.Logger
}

// NewAggregator creates an Aggregator. Zero config fields fall back to
// conservative defaults.
func NewAggregator(cfg AggregatorConfig) *Aggregator {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 250 * time.Millisecond
	}
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = 32
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Aggregator{
		timeout:  cfg.RequestTimeout,
		retries:  cfg.MaxRetries,
		backoff:  cfg.RetryBackoff,
		sem:      semaphore.NewWeighted(cfg.MaxInFlight),
		cache:    cfg.QuoteCache,
		cacheTTL: cfg.CacheTTL,
		logger:   cfg.Logger.With(slog.String("component", "aggregator")),
	}
}

// Aggregate issues one quote request per gateway concurrently, joins on all
// of them, and reduces the valid quotes to a min/max pair. A request that
// fails or returns no usable price contributes nothing; only a fully empty
// result set is an error (domain.ErrNoQuotes). Cancelling ctx propagates to
// every in-flight request.
func (a *Aggregator) Aggregate(ctx context.Context, gateways []domain.VenueGateway, instrument string) (domain.QuotePair, error) {
	results := make([]*domain.Quote, len(gateways))

	g, gctx := errgroup.WithContext(ctx)
	for i, gw := range gateways {
		i, gw := i, gw
		g.Go(func() error {
			if err := a.sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer a.sem.Release(1)

			q, err := a.fetchQuote(gctx, gw, instrument)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				fe := &domain.QuoteFetchError{VenueID: gw.Name(), Instrument: instrument, Err: err}
				a.logger.Warn("quote fetch failed",
					slog.String("venue", gw.Name()),
					slog.String("instrument", instrument),
					slog.String("error", fe.Err.Error()),
				)
				return nil
			}
			results[i] = &q
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.QuotePair{}, err
	}

	pair, ok := reducePair(results)
	if !ok {
		a.logger.Debug("no valid quotes", slog.String("instrument", instrument))
		return domain.QuotePair{}, fmt.Errorf("%s: %w", instrument, domain.ErrNoQuotes)
	}

	a.logger.Debug("selected quote pair",
		slog.String("instrument", instrument),
		slog.String("min_venue", pair.Min.VenueName),
		slog.Float64("min_price", pair.Min.Price),
		slog.String("max_venue", pair.Max.VenueName),
		slog.Float64("max_price", pair.Max.Price),
	)
	return pair, nil
}

// fetchQuote performs one venue request with the per-request timeout and the
// bounded retry/backoff policy. A quote without a usable price counts as a
// failed attempt.
func (a *Aggregator) fetchQuote(ctx context.Context, gw domain.VenueGateway, instrument string) (domain.Quote, error) {
	if a.cache != nil {
		if q, err := a.cache.GetQuote(ctx, gw.Name(), instrument); err == nil && q.Valid() {
			return q, nil
		} else if err != nil && !errors.Is(err, domain.ErrNotFound) {
			a.logger.Debug("quote cache read failed", slog.String("error", err.Error()))
		}
	}

	var lastErr error
	backoff := a.backoff
	for attempt := 0; attempt <= a.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return domain.Quote{}, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		qctx, cancel := context.WithTimeout(ctx, a.timeout)
		q, err := gw.FetchQuote(qctx, instrument)
		cancel()

		if err == nil && !q.Valid() {
			err = fmt.Errorf("no usable price for %s", instrument)
		}
		if err == nil {
			if a.cache != nil {
				if cerr := a.cache.SetQuote(ctx, gw.Name(), instrument, q, a.cacheTTL); cerr != nil {
					a.logger.Debug("quote cache write failed", slog.String("error", cerr.Error()))
				}
			}
			return q, nil
		}

		lastErr = err
		if ctx.Err() != nil {
			return domain.Quote{}, ctx.Err()
		}
	}
	return domain.Quote{}, lastErr
}

// reducePair selects min-by-price and max-by-price via a stable linear scan:
// on ties the quote issued first wins.
func reducePair(results []*domain.Quote) (domain.QuotePair, bool) {
	var pair domain.QuotePair
	found := false
	for _, q := range results {
		if q == nil {
			continue
		}
		if !found {
			pair.Min, pair.Max = *q, *q
			found = true
			continue
		}
		if q.Price < pair.Min.Price {
			pair.Min = *q
		}
		if q.Price > pair.Max.Price {
			pair.Max = *q
		}
	}
	return pair, found
}
