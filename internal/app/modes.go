package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/arbscan/arbscan/internal/domain"
	"github.com/arbscan/arbscan/internal/report"
	"github.com/arbscan/arbscan/internal/scan"
	"github.com/arbscan/arbscan/internal/server"
	"github.com/arbscan/arbscan/internal/server/handler"
	"github.com/arbscan/arbscan/internal/venue"
)

// signalChannel is the bus channel run summaries are published on in watch
// mode.
const signalChannel = "arbscan:runs"

// runSignal is the payload published to the signal bus after each watch-mode
// scan completes.
type runSignal struct {
	RunID         string    `json:"run_id"`
	CompletedAt   time.Time `json:"completed_at"`
	Opportunities int       `json:"opportunities"`
	TopInstrument string    `json:"top_instrument,omitempty"`
	TopProfit     float64   `json:"top_profit,omitempty"`
}

// CollectMode discovers supported instruments on every configured venue,
// merges them into a catalog, and persists it. This is the one-shot catalog
// refresh; scan and watch modes consume its output.
func (a *App) CollectMode(ctx context.Context, deps *Dependencies) error {
	cache := venue.NewCache(deps.Registry, a.logger)
	defer cache.Close()

	collector := scan.NewCollector(cache, deps.Registry.VenueIDs(), a.logger)
	catalog, err := collector.Collect(ctx)
	if err != nil {
		return fmt.Errorf("app: collect: %w", err)
	}

	if err := deps.CatalogStore.Save(ctx, catalog); err != nil {
		return fmt.Errorf("app: save catalog: %w", err)
	}

	a.logger.InfoContext(ctx, "catalog collected",
		slog.Int("instruments", catalog.Len()),
		slog.Int("venues", len(deps.Registry.VenueIDs())),
	)
	return nil
}

// ScanMode runs a single scan over the persisted catalog, writes the report,
// and exits.
func (a *App) ScanMode(ctx context.Context, deps *Dependencies) error {
	r, runID, err := a.runScan(ctx, deps)
	if err != nil {
		return err
	}
	a.alert(ctx, deps, runID, r.Opportunities())
	return nil
}

// WatchMode scans on a fixed interval until the context is cancelled. Each
// completed run is published on the signal bus (when Redis is enabled) and,
// when the HTTP server is enabled, served from the /api endpoints.
func (a *App) WatchMode(ctx context.Context, deps *Dependencies) error {
	latest := &report.Latest{}

	g, ctx := errgroup.WithContext(ctx)

	if a.cfg.Server.Enabled {
		srv := server.NewServer(
			server.Config{
				Port:        a.cfg.Server.Port,
				CORSOrigins: a.cfg.Server.CORSOrigins,
			},
			server.Handlers{
				Health:        handler.NewHealthHandler(),
				Opportunities: handler.NewOpportunitiesHandler(latest),
				Status:        handler.NewStatusHandler(a.cfg.Mode, a.cfg.Scan.RankStrategy, latest),
			},
			a.logger,
		)
		g.Go(srv.Start)
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	// With Redis enabled, alerts are driven by the signal bus so external
	// publishers can trigger them too. Without it, the scan loop alerts
	// directly.
	if deps.SignalBus != nil {
		g.Go(func() error {
			ch, err := deps.SignalBus.Subscribe(ctx, signalChannel)
			if err != nil {
				return fmt.Errorf("app: subscribe %s: %w", signalChannel, err)
			}
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case _, ok := <-ch:
					if !ok {
						return nil
					}
					if r, runID, _, ok := latest.Get(); ok {
						a.alert(ctx, deps, runID, r.Opportunities())
					}
				}
			}
		})
	}

	g.Go(func() error {
		ticker := time.NewTicker(a.cfg.Scan.Interval.Duration)
		defer ticker.Stop()

		for {
			r, runID, err := a.runScan(ctx, deps)
			if err != nil {
				// Catalog loss and cancellation end the watch; anything
				// else is already contained inside the scan.
				if deps.Notifier != nil && ctx.Err() == nil {
					if nerr := deps.Notifier.Error(ctx, runID, err); nerr != nil {
						a.logger.WarnContext(ctx, "alert delivery failed",
							slog.String("error", nerr.Error()),
						)
					}
				}
				return err
			}
			latest.Set(r, runID)

			if deps.SignalBus != nil {
				a.publishRun(ctx, deps, r, runID)
			} else {
				a.alert(ctx, deps, runID, r.Opportunities())
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}
	})

	err := g.Wait()
	if err != nil && ctx.Err() != nil {
		// Normal shutdown path.
		return nil
	}
	return err
}

// runScan loads the catalog, runs one full scan, and writes and archives the
// resulting report. The run ID comes back even on failure so error alerts
// can reference the run.
func (a *App) runScan(ctx context.Context, deps *Dependencies) (*report.Report, string, error) {
	runID := uuid.NewString()
	logger := a.logger.With(slog.String("run_id", runID))
	started := time.Now()

	catalog, err := deps.CatalogStore.Load(ctx)
	if err != nil {
		return nil, runID, fmt.Errorf("app: load catalog: %w", err)
	}

	// Gateways are scoped to one run: a venue that failed to initialize
	// stays failed for this run only.
	cache := venue.NewCache(deps.Registry, logger)
	defer cache.Close()

	strategy, err := scan.ParseRankStrategy(a.cfg.Scan.RankStrategy)
	if err != nil {
		return nil, runID, fmt.Errorf("app: %w", err)
	}

	agg := scan.NewAggregator(scan.AggregatorConfig{
		RequestTimeout: a.cfg.Scan.RequestTimeout.Duration,
		MaxRetries:     a.cfg.Scan.MaxRetries,
		RetryBackoff:   a.cfg.Scan.RetryBackoff.Duration,
		MaxInFlight:    int64(a.cfg.Scan.MaxInFlight),
		QuoteCache:     deps.QuoteCache,
		CacheTTL:       a.cfg.Redis.QuoteTTL.Duration,
		Logger:         logger,
	})

	scanner := scan.NewScanner(scan.ScannerConfig{
		Resolver:    cache,
		Aggregator:  agg,
		TradeAmount: a.cfg.Scan.TradeAmount,
		Strategy:    strategy,
		Logger:      logger,
	})

	opps, err := scanner.Scan(ctx, catalog, scan.FilterOptions{
		BaseCurrencies:     a.cfg.Filter.BaseCurrencies,
		MinVenueCount:      a.cfg.Filter.MinVenueCount,
		RequiredSubstrings: a.cfg.Filter.RequiredSubstrings,
		AllowHyphenated:    a.cfg.Filter.AllowHyphenated,
		AllowLeveraged:     a.cfg.Filter.AllowLeveraged,
	})
	if err != nil {
		return nil, runID, fmt.Errorf("app: scan: %w", err)
	}

	r := report.New(opps)

	path, err := report.NewFileWriter(a.cfg.Scan.ReportDir).Write(r)
	if err != nil {
		return nil, runID, fmt.Errorf("app: write report: %w", err)
	}

	if deps.BlobWriter != nil {
		archiver := report.NewArchiver(deps.BlobWriter, a.cfg.S3.KeyPrefix, logger)
		if err := archiver.Archive(ctx, r, runID); err != nil {
			// Archival is best-effort; the local report already exists.
			logger.WarnContext(ctx, "report archival failed",
				slog.String("error", err.Error()),
			)
		}
	}

	logger.InfoContext(ctx, "scan completed",
		slog.Int("opportunities", r.Len()),
		slog.String("report", path),
		slog.Duration("elapsed", time.Since(started)),
	)

	return r, runID, nil
}

// alert notifies configured channels about the most profitable opportunities
// of a run. Notification failures are logged, never fatal.
func (a *App) alert(ctx context.Context, deps *Dependencies, runID string, opps []domain.Opportunity) {
	if deps.Notifier == nil {
		return
	}
	if err := deps.Notifier.ScanComplete(ctx, runID, opps); err != nil {
		a.logger.WarnContext(ctx, "alert delivery failed",
			slog.String("run_id", runID),
			slog.String("error", err.Error()),
		)
	}
}

// publishRun pushes a compact run summary onto the signal bus so external
// consumers can react to fresh results without polling the HTTP API.
func (a *App) publishRun(ctx context.Context, deps *Dependencies, r *report.Report, runID string) {
	if deps.SignalBus == nil {
		return
	}

	sig := runSignal{
		RunID:         runID,
		CompletedAt:   time.Now().UTC(),
		Opportunities: r.Len(),
	}
	if opps := r.Opportunities(); len(opps) > 0 {
		sig.TopInstrument = opps[0].Instrument
		sig.TopProfit = opps[0].Profit
	}

	payload, err := json.Marshal(sig)
	if err != nil {
		a.logger.ErrorContext(ctx, "marshal run signal",
			slog.String("error", err.Error()),
		)
		return
	}
	if err := deps.SignalBus.Publish(ctx, signalChannel, payload); err != nil {
		a.logger.WarnContext(ctx, "publish run signal failed",
			slog.String("error", err.Error()),
		)
	}
}
