package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/arbscan/arbscan/internal/blob/s3"
	"github.com/arbscan/arbscan/internal/cache/redis"
	"github.com/arbscan/arbscan/internal/catalog"
	"github.com/arbscan/arbscan/internal/config"
	"github.com/arbscan/arbscan/internal/domain"
	"github.com/arbscan/arbscan/internal/notify"
	"github.com/arbscan/arbscan/internal/store/postgres"
	"github.com/arbscan/arbscan/internal/venue"
)

// Dependencies bundles everything the application modes need to operate. It
// is constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	CatalogStore domain.CatalogStore
	Registry     *venue.Registry

	// Optional, nil when the backing service is disabled.
	QuoteCache domain.QuoteCache
	SignalBus  domain.SignalBus
	BlobWriter domain.BlobWriter

	Notifier *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function to be
// called on shutdown.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Catalog storage ---
	switch cfg.Catalog.Backend {
	case "postgres":
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		store := postgres.NewCatalogStore(pgClient.Pool())
		if err := store.EnsureSchema(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres schema: %w", err)
		}
		deps.CatalogStore = store
	default:
		deps.CatalogStore = catalog.NewFileStore(cfg.Catalog.Path)
	}

	// --- Redis (quote cache + signal bus) ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, redisClient.Close)

		deps.QuoteCache = redis.NewQuoteCache(redisClient)
		deps.SignalBus = redis.NewSignalBus(redisClient)
	}

	// --- S3 (report archival) ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		if err := s3Client.Health(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		deps.BlobWriter = s3blob.NewWriter(s3Client)
	}

	// --- Venue registry ---
	venueCfgs := make(map[string]venue.Config, len(cfg.Venues))
	for id, v := range cfg.Venues {
		venueCfgs[id] = venue.Config{
			Family:       v.Family,
			Name:         v.Name,
			BaseURL:      v.BaseURL,
			WSURL:        v.WSURL,
			IsDex:        v.IsDex,
			TakerFee:     v.TakerFee,
			MakerFee:     v.MakerFee,
			WithdrawFees: v.WithdrawFees,
		}
	}
	deps.Registry = venue.NewRegistry(venueCfgs)

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, notify.Config{
		Events:    cfg.Notify.Events,
		MinProfit: cfg.Notify.MinProfit,
		TopN:      cfg.Notify.TopN,
	}, logger)

	return deps, cleanup, nil
}
