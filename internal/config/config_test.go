package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	t.Run("defaults are valid", func(t *testing.T) {
		t.Parallel()

		cfg := Defaults()

		assert.NoError(t, cfg.Validate())
	})

	t.Run("unknown mode", func(t *testing.T) {
		t.Parallel()

		cfg := Defaults()
		cfg.Mode = "simulate"

		assert.ErrorContains(t, cfg.Validate(), "unknown mode")
	})

	t.Run("unknown rank strategy", func(t *testing.T) {
		t.Parallel()

		cfg := Defaults()
		cfg.Scan.RankStrategy = "alphabetical"

		assert.ErrorContains(t, cfg.Validate(), "rank_strategy")
	})

	t.Run("watch mode needs a positive interval", func(t *testing.T) {
		t.Parallel()

		cfg := Defaults()
		cfg.Mode = "watch"
		cfg.Scan.Interval = duration{}

		assert.ErrorContains(t, cfg.Validate(), "interval")
	})

	t.Run("unknown catalog backend", func(t *testing.T) {
		t.Parallel()

		cfg := Defaults()
		cfg.Catalog.Backend = "sqlite"

		assert.ErrorContains(t, cfg.Validate(), "unknown backend")
	})

	t.Run("postgres backend needs a target", func(t *testing.T) {
		t.Parallel()

		cfg := Defaults()
		cfg.Catalog.Backend = "postgres"
		cfg.Postgres.DSN = ""
		cfg.Postgres.Host = ""

		assert.ErrorContains(t, cfg.Validate(), "dsn or host")
	})

	t.Run("venues are required", func(t *testing.T) {
		t.Parallel()

		cfg := Defaults()
		cfg.Venues = nil

		assert.ErrorContains(t, cfg.Validate(), "at least one venue")
	})

	t.Run("streaming venue needs ws url", func(t *testing.T) {
		t.Parallel()

		cfg := Defaults()
		v := cfg.Venues["bitget"]
		v.WSURL = ""
		cfg.Venues["bitget"] = v

		assert.ErrorContains(t, cfg.Validate(), "ws_url")
	})

	t.Run("telegram credentials pair up", func(t *testing.T) {
		t.Parallel()

		cfg := Defaults()
		cfg.Notify.TelegramToken = "token-only"

		assert.ErrorContains(t, cfg.Validate(), "telegram")
	})

	t.Run("s3 needs a bucket when enabled", func(t *testing.T) {
		t.Parallel()

		cfg := Defaults()
		cfg.S3.Enabled = true
		cfg.S3.Bucket = ""

		assert.ErrorContains(t, cfg.Validate(), "bucket")
	})

	t.Run("errors aggregate", func(t *testing.T) {
		t.Parallel()

		cfg := Defaults()
		cfg.Mode = "bogus"
		cfg.LogLevel = "loud"

		err := cfg.Validate()

		require.Error(t, err)
		assert.ErrorContains(t, err, "unknown mode")
		assert.ErrorContains(t, err, "log_level")
	})
}

func TestLoad(t *testing.T) {
	t.Run("toml overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		require.NoError(t, os.WriteFile(path, []byte(`
mode = "watch"

[scan]
trade_amount = 2.5
rank_strategy = "spread"
interval = "90s"

[venues.binance]
family = "binance"
base_url = "https://api.binance.example"
`), 0o644))

		cfg, err := Load(path)

		require.NoError(t, err)
		assert.Equal(t, "watch", cfg.Mode)
		assert.Equal(t, 2.5, cfg.Scan.TradeAmount)
		assert.Equal(t, "spread", cfg.Scan.RankStrategy)
		assert.Equal(t, 90*time.Second, cfg.Scan.Interval.Duration)

		// Untouched fields keep their defaults.
		assert.Equal(t, "file", cfg.Catalog.Backend)
		assert.Equal(t, 10*time.Second, cfg.Scan.RequestTimeout.Duration)
	})

	t.Run("missing file fails", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))

		assert.Error(t, err)
	})

	t.Run("env overrides win", func(t *testing.T) {
		t.Setenv("ARBSCAN_MODE", "collect")
		t.Setenv("ARBSCAN_SCAN_MAX_RETRIES", "7")
		t.Setenv("ARBSCAN_SCAN_RETRY_BACKOFF", "750ms")
		t.Setenv("ARBSCAN_FILTER_BASE_CURRENCIES", "USDT, EUR")
		t.Setenv("ARBSCAN_REDIS_ENABLED", "true")

		path := filepath.Join(t.TempDir(), "config.toml")
		require.NoError(t, os.WriteFile(path, []byte(`mode = "scan"`), 0o644))

		cfg, err := Load(path)

		require.NoError(t, err)
		assert.Equal(t, "collect", cfg.Mode)
		assert.Equal(t, 7, cfg.Scan.MaxRetries)
		assert.Equal(t, 750*time.Millisecond, cfg.Scan.RetryBackoff.Duration)
		assert.Equal(t, []string{"USDT", "EUR"}, cfg.Filter.BaseCurrencies)
		assert.True(t, cfg.Redis.Enabled)
	})
}

func TestRedactedConfig(t *testing.T) {
	t.Parallel()

	cfg := Defaults()
	cfg.Postgres.Password = "hunter2"
	cfg.Redis.Password = "hunter2"
	cfg.S3.SecretKey = "hunter2"
	cfg.Notify.TelegramToken = "123:hunter2"
	cfg.Notify.TelegramChatID = "42"

	redacted := RedactedConfig(&cfg)

	assert.Equal(t, "***", redacted.Postgres.Password)
	assert.Equal(t, "***", redacted.Redis.Password)
	assert.Equal(t, "***", redacted.S3.SecretKey)
	assert.Equal(t, "***", redacted.Notify.TelegramToken)

	// The original is untouched.
	assert.Equal(t, "hunter2", cfg.Postgres.Password)
}
