// Package config defines the top-level configuration for the arbitrage
// scanner and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by ARBSCAN_* environment
// variables.
type Config struct {
	Scan     ScanConfig             `toml:"scan"`
	Filter   FilterConfig           `toml:"filter"`
	Catalog  CatalogConfig          `toml:"catalog"`
	Postgres PostgresConfig         `toml:"postgres"`
	Redis    RedisConfig            `toml:"redis"`
	S3       S3Config               `toml:"s3"`
	Server   ServerConfig           `toml:"server"`
	Notify   NotifyConfig           `toml:"notify"`
	Venues   map[string]VenueConfig `toml:"venues"`
	Mode     string                 `toml:"mode"`
	LogLevel string                 `toml:"log_level"`
}

// ScanConfig holds scan engine parameters.
type ScanConfig struct {
	// TradeAmount is the reference amount fed to the fee model.
	TradeAmount float64 `toml:"trade_amount"`

	// RankStrategy selects ratio formula and ordering: "spread",
	// "profit_share", or "profit".
	RankStrategy string `toml:"rank_strategy"`

	// RequestTimeout bounds each venue quote request.
	RequestTimeout duration `toml:"request_timeout"`

	// MaxRetries is the number of retries after a failed quote fetch.
	MaxRetries int `toml:"max_retries"`

	// RetryBackoff is the initial retry delay; it doubles per attempt.
	RetryBackoff duration `toml:"retry_backoff"`

	// MaxInFlight caps concurrent venue requests across the whole scan.
	MaxInFlight int `toml:"max_in_flight"`

	// Interval is the pause between scans in watch mode.
	Interval duration `toml:"interval"`

	// ReportDir is where finished reports are written.
	ReportDir string `toml:"report_dir"`
}

// FilterConfig holds instrument eligibility parameters.
type FilterConfig struct {
	BaseCurrencies     []string `toml:"base_currencies"`
	MinVenueCount      int      `toml:"min_venue_count"`
	RequiredSubstrings []string `toml:"required_substrings"`
	AllowHyphenated    bool     `toml:"allow_hyphenated"`
	AllowLeveraged     bool     `toml:"allow_leveraged"`
}

// CatalogConfig selects where the instrument catalog is persisted.
type CatalogConfig struct {
	// Backend is "file" or "postgres".
	Backend string `toml:"backend"`

	// Path is the catalog file location for the file backend.
	Path string `toml:"path"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN          string `toml:"dsn"`
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	Database     string `toml:"database"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	SSLMode      string `toml:"ssl_mode"`
	PoolMaxConns int    `toml:"pool_max_conns"`
	PoolMinConns int    `toml:"pool_min_conns"`
}

// RedisConfig holds Redis connection parameters for the quote cache and
// signal bus.
type RedisConfig struct {
	Enabled    bool     `toml:"enabled"`
	Addr       string   `toml:"addr"`
	Password   string   `toml:"password"`
	DB         int      `toml:"db"`
	PoolSize   int      `toml:"pool_size"`
	MaxRetries int      `toml:"max_retries"`
	TLSEnabled bool     `toml:"tls_enabled"`
	QuoteTTL   duration `toml:"quote_ttl"`
}

// S3Config holds S3-compatible object storage parameters for report
// archival.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
	KeyPrefix      string `toml:"key_prefix"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// NotifyConfig holds notification channel credentials and alert thresholds.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`

	// MinProfit is the fee-adjusted profit an opportunity must exceed to be
	// included in alerts.
	MinProfit float64 `toml:"min_profit"`

	// TopN caps how many opportunities one alert lists.
	TopN int `toml:"top_n"`
}

// VenueConfig describes one venue the scanner can talk to.
type VenueConfig struct {
	Family       string             `toml:"family"`
	Name         string             `toml:"name"`
	BaseURL      string             `toml:"base_url"`
	WSURL        string             `toml:"ws_url"`
	IsDex        bool               `toml:"is_dex"`
	TakerFee     float64            `toml:"taker_fee"`
	MakerFee     float64            `toml:"maker_fee"`
	WithdrawFees map[string]float64 `toml:"withdraw_fees"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Scan: ScanConfig{
			TradeAmount:    1,
			RankStrategy:   "profit_share",
			RequestTimeout: duration{10 * time.Second},
			MaxRetries:     2,
			RetryBackoff:   duration{250 * time.Millisecond},
			MaxInFlight:    32,
			Interval:       duration{5 * time.Minute},
			ReportDir:      "reports",
		},
		Filter: FilterConfig{
			BaseCurrencies: []string{"USDC", "USDT"},
			MinVenueCount:  1,
		},
		Catalog: CatalogConfig{
			Backend: "file",
			Path:    "symbols.json",
		},
		Postgres: PostgresConfig{
			Host:         "localhost",
			Port:         5432,
			Database:     "arbscan",
			User:         "postgres",
			SSLMode:      "disable",
			PoolMaxConns: 10,
			PoolMinConns: 2,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			PoolSize:   20,
			MaxRetries: 3,
			QuoteTTL:   duration{30 * time.Second},
		},
		S3: S3Config{
			Region:         "us-east-1",
			Bucket:         "arbscan-reports",
			ForcePathStyle: true,
			KeyPrefix:      "scans",
		},
		Server: ServerConfig{
			Enabled: false,
			Port:    8000,
		},
		Notify: NotifyConfig{
			Events:    []string{"scan_complete", "error"},
			MinProfit: 0,
			TopN:      10,
		},
		Venues: map[string]VenueConfig{
			"binance": {
				Family:  "binance",
				Name:    "Binance",
				BaseURL: "https://api.binance.com",
			},
			"kraken": {
				Family:  "kraken",
				Name:    "Kraken",
				BaseURL: "https://api.kraken.com",
			},
			"gateio": {
				Family:  "gateio",
				Name:    "Gate.io",
				BaseURL: "https://api.gateio.ws",
			},
			"bitget": {
				Family:  "bitget_ws",
				Name:    "Bitget",
				BaseURL: "https://api.bitget.com",
				WSURL:   "wss://ws.bitget.com/v2/ws/public",
			},
		},
		Mode:     "scan",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"collect": true,
	"scan":    true,
	"watch":   true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validFamilies enumerates the known venue adapter families.
var validFamilies = map[string]bool{
	"binance":   true,
	"kraken":    true,
	"gateio":    true,
	"bitget_ws": true,
}

// Validate checks the configuration for inconsistencies and returns a single
// error aggregating every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: collect, scan, watch)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	switch c.Scan.RankStrategy {
	case "spread", "profit_share", "profit":
	default:
		errs = append(errs, fmt.Sprintf("scan: unknown rank_strategy %q (valid: spread, profit_share, profit)", c.Scan.RankStrategy))
	}
	if c.Scan.TradeAmount <= 0 {
		errs = append(errs, "scan: trade_amount must be positive")
	}
	if c.Scan.MaxRetries < 0 {
		errs = append(errs, "scan: max_retries must not be negative")
	}
	if c.Scan.MaxInFlight < 1 {
		errs = append(errs, "scan: max_in_flight must be at least 1")
	}
	if c.Mode == "watch" && c.Scan.Interval.Duration <= 0 {
		errs = append(errs, "scan: interval must be positive in watch mode")
	}

	if c.Filter.MinVenueCount < 1 {
		errs = append(errs, "filter: min_venue_count must be at least 1")
	}

	switch c.Catalog.Backend {
	case "file":
		if c.Catalog.Path == "" {
			errs = append(errs, "catalog: path is required for the file backend")
		}
	case "postgres":
		if c.Postgres.DSN == "" && c.Postgres.Host == "" {
			errs = append(errs, "catalog: postgres backend requires a dsn or host")
		}
	default:
		errs = append(errs, fmt.Sprintf("catalog: unknown backend %q (valid: file, postgres)", c.Catalog.Backend))
	}

	if len(c.Venues) == 0 {
		errs = append(errs, "venues: at least one venue must be configured")
	}
	for id, v := range c.Venues {
		if !validFamilies[v.Family] {
			errs = append(errs, fmt.Sprintf("venues.%s: unknown family %q", id, v.Family))
			continue
		}
		if v.BaseURL == "" {
			errs = append(errs, fmt.Sprintf("venues.%s: base_url is required", id))
		}
		if v.Family == "bitget_ws" && v.WSURL == "" {
			errs = append(errs, fmt.Sprintf("venues.%s: ws_url is required for streaming venues", id))
		}
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket is required when enabled")
		}
		if c.S3.Region == "" {
			errs = append(errs, "s3: region is required when enabled")
		}
	}

	if c.Server.Enabled && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		errs = append(errs, fmt.Sprintf("server: invalid port %d", c.Server.Port))
	}

	// Telegram requires both the token and the chat ID.
	tt := c.Notify.TelegramToken != ""
	tc := c.Notify.TelegramChatID != ""
	if tt != tc {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}
