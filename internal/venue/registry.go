package venue

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/arbscan/arbscan/internal/domain"
)

// defaultTradingFee is the fallback fee fraction (0.2%) applied when a venue
// config does not specify trading fees.
const defaultTradingFee = 0.002

// Config describes one venue entry from configuration.
type Config struct {
	// Family selects the adapter implementation: "binance", "kraken",
	// "gateio", or "bitget_ws".
	Family string

	// Name is the display name used in quotes; defaults to the venue ID.
	Name string

	// BaseURL is the REST API root.
	BaseURL string

	// WSURL is the websocket endpoint for streaming families.
	WSURL string

	IsDex bool

	// TakerFee and MakerFee are trading fee fractions; zero falls back to
	// the 0.2% default.
	TakerFee float64
	MakerFee float64

	// WithdrawFees maps asset code to the venue's flat withdrawal fee.
	WithdrawFees map[string]float64
}

// Registry builds gateways from per-venue config blocks. It implements
// Factory for the connection cache.
type Registry struct {
	configs map[string]Config
	client  *http.Client
}

// NewRegistry creates a Registry over the given venue configs. All REST
// adapters share one HTTP client.
func NewRegistry(configs map[string]Config) *Registry {
	return &Registry{
		configs: configs,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// VenueIDs returns the configured venue identifiers, sorted for deterministic
// collection order.
func (r *Registry) VenueIDs() []string {
	ids := make([]string, 0, len(r.configs))
	for id := range r.configs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// New constructs and initializes the gateway for venueID.
func (r *Registry) New(ctx context.Context, venueID string) (domain.VenueGateway, error) {
	cfg, ok := r.configs[venueID]
	if !ok {
		return nil, fmt.Errorf("venue %q not configured", venueID)
	}
	if cfg.Name == "" {
		cfg.Name = venueID
	}

	fees := domain.FeeSchedule{
		Taker:        cfg.TakerFee,
		Maker:        cfg.MakerFee,
		WithdrawFees: cfg.WithdrawFees,
	}
	if fees.Taker == 0 {
		fees.Taker = defaultTradingFee
	}
	if fees.Maker == 0 {
		fees.Maker = defaultTradingFee
	}

	switch cfg.Family {
	case "binance":
		return newBinance(cfg, fees, r.client), nil
	case "kraken":
		return newKraken(cfg, fees, r.client), nil
	case "gateio":
		return newGateio(cfg, fees, r.client), nil
	case "bitget_ws":
		return newStream(ctx, cfg, fees, r.client)
	default:
		return nil, fmt.Errorf("venue %q: unknown family %q", venueID, cfg.Family)
	}
}

// baseAsset returns the base asset code of a BASE/QUOTE instrument.
func baseAsset(instrument string) string {
	if i := strings.IndexByte(instrument, '/'); i >= 0 {
		return instrument[:i]
	}
	return instrument
}

// nativeSymbol converts BASE/QUOTE to the concatenated form most venues use.
func nativeSymbol(instrument string) string {
	return strings.ReplaceAll(instrument, "/", "")
}

// doGet issues a GET request and returns the response body, treating any
// non-2xx status as an error.
func doGet(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(body, 256))
	}
	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
