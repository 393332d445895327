package venue

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/arbscan/arbscan/internal/domain"
)

// Gateio is the REST adapter for the Gate.io spot v4 API.
type Gateio struct {
	name    string
	baseURL string
	isDex   bool
	fees    domain.FeeSchedule
	client  *http.Client
}

func newGateio(cfg Config, fees domain.FeeSchedule, client *http.Client) *Gateio {
	return &Gateio{
		name:    cfg.Name,
		baseURL: cfg.BaseURL,
		isDex:   cfg.IsDex,
		fees:    fees,
		client:  client,
	}
}

func (g *Gateio) Name() string { return g.name }
func (g *Gateio) IsDex() bool { return g.isDex }
func (g *Gateio) FeeSchedule() domain.FeeSchedule { return g.fees }

// gateioPair converts BASE/QUOTE to Gate.io's underscore form.
func gateioPair(instrument string) string {
	return strings.ReplaceAll(instrument, "/", "_")
}

// LoadSupportedInstruments fetches /api/v4/spot/currency_pairs and returns
// all tradable pairs in BASE/QUOTE form.
func (g *Gateio) LoadSupportedInstruments(ctx context.Context) ([]string, error) {
	body, err := doGet(ctx, g.client, g.baseURL+"/api/v4/spot/currency_pairs")
	if err != nil {
		return nil, fmt.Errorf("gateio: currency pairs: %w", err)
	}

	var pairs []struct {
		ID          string `json:"id"`
		Base        string `json:"base"`
		Quote       string `json:"quote"`
		TradeStatus string `json:"trade_status"`
	}
	if err := json.Unmarshal(body, &pairs); err != nil {
		return nil, fmt.Errorf("gateio: decode currency pairs: %w", err)
	}

	instruments := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if p.TradeStatus != "tradable" || p.Base == "" || p.Quote == "" {
			continue
		}
		instruments = append(instruments, p.Base+"/"+p.Quote)
	}
	return instruments, nil
}

// FetchQuote fetches /api/v4/spot/tickers for the pair and takes the last
// trade price.
func (g *Gateio) FetchQuote(ctx context.Context, instrument string) (domain.Quote, error) {
	params := url.Values{}
	params.Set("currency_pair", gateioPair(instrument))

	body, err := doGet(ctx, g.client, g.baseURL+"/api/v4/spot/tickers?"+params.Encode())
	if err != nil {
		return domain.Quote{}, fmt.Errorf("gateio: ticker %s: %w", instrument, err)
	}

	var tickers []struct {
		CurrencyPair string `json:"currency_pair"`
		Last         string `json:"last"`
	}
	if err := json.Unmarshal(body, &tickers); err != nil {
		return domain.Quote{}, fmt.Errorf("gateio: decode ticker %s: %w", instrument, err)
	}
	if len(tickers) == 0 {
		return domain.Quote{}, fmt.Errorf("gateio: ticker %s: empty result", instrument)
	}

	price, err := strconv.ParseFloat(tickers[0].Last, 64)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("gateio: ticker %s: bad price %q", instrument, tickers[0].Last)
	}

	return domain.Quote{
		VenueName:   g.name,
		Price:       price,
		IsDex:       g.isDex,
		BuyFee:      g.fees.Taker,
		SellFee:     g.fees.Maker,
		WithdrawFee: g.fees.Withdraw(baseAsset(instrument)),
	}, nil
}
