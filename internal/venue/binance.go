package venue

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/arbscan/arbscan/internal/domain"
)

// Binance is the REST adapter for Binance-compatible spot APIs.
type Binance struct {
	name    string
	baseURL string
	isDex   bool
	fees    domain.FeeSchedule
	client  *http.Client
}

func newBinance(cfg Config, fees domain.FeeSchedule, client *http.Client) *Binance {
	return &Binance{
		name:    cfg.Name,
		baseURL: cfg.BaseURL,
		isDex:   cfg.IsDex,
		fees:    fees,
		client:  client,
	}
}

func (b *Binance) Name() string { return b.name }
func (b *Binance) IsDex() bool { return b.isDex }
func (b *Binance) FeeSchedule() domain.FeeSchedule { return b.fees }

// LoadSupportedInstruments fetches /api/v3/exchangeInfo and returns all
// actively trading symbols in BASE/QUOTE form.
func (b *Binance) LoadSupportedInstruments(ctx context.Context) ([]string, error) {
	body, err := doGet(ctx, b.client, b.baseURL+"/api/v3/exchangeInfo")
	if err != nil {
		return nil, fmt.Errorf("binance: exchange info: %w", err)
	}

	var info struct {
		Symbols []struct {
			Symbol     string `json:"symbol"`
			Status     string `json:"status"`
			BaseAsset  string `json:"baseAsset"`
			QuoteAsset string `json:"quoteAsset"`
		} `json:"symbols"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("binance: decode exchange info: %w", err)
	}

	instruments := make([]string, 0, len(info.Symbols))
	for _, s := range info.Symbols {
		if s.Status != "TRADING" || s.BaseAsset == "" || s.QuoteAsset == "" {
			continue
		}
		instruments = append(instruments, s.BaseAsset+"/"+s.QuoteAsset)
	}
	return instruments, nil
}

// FetchQuote fetches the last trade price from /api/v3/ticker/price.
func (b *Binance) FetchQuote(ctx context.Context, instrument string) (domain.Quote, error) {
	params := url.Values{}
	params.Set("symbol", nativeSymbol(instrument))

	body, err := doGet(ctx, b.client, b.baseURL+"/api/v3/ticker/price?"+params.Encode())
	if err != nil {
		return domain.Quote{}, fmt.Errorf("binance: ticker %s: %w", instrument, err)
	}

	var ticker struct {
		Symbol string `json:"symbol"`
		Price  string `json:"price"`
	}
	if err := json.Unmarshal(body, &ticker); err != nil {
		return domain.Quote{}, fmt.Errorf("binance: decode ticker %s: %w", instrument, err)
	}

	price, err := strconv.ParseFloat(ticker.Price, 64)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("binance: ticker %s: bad price %q", instrument, ticker.Price)
	}

	return domain.Quote{
		VenueName:   b.name,
		Price:       price,
		IsDex:       b.isDex,
		BuyFee:      b.fees.Taker,
		SellFee:     b.fees.Maker,
		WithdrawFee: b.fees.Withdraw(baseAsset(instrument)),
	}, nil
}
