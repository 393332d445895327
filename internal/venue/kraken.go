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

// Kraken is the REST adapter for the Kraken public API.
type Kraken struct {
	name    string
	baseURL string
	isDex   bool
	fees    domain.FeeSchedule
	client  *http.Client
}

func newKraken(cfg Config, fees domain.FeeSchedule, client *http.Client) *Kraken {
	return &Kraken{
		name:    cfg.Name,
		baseURL: cfg.BaseURL,
		isDex:   cfg.IsDex,
		fees:    fees,
		client:  client,
	}
}

func (k *Kraken) Name() string { return k.name }
func (k *Kraken) IsDex() bool { return k.isDex }
func (k *Kraken) FeeSchedule() domain.FeeSchedule { return k.fees }

// LoadSupportedInstruments fetches /0/public/AssetPairs and returns each
// pair's websocket name, which is already in BASE/QUOTE form.
func (k *Kraken) LoadSupportedInstruments(ctx context.Context) ([]string, error) {
	body, err := doGet(ctx, k.client, k.baseURL+"/0/public/AssetPairs")
	if err != nil {
		return nil, fmt.Errorf("kraken: asset pairs: %w", err)
	}

	var resp struct {
		Error  []string `json:"error"`
		Result map[string]struct {
			WSName string `json:"wsname"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("kraken: decode asset pairs: %w", err)
	}
	if len(resp.Error) > 0 {
		return nil, fmt.Errorf("kraken: asset pairs: %s", strings.Join(resp.Error, "; "))
	}

	instruments := make([]string, 0, len(resp.Result))
	for _, pair := range resp.Result {
		if pair.WSName == "" {
			continue
		}
		instruments = append(instruments, pair.WSName)
	}
	return instruments, nil
}

// FetchQuote fetches /0/public/Ticker and takes the last trade price from the
// "c" field of the single returned pair.
func (k *Kraken) FetchQuote(ctx context.Context, instrument string) (domain.Quote, error) {
	params := url.Values{}
	params.Set("pair", nativeSymbol(instrument))

	body, err := doGet(ctx, k.client, k.baseURL+"/0/public/Ticker?"+params.Encode())
	if err != nil {
		return domain.Quote{}, fmt.Errorf("kraken: ticker %s: %w", instrument, err)
	}

	var resp struct {
		Error  []string `json:"error"`
		Result map[string]struct {
			C []string `json:"c"` // [last trade price, lot volume]
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.Quote{}, fmt.Errorf("kraken: decode ticker %s: %w", instrument, err)
	}
	if len(resp.Error) > 0 {
		return domain.Quote{}, fmt.Errorf("kraken: ticker %s: %s", instrument, strings.Join(resp.Error, "; "))
	}

	for _, ticker := range resp.Result {
		if len(ticker.C) == 0 {
			break
		}
		price, err := strconv.ParseFloat(ticker.C[0], 64)
		if err != nil {
			return domain.Quote{}, fmt.Errorf("kraken: ticker %s: bad price %q", instrument, ticker.C[0])
		}
		return domain.Quote{
			VenueName:   k.name,
			Price:       price,
			IsDex:       k.isDex,
			BuyFee:      k.fees.Taker,
			SellFee:     k.fees.Maker,
			WithdrawFee: k.fees.Withdraw(baseAsset(instrument)),
		}, nil
	}
	return domain.Quote{}, fmt.Errorf("kraken: ticker %s: empty result", instrument)
}
