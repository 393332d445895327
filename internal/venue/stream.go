package venue

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/arbscan/arbscan/internal/domain"
)

// streamPingInterval keeps the Bitget websocket alive; the server drops
// connections idle for more than 30 seconds.
const streamPingInterval = 25 * time.Second

// Stream is the websocket adapter for Bitget's public v2 spot ticker stream.
// It maintains a last-price table fed by the subscription stream and serves
// FetchQuote from it, which avoids hammering the REST ticker endpoint on
// venues with tight rate limits. Instrument listing still goes through REST.
type Stream struct {
	name    string
	baseURL string
	isDex   bool
	fees    domain.FeeSchedule
	client  *http.Client

	conn    *websocket.Conn
	writeMu sync.Mutex

	mu         sync.RWMutex
	last       map[string]float64 // native symbol -> last trade price
	subscribed map[string]bool

	done      chan struct{}
	closeOnce sync.Once
}

// newStream dials the venue's websocket endpoint and starts the read and
// ping loops. A dial failure makes the venue unusable for the run.
func newStream(ctx context.Context, cfg Config, fees domain.FeeSchedule, client *http.Client) (*Stream, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, cfg.WSURL, nil)
	if err != nil {
		return nil, fmt.Errorf("bitget: dial %s: %w", cfg.WSURL, err)
	}

	s := &Stream{
		name:       cfg.Name,
		baseURL:    cfg.BaseURL,
		isDex:      cfg.IsDex,
		fees:       fees,
		client:     client,
		conn:       conn,
		last:       make(map[string]float64),
		subscribed: make(map[string]bool),
		done:       make(chan struct{}),
	}

	go s.readLoop()
	go s.pingLoop()
	return s, nil
}

func (s *Stream) Name() string { return s.name }
func (s *Stream) IsDex() bool { return s.isDex }
func (s *Stream) FeeSchedule() domain.FeeSchedule { return s.fees }

// Close terminates the websocket connection and both loops.
func (s *Stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.conn.Close()
	})
	return err
}

// LoadSupportedInstruments fetches the venue's spot symbol list over REST.
func (s *Stream) LoadSupportedInstruments(ctx context.Context) ([]string, error) {
	body, err := doGet(ctx, s.client, s.baseURL+"/api/v2/spot/public/symbols")
	if err != nil {
		return nil, fmt.Errorf("bitget: symbols: %w", err)
	}

	var resp struct {
		Code string `json:"code"`
		Msg  string `json:"msg"`
		Data []struct {
			Symbol    string `json:"symbol"`
			BaseCoin  string `json:"baseCoin"`
			QuoteCoin string `json:"quoteCoin"`
			Status    string `json:"status"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("bitget: decode symbols: %w", err)
	}
	if resp.Code != "00000" {
		return nil, fmt.Errorf("bitget: symbols: code %s: %s", resp.Code, resp.Msg)
	}

	instruments := make([]string, 0, len(resp.Data))
	for _, d := range resp.Data {
		if d.Status != "online" || d.BaseCoin == "" || d.QuoteCoin == "" {
			continue
		}
		instruments = append(instruments, d.BaseCoin+"/"+d.QuoteCoin)
	}
	return instruments, nil
}

// FetchQuote subscribes to the instrument's ticker channel on first use and
// then waits for the stream to deliver a price, polling the last-price table
// until ctx expires.
func (s *Stream) FetchQuote(ctx context.Context, instrument string) (domain.Quote, error) {
	sym := nativeSymbol(instrument)

	if err := s.ensureSubscribed(sym); err != nil {
		return domain.Quote{}, fmt.Errorf("bitget: subscribe %s: %w", instrument, err)
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		s.mu.RLock()
		price, ok := s.last[sym]
		s.mu.RUnlock()
		if ok {
			return domain.Quote{
				VenueName:   s.name,
				Price:       price,
				IsDex:       s.isDex,
				BuyFee:      s.fees.Taker,
				SellFee:     s.fees.Maker,
				WithdrawFee: s.fees.Withdraw(baseAsset(instrument)),
			}, nil
		}

		select {
		case <-ctx.Done():
			return domain.Quote{}, ctx.Err()
		case <-s.done:
			return domain.Quote{}, fmt.Errorf("bitget: stream closed")
		case <-ticker.C:
		}
	}
}

// ensureSubscribed sends the subscribe frame for a symbol on first use. The
// symbol is marked only after the write succeeds, so a failed write is
// retried on the next fetch. Racing first fetches can send a duplicate
// subscribe, which the venue treats as a no-op.
func (s *Stream) ensureSubscribed(sym string) error {
	s.mu.RLock()
	already := s.subscribed[sym]
	s.mu.RUnlock()
	if already {
		return nil
	}

	msg := map[string]any{
		"op": "subscribe",
		"args": []map[string]string{{
			"channel":  "ticker",
			"instType": "SPOT",
			"instId":   sym,
		}},
	}

	s.writeMu.Lock()
	err := s.conn.WriteJSON(msg)
	s.writeMu.Unlock()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.subscribed[sym] = true
	s.mu.Unlock()
	return nil
}

// readLoop consumes ticker frames and maintains the last-price table until
// the connection dies or Close is called.
func (s *Stream) readLoop() {
	defer s.Close()

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		if string(raw) == "pong" {
			continue
		}

		var frame struct {
			Action string `json:"action"`
			Arg    struct {
				Channel string `json:"channel"`
			} `json:"arg"`
			Data []struct {
				InstID string `json:"instId"`
				LastPr string `json:"lastPr"`
			} `json:"data"`
		}
		if err := json.Unmarshal(raw, &frame); err != nil {
			continue
		}
		if frame.Arg.Channel != "ticker" {
			continue
		}

		for _, d := range frame.Data {
			price, err := strconv.ParseFloat(d.LastPr, 64)
			if err != nil || d.InstID == "" {
				continue
			}
			s.mu.Lock()
			s.last[d.InstID] = price
			s.mu.Unlock()
		}
	}
}

func (s *Stream) pingLoop() {
	ticker := time.NewTicker(streamPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.writeMu.Lock()
			err := s.conn.WriteMessage(websocket.TextMessage, []byte("ping"))
			s.writeMu.Unlock()
			if err != nil {
				s.Close()
				return
			}
		}
	}
}
