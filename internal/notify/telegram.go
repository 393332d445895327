package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// TelegramSender delivers scan alerts via the Telegram Bot API.
type TelegramSender struct {
	token  string
	chatID string
	client *http.Client
}

// NewTelegramSender creates a TelegramSender for the given bot token and chat
// ID. It uses a default HTTP client with a 10-second timeout.
func NewTelegramSender(token, chatID string) *TelegramSender {
	return &TelegramSender{
		token:  token,
		chatID: chatID,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Send posts the alert to the configured Telegram chat using the sendMessage
// API, rendered in Telegram Markdown.
func (t *TelegramSender) Send(ctx context.Context, a Alert) error {
	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.token)

	payload := map[string]string{
		"chat_id":    t.chatID,
		"text":       t.render(a),
		"parse_mode": "Markdown",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("telegram: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

// render formats the alert as a Telegram Markdown message. Instruments go in
// code spans so Telegram does not try to interpret symbols like BTC/USDT as
// markup.
func (t *TelegramSender) render(a Alert) string {
	var b strings.Builder
	switch a.Event {
	case EventScanComplete:
		fmt.Fprintf(&b, "*%d arbitrage opportunities* (run `%s`)\n", len(a.Opportunities), a.RunID)
		for i, o := range a.Opportunities {
			fmt.Fprintf(&b, "%d. `%s`  buy %s %.8f, sell %s %.8f, profit %.6f (ratio %.4f%%)\n",
				i+1, o.Instrument,
				o.Min.VenueName, o.Min.Price,
				o.Max.VenueName, o.Max.Price,
				o.Profit, o.Ratio,
			)
		}
	case EventError:
		fmt.Fprintf(&b, "*scan failed* (run `%s`)\n%s", a.RunID, a.Message)
	default:
		fmt.Fprintf(&b, "*%s* (run `%s`)\n%s", a.Event, a.RunID, a.Message)
	}
	return b.String()
}

// Name returns the sender identifier.
func (t *TelegramSender) Name() string {
	return "telegram"
}
