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

// Embed colors, Discord's usual green/red.
const (
	discordColorGreen = 0x2ecc71
	discordColorRed   = 0xe74c3c
)

// DiscordSender delivers scan alerts via a Discord webhook, rendered as a
// single embed with the opportunity table in a code block.
type DiscordSender struct {
	webhookURL string
	client     *http.Client
}

// NewDiscordSender creates a DiscordSender for the given webhook URL. It uses a
// default HTTP client with a 10-second timeout.
func NewDiscordSender(webhookURL string) *DiscordSender {
	return &DiscordSender{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

type discordEmbed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       int    `json:"color"`
}

// Send posts the alert to the Discord webhook.
func (d *DiscordSender) Send(ctx context.Context, a Alert) error {
	payload := struct {
		Embeds []discordEmbed `json:"embeds"`
	}{
		Embeds: []discordEmbed{d.embed(a)},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("discord: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("discord: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("discord: send request: %w", err)
	}
	defer resp.Body.Close()

	// Discord returns 204 No Content on success.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("discord: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

func (d *DiscordSender) embed(a Alert) discordEmbed {
	switch a.Event {
	case EventScanComplete:
		var b strings.Builder
		b.WriteString("```\n")
		for i, o := range a.Opportunities {
			fmt.Fprintf(&b, "%2d. %-14s %s %.8f -> %s %.8f  profit %.6f (%.4f%%)\n",
				i+1, o.Instrument,
				o.Min.VenueName, o.Min.Price,
				o.Max.VenueName, o.Max.Price,
				o.Profit, o.Ratio,
			)
		}
		b.WriteString("```")
		return discordEmbed{
			Title:       fmt.Sprintf("%d arbitrage opportunities (run %s)", len(a.Opportunities), a.RunID),
			Description: b.String(),
			Color:       discordColorGreen,
		}
	case EventError:
		return discordEmbed{
			Title:       fmt.Sprintf("scan failed (run %s)", a.RunID),
			Description: a.Message,
			Color:       discordColorRed,
		}
	default:
		return discordEmbed{
			Title:       fmt.Sprintf("%s (run %s)", a.Event, a.RunID),
			Description: a.Message,
			Color:       discordColorGreen,
		}
	}
}

// Name returns the sender identifier.
func (d *DiscordSender) Name() string {
	return "discord"
}
