package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// Embed colors used by the Discord channel.
const (
	colorBlue   = 0x3498db
	colorGreen  = 0x2ecc71
	colorRed    = 0xe74c3c
	colorOrange = 0xe67e22
)

// DiscordChannel sends notifications to a Discord webhook as embeds. Sends
// go through a circuit breaker so a dead webhook degrades to dropped
// notifications instead of stalling every cycle on timeouts.
type DiscordChannel struct {
	webhookURL string
	client     *http.Client
	breaker    *gobreaker.CircuitBreaker
}

// NewDiscordChannel creates a Discord webhook channel.
func NewDiscordChannel(webhookURL string) *DiscordChannel {
	return &DiscordChannel{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "discord-webhook",
			Timeout: 60 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		}),
	}
}

// Name returns the channel name.
func (d *DiscordChannel) Name() string {
	return "discord"
}

// IsEnabled reports whether a webhook URL is configured.
func (d *DiscordChannel) IsEnabled() bool {
	return d.webhookURL != ""
}

// Send posts the notification as a Discord embed.
func (d *DiscordChannel) Send(ctx context.Context, n Notification) error {
	_, err := d.breaker.Execute(func() (interface{}, error) {
		return nil, d.post(ctx, n)
	})
	return err
}

func (d *DiscordChannel) post(ctx context.Context, n Notification) error {
	fields := make([]map[string]interface{}, 0, len(n.Fields))
	for _, f := range n.Fields {
		fields = append(fields, map[string]interface{}{
			"name":   f.Name,
			"value":  f.Value,
			"inline": f.Inline,
		})
	}

	payload := map[string]interface{}{
		"embeds": []map[string]interface{}{
			{
				"title":       n.Title,
				"description": n.Message,
				"color":       embedColor(n.Type),
				"fields":      fields,
				"footer": map[string]string{
					"text": "hybrid-trader",
				},
				"timestamp": n.Timestamp.Format(time.RFC3339),
			},
		},
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("discord returned status %d", resp.StatusCode)
	}
	return nil
}

func embedColor(t Type) int {
	switch t {
	case TypeTrade:
		return colorGreen
	case TypeBreaker, TypeError:
		return colorRed
	case TypeOutcome:
		return colorBlue
	default:
		return colorOrange
	}
}
