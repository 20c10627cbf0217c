package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// WebhookSender posts reminders as JSON to a provider webhook URL.
// The payload shape is shared by the e-mail, SMS, and WhatsApp gateways.
type WebhookSender struct {
	url        string
	httpClient *http.Client
}

// NewWebhookSender constructs a sender for one provider webhook.
func NewWebhookSender(url string) *WebhookSender {
	return &WebhookSender{
		url:        url,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type webhookPayload struct {
	Channel   string  `json:"channel"`
	Level     int     `json:"level"`
	Recipient string  `json:"recipient"`
	Client    string  `json:"client"`
	Invoice   string  `json:"invoice"`
	Amount    float64 `json:"amount"`
	Body      string  `json:"body"`
}

// Send posts the message to the webhook. Any non-2xx response is an error.
func (s *WebhookSender) Send(ctx context.Context, msg Message) error {
	if s.url == "" {
		return fmt.Errorf("no gateway configured for channel %s", msg.Channel)
	}
	if msg.Recipient == "" {
		return fmt.Errorf("no recipient for channel %s", msg.Channel)
	}

	body, err := json.Marshal(webhookPayload{
		Channel:   string(msg.Channel),
		Level:     msg.Level,
		Recipient: msg.Recipient,
		Client:    msg.ClientName,
		Invoice:   msg.InvoiceNumber,
		Amount:    msg.Amount,
		Body:      msg.Body(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, string(b))
	}
	return nil
}
