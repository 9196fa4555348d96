package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"sentinel/internal/models"
)

// WebhookConfig holds settings for the generic webhook notifier
type WebhookConfig struct {
	URL     string            `yaml:"url"`
	Headers map[string]string `yaml:"headers"`
}

// WebhookNotifier POSTs the full alert payload to an arbitrary endpoint
type WebhookNotifier struct {
	url     string
	headers map[string]string
	client  *http.Client
}

// WebhookOption configures the webhook notifier
type WebhookOption func(*WebhookNotifier)

// WithWebhookClient overrides the HTTP client
func WithWebhookClient(client *http.Client) WebhookOption {
	return func(w *WebhookNotifier) {
		if client != nil {
			w.client = client
		}
	}
}

// NewWebhookNotifier creates a generic webhook notifier
func NewWebhookNotifier(cfg WebhookConfig, opts ...WebhookOption) (*WebhookNotifier, error) {
	if cfg.URL == "" {
		return nil, errors.New("webhook notifier: url is required")
	}
	w := &WebhookNotifier{
		url:     cfg.URL,
		headers: cfg.Headers,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Name returns the channel name
func (w *WebhookNotifier) Name() string { return ChannelWebhook }

// webhookPayload is the JSON body sent to the endpoint
type webhookPayload struct {
	Event     string       `json:"event"`
	Alert     models.Alert `json:"alert"`
	Source    string       `json:"source"`
	Timestamp time.Time    `json:"timestamp"`
}

// Send POSTs the alert as JSON
func (w *WebhookNotifier) Send(ctx context.Context, alert models.Alert) error {
	body, err := json.Marshal(webhookPayload{
		Event:     "alert.fired",
		Alert:     alert,
		Source:    "sentinel",
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook notifier: non-2xx response %d", resp.StatusCode)
	}
	return nil
}
