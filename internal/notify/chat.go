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

// ChatConfig holds settings for the chat webhook notifier
type ChatConfig struct {
	URL string `yaml:"url"`
}

// ChatNotifier posts alerts to a chat workspace incoming-webhook
type ChatNotifier struct {
	url    string
	client *http.Client
}

// ChatOption configures the chat notifier
type ChatOption func(*ChatNotifier)

// WithChatClient overrides the HTTP client
func WithChatClient(client *http.Client) ChatOption {
	return func(c *ChatNotifier) {
		if client != nil {
			c.client = client
		}
	}
}

// NewChatNotifier creates a chat notifier posting to the given webhook URL
func NewChatNotifier(cfg ChatConfig, opts ...ChatOption) (*ChatNotifier, error) {
	if cfg.URL == "" {
		return nil, errors.New("chat notifier: url is required")
	}
	c := &ChatNotifier{
		url:    cfg.URL,
		client: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Name returns the channel name
func (c *ChatNotifier) Name() string { return ChannelChat }

type chatPayload struct {
	Text string `json:"text"`
}

var severityEmoji = map[models.Severity]string{
	models.SeverityInfo:     ":information_source:",
	models.SeverityWarning:  ":warning:",
	models.SeverityCritical: ":rotating_light:",
}

// Send posts a formatted message to the chat webhook
func (c *ChatNotifier) Send(ctx context.Context, alert models.Alert) error {
	text := fmt.Sprintf("%s *%s* `%s`: %s (value %v, threshold %v)",
		severityEmoji[alert.Severity], alert.Severity, alert.Type,
		alert.Message, alert.Value, alert.Threshold)

	body, err := json.Marshal(chatPayload{Text: text})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("chat notifier: non-2xx response %d", resp.StatusCode)
	}
	return nil
}
