package notify

import (
	"context"

	"sentinel/internal/models"
)

// Channel names
const (
	ChannelEmail   = "email"
	ChannelChat    = "chat"
	ChannelWebhook = "webhook"
	ChannelStream  = "stream"
	ChannelAll     = "all"
)

// Notifier is the delivery capability for one channel. Implementations
// perform a single send attempt; retry policy belongs to the caller.
type Notifier interface {
	Name() string
	Send(ctx context.Context, alert models.Alert) error
}

// Outcome statuses
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Outcome is the result of one channel's delivery attempt
type Outcome struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Result maps channel name to delivery outcome
type Result map[string]Outcome

// Succeeded reports whether every attempted channel delivered
func (r Result) Succeeded() bool {
	for _, o := range r {
		if o.Status != StatusSuccess {
			return false
		}
	}
	return true
}
