package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"sentinel/internal/models"
)

// Stream notifier errors
var (
	ErrStreamClosed    = errors.New("stream notifier is closed")
	ErrSerializeFailed = errors.New("failed to serialize alert")
)

// StreamConfig holds settings for the Kafka stream notifier
type StreamConfig struct {
	Brokers      []string      `yaml:"brokers"`
	Topic        string        `yaml:"topic"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// StreamNotifier publishes fired alerts as JSON events to a Kafka topic so
// downstream consumers can react to them.
type StreamNotifier struct {
	writer *kafka.Writer
	closed atomic.Bool
}

// NewStreamNotifier creates a Kafka-backed stream notifier
func NewStreamNotifier(cfg StreamConfig) (*StreamNotifier, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("stream notifier: at least one broker is required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("stream notifier: topic is required")
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{}, // partition by alert type
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: kafka.RequireOne,
		Async:        false, // sync for reliability
	}

	return &StreamNotifier{writer: writer}, nil
}

// Name returns the channel name
func (s *StreamNotifier) Name() string { return ChannelStream }

// Send publishes the alert keyed by its type
func (s *StreamNotifier) Send(ctx context.Context, alert models.Alert) error {
	if s.closed.Load() {
		return ErrStreamClosed
	}

	data, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSerializeFailed, err)
	}

	return s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(alert.Type),
		Value: data,
		Time:  alert.Timestamp,
	})
}

// Close flushes and closes the underlying writer
func (s *StreamNotifier) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.writer.Close()
}
