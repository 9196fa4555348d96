package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"sentinel/internal/models"
	"sentinel/internal/notify"
)

// Duration supports human-readable YAML values like "5s" or "1m"
type Duration time.Duration

// UnmarshalYAML parses either a duration string ("5s") or plain seconds
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("invalid duration node: %w", err)
	}
	if parsed, err := time.ParseDuration(raw); err == nil {
		*d = Duration(parsed)
		return nil
	}
	secs, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid duration %q", raw)
	}
	*d = Duration(secs * float64(time.Second))
	return nil
}

// Std converts back to time.Duration
func (d Duration) Std() time.Duration { return time.Duration(d) }

// ChannelPolicy is shared by every channel: whether it is enabled and the
// minimum severity it receives (empty means everything).
type ChannelPolicy struct {
	Enabled     bool   `yaml:"enabled"`
	MinSeverity string `yaml:"min_severity"`
}

// ChannelsConfig configures the notification channels
type ChannelsConfig struct {
	Email struct {
		ChannelPolicy      `yaml:",inline"`
		notify.EmailConfig `yaml:",inline"`
	} `yaml:"email"`
	Chat struct {
		ChannelPolicy     `yaml:",inline"`
		notify.ChatConfig `yaml:",inline"`
	} `yaml:"chat"`
	Webhook struct {
		ChannelPolicy        `yaml:",inline"`
		notify.WebhookConfig `yaml:",inline"`
	} `yaml:"webhook"`
	Stream struct {
		ChannelPolicy       `yaml:",inline"`
		notify.StreamConfig `yaml:",inline"`
	} `yaml:"stream"`
}

// Config holds runtime configuration for the alerting service
type Config struct {
	// HTTP listen address
	ListenAddr string `yaml:"listen_addr"`
	// zerolog level: trace, debug, info, warn, error
	LogLevel string `yaml:"log_level"`
	// History retention (number of alerts)
	Retention int `yaml:"retention"`
	// Per-channel send timeout
	DispatchTimeout Duration `yaml:"dispatch_timeout"`
	// Threshold overrides merged over the built-in defaults at startup
	Thresholds models.ThresholdSet `yaml:"thresholds"`
	// Notification channels
	Channels ChannelsConfig `yaml:"channels"`
}

// Default returns a sensible default config for local dev
func Default() *Config {
	return &Config{
		ListenAddr:      ":8080",
		LogLevel:        "info",
		Retention:       1000,
		DispatchTimeout: Duration(10 * time.Second),
	}
}

// Load reads YAML configuration from path, applying defaults for anything
// left unset.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 1000
	}
	if cfg.DispatchTimeout <= 0 {
		cfg.DispatchTimeout = Duration(10 * time.Second)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks cross-field invariants
func (c *Config) Validate() error {
	for _, policy := range []struct {
		name string
		ChannelPolicy
	}{
		{"email", c.Channels.Email.ChannelPolicy},
		{"chat", c.Channels.Chat.ChannelPolicy},
		{"webhook", c.Channels.Webhook.ChannelPolicy},
		{"stream", c.Channels.Stream.ChannelPolicy},
	} {
		if policy.MinSeverity == "" {
			continue
		}
		if _, err := models.ParseSeverity(policy.MinSeverity); err != nil {
			return fmt.Errorf("channel %s: min_severity %q: %w", policy.name, policy.MinSeverity, err)
		}
	}
	return nil
}

// MinSeverityOf parses a channel policy's gate, defaulting to no gate
func MinSeverityOf(policy ChannelPolicy) models.Severity {
	if policy.MinSeverity == "" {
		return ""
	}
	s, err := models.ParseSeverity(policy.MinSeverity)
	if err != nil {
		return ""
	}
	return s
}
