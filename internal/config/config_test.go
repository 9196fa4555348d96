package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"sentinel/internal/config"
	"sentinel/internal/models"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sentinel.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := config.Default()
	if cfg.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.Retention != 1000 {
		t.Errorf("Retention = %d", cfg.Retention)
	}
	if cfg.DispatchTimeout.Std() != 10*time.Second {
		t.Errorf("DispatchTimeout = %v", cfg.DispatchTimeout)
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
listen_addr: ":9090"
log_level: debug
retention: 250
dispatch_timeout: 5s
thresholds:
  cpu: 70
channels:
  chat:
    enabled: true
    min_severity: warning
    url: https://chat.example.com/hooks/abc
  stream:
    enabled: true
    brokers: ["localhost:9092"]
    topic: alerts
`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.ListenAddr != ":9090" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.Retention != 250 {
		t.Errorf("Retention = %d", cfg.Retention)
	}
	if cfg.DispatchTimeout.Std() != 5*time.Second {
		t.Errorf("DispatchTimeout = %v", cfg.DispatchTimeout)
	}
	if cfg.Thresholds[models.MetricCPU] != 70 {
		t.Errorf("cpu threshold override = %v", cfg.Thresholds[models.MetricCPU])
	}
	if !cfg.Channels.Chat.Enabled || cfg.Channels.Chat.URL == "" {
		t.Errorf("chat channel not loaded: %+v", cfg.Channels.Chat)
	}
	if config.MinSeverityOf(cfg.Channels.Chat.ChannelPolicy) != models.SeverityWarning {
		t.Error("chat min_severity not parsed")
	}
	if len(cfg.Channels.Stream.Brokers) != 1 || cfg.Channels.Stream.Topic != "alerts" {
		t.Errorf("stream channel not loaded: %+v", cfg.Channels.Stream)
	}
}

func TestLoadDefaultsUnsetFields(t *testing.T) {
	path := writeConfig(t, "log_level: warn\n")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.ListenAddr != ":8080" || cfg.Retention != 1000 {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestLoadRejectsBadSeverity(t *testing.T) {
	path := writeConfig(t, `
channels:
  email:
    enabled: true
    min_severity: urgent
`)

	if _, err := config.Load(path); err == nil {
		t.Fatal("expected validation error for bad min_severity")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
