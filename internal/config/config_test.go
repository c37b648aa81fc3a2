package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dashboard.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
instance:
  id: "test-dashboard"
api:
  rest_url: "http://localhost:9090/api"
  ws_url: "ws://localhost:9090/ws"
channel:
  prefer_channel: true
  max_reconnect_attempts: 10
watch:
  symbols:
    - "BTCUSDT"
    - "ETHUSDT"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Instance.ID != "test-dashboard" {
		t.Errorf("instance id = %q", cfg.Instance.ID)
	}
	if cfg.API.RestURL != "http://localhost:9090/api" {
		t.Errorf("rest url = %q", cfg.API.RestURL)
	}
	if !cfg.Channel.PreferChannel {
		t.Error("prefer_channel not parsed")
	}
	if cfg.Channel.MaxReconnectAttempts != 10 {
		t.Errorf("max_reconnect_attempts = %d", cfg.Channel.MaxReconnectAttempts)
	}
	if len(cfg.Watch.Symbols) != 2 || cfg.Watch.Symbols[0] != "BTCUSDT" {
		t.Errorf("symbols = %v", cfg.Watch.Symbols)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("DASH_WS_URL", "ws://trading.internal:8080/ws")

	path := writeConfig(t, `
instance:
  id: "env-test"
api:
  ws_url: "${DASH_WS_URL}"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.API.WSURL != "ws://trading.internal:8080/ws" {
		t.Errorf("ws url = %q, env var not expanded", cfg.API.WSURL)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "instance: [unclosed")
	if _, err := Load(path); err == nil {
		t.Error("expected a parse error")
	}
}

func TestApplyDefaults(t *testing.T) {
	var cfg DashboardConfig
	cfg.ApplyDefaults()

	if cfg.API.RestURL != DefaultRestURL {
		t.Errorf("rest url = %q", cfg.API.RestURL)
	}
	if cfg.API.Timeout != DefaultAPITimeout {
		t.Errorf("api timeout = %v", cfg.API.Timeout)
	}
	if cfg.Channel.ConnectTimeout != DefaultConnectTimeout {
		t.Errorf("connect timeout = %v", cfg.Channel.ConnectTimeout)
	}
	if cfg.Channel.RequestTimeout != DefaultRequestTimeout {
		t.Errorf("request timeout = %v", cfg.Channel.RequestTimeout)
	}
	if cfg.Channel.MaxReconnectAttempts != DefaultMaxReconnectAttempts {
		t.Errorf("max reconnect attempts = %d", cfg.Channel.MaxReconnectAttempts)
	}
	if cfg.Poller.Interval != DefaultPollInterval {
		t.Errorf("poll interval = %v", cfg.Poller.Interval)
	}
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := DashboardConfig{}
	cfg.Channel.ConnectTimeout = 2 * time.Second
	cfg.Poller.Concurrency = 16
	cfg.ApplyDefaults()

	if cfg.Channel.ConnectTimeout != 2*time.Second {
		t.Errorf("explicit connect timeout overwritten: %v", cfg.Channel.ConnectTimeout)
	}
	if cfg.Poller.Concurrency != 16 {
		t.Errorf("explicit concurrency overwritten: %d", cfg.Poller.Concurrency)
	}
}

func validConfig() *DashboardConfig {
	cfg := &DashboardConfig{}
	cfg.Instance.ID = "test"
	cfg.API.RestURL = "http://localhost:8080/api"
	cfg.API.WSURL = "ws://localhost:8080/ws"
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*DashboardConfig)
		wantErr string
	}{
		{"missing instance id", func(c *DashboardConfig) { c.Instance.ID = "" }, "instance.id"},
		{"missing rest url", func(c *DashboardConfig) { c.API.RestURL = "" }, "rest_url"},
		{"missing ws url", func(c *DashboardConfig) { c.API.WSURL = "" }, "ws_url"},
		{"http scheme for ws url", func(c *DashboardConfig) { c.API.WSURL = "http://x/ws" }, "ws://"},
		{"negative retries", func(c *DashboardConfig) { c.API.MaxRetries = -1 }, "max_retries"},
		{"zero connect timeout", func(c *DashboardConfig) { c.Channel.ConnectTimeout = 0 }, "connect_timeout"},
		{"zero reconnect attempts", func(c *DashboardConfig) { c.Channel.MaxReconnectAttempts = 0 }, "max_reconnect_attempts"},
		{"zero buffer", func(c *DashboardConfig) { c.Channel.BufferSize = 0 }, "buffer_size"},
		{"poller zero interval", func(c *DashboardConfig) { c.Poller.Enabled = true; c.Poller.Interval = 0 }, "poller.interval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected a validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadAndValidate(t *testing.T) {
	path := writeConfig(t, `
instance:
  id: "full"
api:
  rest_url: "http://localhost:8080/api"
  ws_url: "wss://trading.example.com/ws"
channel:
  prefer_channel: true
`)

	cfg, err := LoadAndValidate(path)
	if err != nil {
		t.Fatalf("LoadAndValidate failed: %v", err)
	}
	if cfg.Channel.RequestTimeout != DefaultRequestTimeout {
		t.Errorf("defaults not applied: request timeout = %v", cfg.Channel.RequestTimeout)
	}
}

func TestLoadAndValidate_Invalid(t *testing.T) {
	path := writeConfig(t, `
api:
  ws_url: "ws://localhost:8080/ws"
`)

	if _, err := LoadAndValidate(path); err == nil {
		t.Error("expected a validation error for missing instance.id")
	}
}
