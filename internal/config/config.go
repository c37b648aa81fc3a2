package config

import "time"

// DashboardConfig is the root configuration for the dashboard client.
type DashboardConfig struct {
	Instance InstanceConfig `yaml:"instance"`
	API      APIConfig      `yaml:"api"`
	Channel  ChannelConfig  `yaml:"channel"`
	Poller   PollerConfig   `yaml:"poller"`
	Watch    WatchConfig    `yaml:"watch"`
}

// InstanceConfig identifies this client instance.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// APIConfig holds trading service endpoints and REST fallback settings.
type APIConfig struct {
	RestURL    string        `yaml:"rest_url"`
	WSURL      string        `yaml:"ws_url"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

// ChannelConfig holds WebSocket channel settings.
type ChannelConfig struct {
	PreferChannel          bool          `yaml:"prefer_channel"`
	ConnectTimeout         time.Duration `yaml:"connect_timeout"`
	RequestTimeout         time.Duration `yaml:"request_timeout"`
	HealthCheckInterval    time.Duration `yaml:"health_check_interval"`
	MaxReconnectAttempts   int           `yaml:"max_reconnect_attempts"`
	ReconnectDelay         time.Duration `yaml:"reconnect_delay"`
	ResubscribeOnReconnect bool          `yaml:"resubscribe_on_reconnect"`
	PingTimeout            time.Duration `yaml:"ping_timeout"`
	WriteTimeout           time.Duration `yaml:"write_timeout"`
	BufferSize             int           `yaml:"buffer_size"`
}

// PollerConfig holds the fallback analysis poller settings.
type PollerConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Interval    time.Duration `yaml:"interval"`
	Concurrency int           `yaml:"concurrency"`
}

// WatchConfig lists the symbols the dashboard follows.
type WatchConfig struct {
	Symbols []string `yaml:"symbols"`
}
