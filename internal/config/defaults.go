package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultRestURL              = "http://localhost:8080/api"
	DefaultWSURL                = "ws://localhost:8080/ws"
	DefaultAPITimeout           = 30 * time.Second
	DefaultMaxRetries           = 3
	DefaultConnectTimeout       = 5 * time.Second
	DefaultRequestTimeout       = 30 * time.Second
	DefaultHealthCheckInterval  = 30 * time.Second
	DefaultMaxReconnectAttempts = 5
	DefaultReconnectDelay       = 5 * time.Second
	DefaultPingTimeout          = 60 * time.Second
	DefaultWriteTimeout         = 5 * time.Second
	DefaultBufferSize           = 1000
	DefaultPollInterval         = 1 * time.Minute
	DefaultPollConcurrency      = 4
)

// ApplyDefaults fills in default values for unset optional fields.
func (c *DashboardConfig) ApplyDefaults() {
	// API defaults
	if c.API.RestURL == "" {
		c.API.RestURL = DefaultRestURL
	}
	if c.API.WSURL == "" {
		c.API.WSURL = DefaultWSURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.MaxRetries == 0 {
		c.API.MaxRetries = DefaultMaxRetries
	}

	// Channel defaults
	if c.Channel.ConnectTimeout == 0 {
		c.Channel.ConnectTimeout = DefaultConnectTimeout
	}
	if c.Channel.RequestTimeout == 0 {
		c.Channel.RequestTimeout = DefaultRequestTimeout
	}
	if c.Channel.HealthCheckInterval == 0 {
		c.Channel.HealthCheckInterval = DefaultHealthCheckInterval
	}
	if c.Channel.MaxReconnectAttempts == 0 {
		c.Channel.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if c.Channel.ReconnectDelay == 0 {
		c.Channel.ReconnectDelay = DefaultReconnectDelay
	}
	if c.Channel.PingTimeout == 0 {
		c.Channel.PingTimeout = DefaultPingTimeout
	}
	if c.Channel.WriteTimeout == 0 {
		c.Channel.WriteTimeout = DefaultWriteTimeout
	}
	if c.Channel.BufferSize == 0 {
		c.Channel.BufferSize = DefaultBufferSize
	}

	// Poller defaults
	if c.Poller.Interval == 0 {
		c.Poller.Interval = DefaultPollInterval
	}
	if c.Poller.Concurrency == 0 {
		c.Poller.Concurrency = DefaultPollConcurrency
	}
}
