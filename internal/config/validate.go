package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks that all required fields are set and values are valid.
func (c *DashboardConfig) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if c.API.RestURL == "" {
		return errors.New("api.rest_url is required")
	}
	if c.API.WSURL == "" {
		return errors.New("api.ws_url is required")
	}
	if !strings.HasPrefix(c.API.WSURL, "ws://") && !strings.HasPrefix(c.API.WSURL, "wss://") {
		return fmt.Errorf("api.ws_url must use ws:// or wss:// scheme, got %q", c.API.WSURL)
	}
	if c.API.MaxRetries < 0 {
		return errors.New("api.max_retries must be >= 0")
	}

	if c.Channel.ConnectTimeout <= 0 {
		return errors.New("channel.connect_timeout must be > 0")
	}
	if c.Channel.RequestTimeout <= 0 {
		return errors.New("channel.request_timeout must be > 0")
	}
	if c.Channel.HealthCheckInterval <= 0 {
		return errors.New("channel.health_check_interval must be > 0")
	}
	if c.Channel.MaxReconnectAttempts < 1 {
		return errors.New("channel.max_reconnect_attempts must be >= 1")
	}
	if c.Channel.ReconnectDelay <= 0 {
		return errors.New("channel.reconnect_delay must be > 0")
	}
	if c.Channel.BufferSize < 1 {
		return errors.New("channel.buffer_size must be >= 1")
	}

	if c.Poller.Enabled {
		if c.Poller.Interval <= 0 {
			return errors.New("poller.interval must be > 0")
		}
		if c.Poller.Concurrency < 1 {
			return errors.New("poller.concurrency must be >= 1")
		}
	}

	return nil
}
