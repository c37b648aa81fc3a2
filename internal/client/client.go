package client

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/Yurenko/front-t-bot/internal/config"
	"github.com/Yurenko/front-t-bot/internal/connection"
	"github.com/Yurenko/front-t-bot/internal/model"
	"github.com/Yurenko/front-t-bot/internal/rest"
)

// Subscription topics understood by the trading service.
const (
	TopicSessions       = "sessions"
	TopicTrades         = "trades"
	TopicMarketAnalysis = "market_analysis"
)

// Broadcast event types pushed by the trading service.
const (
	EventSessionsUpdate = "sessions_update"
	EventTrade          = "trade"
	EventMarketAnalysis = "market_analysis"
	EventBalanceUpdate  = "balance_update"
)

// Client brokers all communication between the dashboard and the trading
// service over both transports.
type Client struct {
	logger *slog.Logger
	conn   *connection.Manager
	rest   *rest.Client
}

// New builds a Client from configuration. Call Start before use.
func New(cfg *config.DashboardConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	mgrCfg := connection.ManagerConfig{
		WSURL:                  cfg.API.WSURL,
		PreferChannel:          cfg.Channel.PreferChannel,
		ConnectTimeout:         cfg.Channel.ConnectTimeout,
		RequestTimeout:         cfg.Channel.RequestTimeout,
		HealthCheckInterval:    cfg.Channel.HealthCheckInterval,
		MaxReconnectAttempts:   cfg.Channel.MaxReconnectAttempts,
		ReconnectDelay:         cfg.Channel.ReconnectDelay,
		ResubscribeOnReconnect: cfg.Channel.ResubscribeOnReconnect,
		PingTimeout:            cfg.Channel.PingTimeout,
		WriteTimeout:           cfg.Channel.WriteTimeout,
		BufferSize:             cfg.Channel.BufferSize,
	}

	restClient := rest.NewClient(cfg.API.RestURL,
		rest.WithTimeout(cfg.API.Timeout),
		rest.WithRetries(cfg.API.MaxRetries, time.Second),
		rest.WithLogger(logger),
	)

	return &Client{
		logger: logger,
		conn:   connection.NewManager(mgrCfg, logger),
		rest:   restClient,
	}
}

// newWith wires a Client from already-built parts (tests).
func newWith(conn *connection.Manager, restClient *rest.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{logger: logger, conn: conn, rest: restClient}
}

// Start connects the channel (best effort) and launches the health probe.
func (c *Client) Start(ctx context.Context) {
	c.conn.Start(ctx)
}

// Stop tears down the channel and all timers.
func (c *Client) Stop() {
	c.conn.Stop()
}

// Status returns the synchronous connectivity snapshot for status panels.
func (c *Client) Status() connection.Stats {
	return c.conn.Stats()
}

// Emit injects a synthetic broadcast into the local listener fan-out.
// The fallback poller uses this to keep push topics alive when the
// channel is down.
func (c *Client) Emit(eventType string, data json.RawMessage) {
	c.conn.Registry().Dispatch(eventType, data)
}

// On registers a raw listener for a broadcast event type.
func (c *Client) On(eventType string, fn connection.Listener) func() {
	return c.conn.On(eventType, fn)
}

// SubscribeSessions asks for push updates of the session list.
func (c *Client) SubscribeSessions() {
	c.conn.Subscribe(TopicSessions, nil)
}

// UnsubscribeSessions stops push updates of the session list.
func (c *Client) UnsubscribeSessions() {
	c.conn.Unsubscribe(TopicSessions, nil)
}

// SubscribeTrades asks for push updates of one session's trades.
func (c *Client) SubscribeTrades(sessionID string) {
	c.conn.Subscribe(TopicTrades, map[string]string{"session_id": sessionID})
}

// UnsubscribeTrades stops push updates of one session's trades.
func (c *Client) UnsubscribeTrades(sessionID string) {
	c.conn.Unsubscribe(TopicTrades, map[string]string{"session_id": sessionID})
}

// SubscribeMarketAnalysis asks for push updates of one symbol's analysis.
func (c *Client) SubscribeMarketAnalysis(symbol string) {
	c.conn.Subscribe(TopicMarketAnalysis, map[string]string{"symbol": symbol})
}

// UnsubscribeMarketAnalysis stops push updates of one symbol's analysis.
func (c *Client) UnsubscribeMarketAnalysis(symbol string) {
	c.conn.Unsubscribe(TopicMarketAnalysis, map[string]string{"symbol": symbol})
}

// OnSessionsUpdate registers a typed listener for session list pushes.
func (c *Client) OnSessionsUpdate(fn func([]model.Session)) func() {
	return on(c, EventSessionsUpdate, fn)
}

// OnTrade registers a typed listener for trade pushes.
func (c *Client) OnTrade(fn func(model.Trade)) func() {
	return on(c, EventTrade, fn)
}

// OnMarketAnalysis registers a typed listener for analysis pushes.
func (c *Client) OnMarketAnalysis(fn func(model.MarketAnalysis)) func() {
	return on(c, EventMarketAnalysis, fn)
}

// OnBalanceUpdate registers a typed listener for balance pushes.
func (c *Client) OnBalanceUpdate(fn func(model.Balance)) func() {
	return on(c, EventBalanceUpdate, fn)
}

// on decodes broadcast payloads into the listener's typed argument.
// An unrecognized payload is a decode error, not a silently ignored any.
func on[T any](c *Client, eventType string, fn func(T)) func() {
	return c.conn.On(eventType, func(data json.RawMessage) {
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			c.logger.Warn("failed to decode broadcast payload",
				"type", eventType,
				"error", err,
			)
			return
		}
		fn(v)
	})
}
