package connection

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Manager owns the lifecycle of the persistent channel: opening, closing,
// failure detection, bounded reconnection, the periodic health probe, and
// the current transport mode (channel-preferred vs. fallback-only).
//
// Connect never fails: every failure path demotes the manager to the REST
// fallback so the application is never blocked on transport availability.
type Manager struct {
	cfg    ManagerConfig
	logger *slog.Logger

	registry *Registry
	corr     *correlator

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu           sync.Mutex
	state        State
	usingChannel bool
	attempts     int
	client       Client
	connecting   chan struct{} // closed when the in-flight attempt settles
	closed       bool

	// newClient is swappable in tests.
	newClient func(cfg ClientConfig, logger *slog.Logger) Client
}

// NewManager creates a connection Manager. It does not dial until Start.
func NewManager(cfg ManagerConfig, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		cfg:          cfg,
		logger:       logger,
		registry:     NewRegistry(logger),
		corr:         newCorrelator(cfg.RequestTimeout, logger),
		usingChannel: cfg.PreferChannel,
		newClient:    NewClient,
	}
	// Usable before Start for direct Connect calls in tests and tools.
	m.ctx, m.cancel = context.WithCancel(context.Background())
	return m
}

// Start performs the initial connect attempt and launches the health probe.
func (m *Manager) Start(ctx context.Context) {
	if m.cancel != nil {
		m.cancel()
	}
	m.ctx, m.cancel = context.WithCancel(ctx)

	if m.cfg.PreferChannel {
		m.Connect(m.ctx)
	}

	m.wg.Add(1)
	go m.healthLoop()
}

// Stop tears everything down and waits for goroutines to drain.
func (m *Manager) Stop() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	if m.cancel != nil {
		m.cancel()
	}
	m.Disconnect()
	m.wg.Wait()

	m.logger.Info("connection manager stopped")
}

// Connect opens the persistent channel, racing the dial against the connect
// timeout. It is idempotent: when already connected it returns immediately,
// and a caller arriving while another connect is in flight waits for that
// attempt instead of opening a second socket.
//
// Connect never reports failure; on timeout or dial error it tears the
// nascent socket down and demotes the transport mode, and the caller is
// expected to proceed over the REST path.
func (m *Manager) Connect(ctx context.Context) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	switch m.state {
	case StateConnected:
		m.mu.Unlock()
		return
	case StateConnecting:
		wait := m.connecting
		m.mu.Unlock()
		select {
		case <-wait:
		case <-ctx.Done():
		}
		return
	}

	m.state = StateConnecting
	m.connecting = make(chan struct{})
	wait := m.connecting
	cli := m.newClient(ClientConfig{
		URL:          m.cfg.WSURL,
		PingTimeout:  m.cfg.PingTimeout,
		WriteTimeout: m.cfg.WriteTimeout,
		BufferSize:   m.cfg.BufferSize,
	}, m.logger)
	m.mu.Unlock()

	dialCtx, cancel := context.WithTimeout(ctx, m.cfg.ConnectTimeout)
	err := cli.Connect(dialCtx)
	cancel()

	m.mu.Lock()
	if m.closed {
		m.state = StateDisconnected
		close(wait)
		m.mu.Unlock()
		cli.Close()
		return
	}

	if err != nil {
		m.state = StateDisconnected
		m.usingChannel = false
		close(wait)
		m.mu.Unlock()

		cli.Close()
		m.logger.Warn("channel connect failed, continuing on rest fallback",
			"url", m.cfg.WSURL,
			"error", err,
		)
		return
	}

	m.client = cli
	m.state = StateConnected
	m.usingChannel = true
	m.attempts = 0
	close(wait)
	m.mu.Unlock()

	m.wg.Add(1)
	go m.readLoop(cli)

	m.logger.Info("channel connected", "url", m.cfg.WSURL)

	if m.cfg.ResubscribeOnReconnect {
		m.replaySubscriptions()
	}
}

// Disconnect tears the channel down unconditionally. Safe to call when
// already disconnected.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	cli := m.client
	m.client = nil
	m.state = StateDisconnected
	m.mu.Unlock()

	if cli != nil {
		cli.Close()
	}
	m.corr.failAll(ErrTransportUnavailable)
}

// Demote switches the transport mode to fallback-only. The periodic health
// probe is the only path that promotes it back.
func (m *Manager) Demote() {
	m.mu.Lock()
	m.usingChannel = false
	m.mu.Unlock()
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Connected reports whether the channel is currently established.
func (m *Manager) Connected() bool {
	return m.State() == StateConnected
}

// UsingChannel reports whether the channel path is currently preferred.
func (m *Manager) UsingChannel() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.usingChannel
}

// ReconnectAttempts returns the current reconnect attempt counter.
func (m *Manager) ReconnectAttempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts
}

// Stats returns the connectivity snapshot for status panels.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	connected := m.state == StateConnected
	usingChannel := m.usingChannel
	attempts := m.attempts
	m.mu.Unlock()

	return Stats{
		Connected:         connected,
		UsingChannel:      usingChannel,
		ReconnectAttempts: attempts,
		Subscriptions:     m.registry.Count(),
	}
}

// Registry exposes the subscription registry for listener registration
// and synthetic dispatch (e.g. from the fallback poller).
func (m *Manager) Registry() *Registry {
	return m.registry
}

// SendRequest performs one request/response exchange over the channel.
// It fails immediately with ErrTransportUnavailable unless the channel is
// connected and preferred; the dispatcher catches that and takes the REST
// path.
func (m *Manager) SendRequest(ctx context.Context, method string, params any) (json.RawMessage, error) {
	m.mu.Lock()
	if m.state != StateConnected || !m.usingChannel || m.client == nil {
		m.mu.Unlock()
		return nil, ErrTransportUnavailable
	}
	cli := m.client
	m.mu.Unlock()

	return m.corr.send(ctx, cli, method, params)
}

// Subscribe asks the server to push broadcasts for a topic. Idempotent:
// a key already tracked sends nothing. When disconnected the key is still
// tracked locally and the caller is expected to poll instead of waiting
// for push.
func (m *Manager) Subscribe(topic string, scope map[string]string) {
	key, added := m.registry.add(topic, scope)
	if !added {
		return
	}
	m.logger.Debug("subscribed", "key", key)
	m.sendControl("subscribe", topic, scope)
}

// Unsubscribe removes a tracked topic and tells the server to stop pushing.
func (m *Manager) Unsubscribe(topic string, scope map[string]string) {
	key, removed := m.registry.remove(topic, scope)
	if !removed {
		return
	}
	m.logger.Debug("unsubscribed", "key", key)
	m.sendControl("unsubscribe", topic, scope)
}

// On registers a broadcast listener for an event type.
func (m *Manager) On(eventType string, fn Listener) func() {
	return m.registry.On(eventType, fn)
}

// sendControl fires a subscribe/unsubscribe message when connected; a local
// no-op otherwise.
func (m *Manager) sendControl(action, topic string, scope map[string]string) {
	m.mu.Lock()
	cli := m.client
	connected := m.state == StateConnected
	m.mu.Unlock()

	if !connected || cli == nil {
		return
	}

	payload := map[string]any{"channel": topic}
	for k, v := range scope {
		payload[k] = v
	}

	data, err := json.Marshal(Control{Type: action, Payload: payload})
	if err != nil {
		m.logger.Warn("failed to marshal control message", "action", action, "error", err)
		return
	}

	if err := cli.Send(data); err != nil {
		m.logger.Warn("failed to send control message",
			"action", action,
			"topic", topic,
			"error", err,
		)
	}
}

// replaySubscriptions re-issues subscribe messages for every tracked topic.
func (m *Manager) replaySubscriptions() {
	entries := m.registry.snapshot()
	if len(entries) == 0 {
		return
	}

	m.logger.Info("replaying subscriptions", "count", len(entries))
	for _, e := range entries {
		m.sendControl("subscribe", e.topic, e.scope)
	}
}

// readLoop consumes one client's messages until the connection dies.
// Responses settle their pending requests; everything else fans out as a
// broadcast.
func (m *Manager) readLoop(cli Client) {
	defer m.wg.Done()

	for {
		select {
		case <-m.ctx.Done():
			return

		case err := <-cli.Errors():
			m.handleConnectionLoss(cli, err)
			return

		case msg, ok := <-cli.Messages():
			if !ok {
				m.handleConnectionLoss(cli, ErrNotConnected)
				return
			}
			m.route(msg.Data)
		}
	}
}

// route classifies one inbound message: correlated response, broadcast, or
// noise.
func (m *Manager) route(data []byte) {
	var msg inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		m.logger.Debug("dropping unparseable message", "error", err)
		return
	}

	if m.corr.resolve(msg) {
		return
	}

	if msg.Type == "" {
		m.logger.Debug("dropping message with no id and no type")
		return
	}

	m.registry.Dispatch(msg.Type, msg.Data)
}

// handleConnectionLoss reacts to an unexpected close. A deliberate server
// close (enumerated close codes) demotes without retrying; anything else
// enters the bounded reconnect procedure.
func (m *Manager) handleConnectionLoss(cli Client, err error) {
	m.mu.Lock()
	if m.closed || m.client != cli {
		// Stale loop from a previous connection generation.
		m.mu.Unlock()
		return
	}
	m.client = nil
	m.state = StateDisconnected
	m.mu.Unlock()

	cli.Close()

	// Fail in-flight requests now so callers fall back instead of waiting
	// out their timeouts.
	m.corr.failAll(ErrTransportUnavailable)

	if isDeliberateClose(err) {
		m.logger.Info("server closed the channel deliberately, not retrying", "error", err)
		m.Demote()
		return
	}

	m.logger.Warn("channel lost", "error", err)
	m.scheduleReconnect()
}

// isDeliberateClose reports whether the server severed the connection on
// purpose. Normal closure and policy violation suppress reconnection;
// every other close code or read error counts as network-level loss.
func isDeliberateClose(err error) bool {
	return websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.ClosePolicyViolation,
	)
}

// scheduleReconnect runs the bounded retry procedure: while attempts remain,
// wait the fixed delay and connect again; once exhausted, demote until the
// health probe issues a fresh connect.
func (m *Manager) scheduleReconnect() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	if m.attempts >= m.cfg.MaxReconnectAttempts {
		m.usingChannel = false
		attempts := m.attempts
		m.mu.Unlock()

		m.logger.Warn("reconnect attempts exhausted, waiting for health check",
			"attempts", attempts,
		)
		return
	}
	m.attempts++
	attempt := m.attempts
	m.mu.Unlock()

	m.logger.Info("scheduling reconnect",
		"attempt", attempt,
		"max", m.cfg.MaxReconnectAttempts,
		"delay", m.cfg.ReconnectDelay,
	)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		select {
		case <-m.ctx.Done():
			return
		case <-time.After(m.cfg.ReconnectDelay):
		}

		m.Connect(m.ctx)
		if !m.Connected() {
			m.scheduleReconnect()
		}
	}()
}

// healthLoop periodically revives the channel. A probe connect is fresh:
// it resets the attempt counter, so it can recover even after the bounded
// retry path gave up.
func (m *Manager) healthLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			if !m.cfg.PreferChannel || m.Connected() {
				continue
			}

			m.mu.Lock()
			m.attempts = 0
			m.mu.Unlock()

			m.logger.Debug("health check reconnect attempt")
			m.Connect(m.ctx)
		}
	}
}
