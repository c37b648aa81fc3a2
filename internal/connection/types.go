package connection

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Errors
var (
	ErrNotConnected         = errors.New("not connected")
	ErrStaleConnection      = errors.New("connection stale (no ping)")
	ErrAlreadyClosed        = errors.New("already closed")
	ErrTransportUnavailable = errors.New("channel transport unavailable")
	ErrRequestTimeout       = errors.New("request timeout")
)

// ServerError is a response with success=false, carrying the server's
// human-readable rejection message. It is final: the dispatcher does not
// retry it over the fallback path.
type ServerError struct {
	Method  string
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server rejected %s: %s", e.Method, e.Message)
}

// State is the connection lifecycle state, mutated only by the Manager.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	}
	return "unknown"
}

// TimestampedMessage wraps raw message data with receive timestamp.
type TimestampedMessage struct {
	Data       []byte    // Raw message bytes from WebSocket
	ReceivedAt time.Time // Local timestamp when ReadMessage() returned
}

// Request is an outbound request/response exchange over the channel.
type Request struct {
	ID     string `json:"id"`
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
}

// Response is the server's reply to a Request, correlated by ID.
type Response struct {
	ID      string          `json:"id"`
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Control is a fire-and-forget subscribe/unsubscribe message.
type Control struct {
	Type    string         `json:"type"` // "subscribe" or "unsubscribe"
	Payload map[string]any `json:"payload"`
}

// Broadcast is an unsolicited server-push message routed by Type.
type Broadcast struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// inbound is the superset shape used to classify incoming messages:
// a non-empty ID marks request/response traffic, a non-empty Type marks
// a broadcast. Anything else is dropped.
type inbound struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// ClientConfig configures a WebSocket client.
type ClientConfig struct {
	URL          string        // WebSocket URL (e.g., ws://localhost:8080/ws)
	PingTimeout  time.Duration // Max time without ping/pong before considering connection stale
	WriteTimeout time.Duration // Write deadline for sends
	BufferSize   int           // Message channel buffer size
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		PingTimeout:  60 * time.Second,
		WriteTimeout: 5 * time.Second,
		BufferSize:   1000,
	}
}

// ManagerConfig configures the connection Manager.
type ManagerConfig struct {
	WSURL                  string        // WebSocket URL of the trading service
	PreferChannel          bool          // Whether the channel path is preferred at all
	ConnectTimeout         time.Duration // Cap on a single connect attempt
	RequestTimeout         time.Duration // Per-request response deadline
	HealthCheckInterval    time.Duration // Period of the reconnect health probe
	MaxReconnectAttempts   int           // Bounded retries on network-level loss
	ReconnectDelay         time.Duration // Fixed delay between reconnect attempts
	ResubscribeOnReconnect bool          // Replay tracked subscriptions after a successful connect
	PingTimeout            time.Duration // Passed to the client
	WriteTimeout           time.Duration // Passed to the client
	BufferSize             int           // Passed to the client
}

// DefaultManagerConfig returns sensible defaults.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		PreferChannel:          true,
		ConnectTimeout:         5 * time.Second,
		RequestTimeout:         30 * time.Second,
		HealthCheckInterval:    30 * time.Second,
		MaxReconnectAttempts:   5,
		ReconnectDelay:         5 * time.Second,
		ResubscribeOnReconnect: true,
		PingTimeout:            60 * time.Second,
		WriteTimeout:           5 * time.Second,
		BufferSize:             1000,
	}
}

// Stats is the synchronous connectivity snapshot exposed to UI collaborators.
type Stats struct {
	Connected         bool
	UsingChannel      bool
	ReconnectAttempts int
	Subscriptions     int
}
