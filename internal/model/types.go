package model

import (
	"time"

	"github.com/google/uuid"
)

// Session represents a trading session managed by the remote service.
type Session struct {
	ID        string    `json:"id"`
	Symbol    string    `json:"symbol"`
	Strategy  string    `json:"strategy"`
	Status    string    `json:"status"` // "open", "paused", "closed"
	OpenedAt  time.Time `json:"opened_at"`
	ClosedAt  time.Time `json:"closed_at,omitempty"`
	PnL       float64   `json:"pnl"`
	TradesNum int       `json:"trades_num"`
}

// IsOpen reports whether the session is still trading.
func (s Session) IsOpen() bool {
	return s.Status == "open" || s.Status == "paused"
}

// SessionStatus is the detailed status snapshot for a single session.
type SessionStatus struct {
	Session       Session   `json:"session"`
	OpenPositions int       `json:"open_positions"`
	UnrealizedPnL float64   `json:"unrealized_pnl"`
	LastTradeAt   time.Time `json:"last_trade_at,omitempty"`
}

// Trade represents an executed trade within a session.
type Trade struct {
	TradeID    uuid.UUID `json:"trade_id"`
	SessionID  string    `json:"session_id"`
	Symbol     string    `json:"symbol"`
	Side       string    `json:"side"` // "buy" or "sell"
	Price      float64   `json:"price"`
	Quantity   float64   `json:"quantity"`
	Fee        float64   `json:"fee"`
	ExecutedAt time.Time `json:"executed_at"`
}

// MarketAnalysis is the service's per-symbol market assessment.
type MarketAnalysis struct {
	Symbol      string             `json:"symbol"`
	Trend       string             `json:"trend"`  // "up", "down", "sideways"
	Signal      string             `json:"signal"` // "buy", "sell", "hold"
	Confidence  float64            `json:"confidence"`
	Price       float64            `json:"price"`
	Indicators  map[string]float64 `json:"indicators,omitempty"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// AssetBalance is the balance of a single asset.
type AssetBalance struct {
	Asset  string  `json:"asset"`
	Free   float64 `json:"free"`
	Locked float64 `json:"locked"`
}

// Balance is the aggregate account balance.
type Balance struct {
	TotalUSDT float64        `json:"total_usdt"`
	Assets    []AssetBalance `json:"assets"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// OpenSessionRequest are the parameters for opening a new session.
type OpenSessionRequest struct {
	Symbol   string  `json:"symbol"`
	Strategy string  `json:"strategy"`
	Budget   float64 `json:"budget"`
}

// PeriodicAnalysisRequest configures the server-side periodic analysis job.
type PeriodicAnalysisRequest struct {
	Symbols    []string `json:"symbols"`
	IntervalMs int64    `json:"interval_ms"`
}

// ServerInfo is the diagnostic snapshot reported by the service.
type ServerInfo struct {
	Version      string    `json:"version"`
	UptimeSec    int64     `json:"uptime_sec"`
	OpenSessions int       `json:"open_sessions"`
	RiskCheck    bool      `json:"risk_check"`
	StartedAt    time.Time `json:"started_at"`
}
