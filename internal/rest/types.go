package rest

import "github.com/Yurenko/front-t-bot/internal/model"

// SessionsResponse from GET /sessions
type SessionsResponse struct {
	Sessions []model.Session `json:"sessions"`
}

// SessionResponse from GET /sessions/{id} and POST /sessions
type SessionResponse struct {
	Session model.Session `json:"session"`
}

// SessionStatusResponse from GET /sessions/{id}
type SessionStatusResponse struct {
	Status model.SessionStatus `json:"status"`
}

// TradesResponse from GET /sessions/{id}/trades
type TradesResponse struct {
	Trades []model.Trade `json:"trades"`
}

// AnalysisResponse from GET /analysis/{symbol}
type AnalysisResponse struct {
	Analysis model.MarketAnalysis `json:"analysis"`
}

// AnalysisBatchResponse from GET /analysis?symbols=...
type AnalysisBatchResponse struct {
	Analyses []model.MarketAnalysis `json:"analyses"`
}

// BalanceResponse from GET /balance
type BalanceResponse struct {
	Balance model.Balance `json:"balance"`
}

// ServerInfoResponse from GET /info
type ServerInfoResponse struct {
	Info model.ServerInfo `json:"info"`
}

// PositionsCountResponse from GET /positions/count
type PositionsCountResponse struct {
	Count int `json:"count"`
}

// intervalRequest for PUT /analysis/periodic/interval
type intervalRequest struct {
	IntervalMs int64 `json:"interval_ms"`
}

// riskCheckRequest for PUT /risk/check
type riskCheckRequest struct {
	Enabled bool `json:"enabled"`
}
