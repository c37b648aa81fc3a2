package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Yurenko/front-t-bot/internal/model"
)

// GetAllSessions fetches every trading session.
func (c *Client) GetAllSessions(ctx context.Context) ([]model.Session, error) {
	return call(ctx, c, "getAllSessions", nil, c.rest.GetSessions)
}

// GetSessionStatus fetches the detailed status of one session.
func (c *Client) GetSessionStatus(ctx context.Context, sessionID string) (model.SessionStatus, error) {
	return call(ctx, c, "getSessionStatus", map[string]any{"session_id": sessionID},
		func(ctx context.Context) (model.SessionStatus, error) {
			st, err := c.rest.GetSessionStatus(ctx, sessionID)
			if err != nil {
				return model.SessionStatus{}, err
			}
			return *st, nil
		})
}

// GetSessionTrades fetches the trades executed within a session.
func (c *Client) GetSessionTrades(ctx context.Context, sessionID string) ([]model.Trade, error) {
	return call(ctx, c, "getSessionTrades", map[string]any{"session_id": sessionID},
		func(ctx context.Context) ([]model.Trade, error) {
			return c.rest.GetSessionTrades(ctx, sessionID)
		})
}

// GetMarketAnalysis fetches the analysis for one symbol.
func (c *Client) GetMarketAnalysis(ctx context.Context, symbol string) (model.MarketAnalysis, error) {
	return call(ctx, c, "getMarketAnalysis", map[string]any{"symbol": symbol},
		func(ctx context.Context) (model.MarketAnalysis, error) {
			a, err := c.rest.GetAnalysis(ctx, symbol)
			if err != nil {
				return model.MarketAnalysis{}, err
			}
			return *a, nil
		})
}

// GetMarketAnalysisBatch fetches analysis for several symbols. The two
// transports serialize batches differently (bare array, enveloped array,
// or symbol-keyed object); results are normalized to one slice ordered by
// the requested symbol list.
func (c *Client) GetMarketAnalysisBatch(ctx context.Context, symbols []string) ([]model.MarketAnalysis, error) {
	batch, err := call(ctx, c, "getMarketAnalysisBatch", map[string]any{"symbols": symbols},
		func(ctx context.Context) (analysisBatch, error) {
			analyses, err := c.rest.GetAnalysisBatch(ctx, symbols)
			return analysisBatch(analyses), err
		})
	if err != nil {
		return nil, err
	}
	return orderBySymbols(batch, symbols), nil
}

// GetTotalBalance fetches the aggregate account balance.
func (c *Client) GetTotalBalance(ctx context.Context) (model.Balance, error) {
	return call(ctx, c, "getTotalBalance", nil,
		func(ctx context.Context) (model.Balance, error) {
			b, err := c.rest.GetBalance(ctx)
			if err != nil {
				return model.Balance{}, err
			}
			return *b, nil
		})
}

// OpenSession asks the service to start a new trading session.
func (c *Client) OpenSession(ctx context.Context, req model.OpenSessionRequest) (model.Session, error) {
	return call(ctx, c, "openSession", req,
		func(ctx context.Context) (model.Session, error) {
			s, err := c.rest.OpenSession(ctx, req)
			if err != nil {
				return model.Session{}, err
			}
			return *s, nil
		})
}

// CloseSession asks the service to close a session.
func (c *Client) CloseSession(ctx context.Context, sessionID string) error {
	_, err := call(ctx, c, "closeSession", map[string]any{"session_id": sessionID},
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, c.rest.CloseSession(ctx, sessionID)
		})
	return err
}

// StartPeriodicAnalysis starts the server-side periodic analysis job.
func (c *Client) StartPeriodicAnalysis(ctx context.Context, symbols []string, interval time.Duration) error {
	params := model.PeriodicAnalysisRequest{
		Symbols:    symbols,
		IntervalMs: interval.Milliseconds(),
	}
	_, err := call(ctx, c, "startPeriodicAnalysis", params,
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, c.rest.StartPeriodicAnalysis(ctx, symbols, interval)
		})
	return err
}

// StopPeriodicAnalysis stops the server-side periodic analysis job.
func (c *Client) StopPeriodicAnalysis(ctx context.Context) error {
	_, err := call(ctx, c, "stopPeriodicAnalysis", nil,
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, c.rest.StopPeriodicAnalysis(ctx)
		})
	return err
}

// SetAnalysisInterval adjusts the periodic analysis interval.
func (c *Client) SetAnalysisInterval(ctx context.Context, interval time.Duration) error {
	_, err := call(ctx, c, "setAnalysisInterval", map[string]any{"interval_ms": interval.Milliseconds()},
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, c.rest.SetAnalysisInterval(ctx, interval)
		})
	return err
}

// SetRiskCheck toggles the service's pre-trade risk check.
func (c *Client) SetRiskCheck(ctx context.Context, enabled bool) error {
	_, err := call(ctx, c, "setRiskCheck", map[string]any{"enabled": enabled},
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, c.rest.SetRiskCheck(ctx, enabled)
		})
	return err
}

// GetServerInfo fetches the service's diagnostic snapshot.
func (c *Client) GetServerInfo(ctx context.Context) (model.ServerInfo, error) {
	return call(ctx, c, "getServerInfo", nil,
		func(ctx context.Context) (model.ServerInfo, error) {
			info, err := c.rest.GetServerInfo(ctx)
			if err != nil {
				return model.ServerInfo{}, err
			}
			return *info, nil
		})
}

// GetOpenPositionsCount fetches the number of open positions.
func (c *Client) GetOpenPositionsCount(ctx context.Context) (int, error) {
	n, err := call(ctx, c, "getOpenPositionsCount", nil,
		func(ctx context.Context) (positionsCount, error) {
			count, err := c.rest.GetOpenPositionsCount(ctx)
			return positionsCount(count), err
		})
	return int(n), err
}

// positionsCount tolerates both serializations of the count: a bare number
// (channel path) or a {"count": n} envelope.
type positionsCount int

func (p *positionsCount) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*p = positionsCount(n)
		return nil
	}

	var env struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("positions count: unexpected shape: %w", err)
	}
	*p = positionsCount(env.Count)
	return nil
}

// analysisBatch tolerates the three batch serializations: a bare array,
// an {"analyses": [...]} envelope, or a symbol-keyed object.
type analysisBatch []model.MarketAnalysis

func (b *analysisBatch) UnmarshalJSON(data []byte) error {
	var arr []model.MarketAnalysis
	if err := json.Unmarshal(data, &arr); err == nil {
		*b = arr
		return nil
	}

	var env struct {
		Analyses []model.MarketAnalysis `json:"analyses"`
	}
	if err := json.Unmarshal(data, &env); err == nil && env.Analyses != nil {
		*b = env.Analyses
		return nil
	}

	var bySymbol map[string]model.MarketAnalysis
	if err := json.Unmarshal(data, &bySymbol); err != nil {
		return fmt.Errorf("analysis batch: unexpected shape: %w", err)
	}

	out := make([]model.MarketAnalysis, 0, len(bySymbol))
	for sym, a := range bySymbol {
		if a.Symbol == "" {
			a.Symbol = sym
		}
		out = append(out, a)
	}
	*b = out
	return nil
}

// orderBySymbols arranges a batch in the order the symbols were requested;
// analyses for unrequested symbols keep their received order at the end.
func orderBySymbols(batch []model.MarketAnalysis, symbols []string) []model.MarketAnalysis {
	index := make(map[string]int, len(symbols))
	for i, s := range symbols {
		index[s] = i
	}

	ordered := make([]model.MarketAnalysis, 0, len(batch))
	rest := make([]model.MarketAnalysis, 0)
	slots := make(map[int]model.MarketAnalysis, len(batch))

	for _, a := range batch {
		if i, ok := index[a.Symbol]; ok {
			slots[i] = a
		} else {
			rest = append(rest, a)
		}
	}
	for i := range symbols {
		if a, ok := slots[i]; ok {
			ordered = append(ordered, a)
		}
	}
	return append(ordered, rest...)
}
