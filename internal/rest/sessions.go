package rest

import (
	"context"
	"fmt"

	"github.com/Yurenko/front-t-bot/internal/model"
)

// GetSessions fetches all trading sessions.
func (c *Client) GetSessions(ctx context.Context) ([]model.Session, error) {
	var resp SessionsResponse
	if err := c.get(ctx, "/sessions", nil, &resp); err != nil {
		return nil, fmt.Errorf("get sessions: %w", err)
	}
	return resp.Sessions, nil
}

// GetSessionStatus fetches the detailed status of one session.
func (c *Client) GetSessionStatus(ctx context.Context, sessionID string) (*model.SessionStatus, error) {
	var resp SessionStatusResponse
	if err := c.get(ctx, "/sessions/"+sessionID, nil, &resp); err != nil {
		return nil, fmt.Errorf("get session %s: %w", sessionID, err)
	}
	return &resp.Status, nil
}

// GetSessionTrades fetches the trades executed within a session.
func (c *Client) GetSessionTrades(ctx context.Context, sessionID string) ([]model.Trade, error) {
	var resp TradesResponse
	if err := c.get(ctx, "/sessions/"+sessionID+"/trades", nil, &resp); err != nil {
		return nil, fmt.Errorf("get trades for session %s: %w", sessionID, err)
	}
	return resp.Trades, nil
}

// OpenSession asks the service to start a new trading session.
func (c *Client) OpenSession(ctx context.Context, req model.OpenSessionRequest) (*model.Session, error) {
	var resp SessionResponse
	if err := c.post(ctx, "/sessions", req, &resp); err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	return &resp.Session, nil
}

// CloseSession asks the service to close a session.
func (c *Client) CloseSession(ctx context.Context, sessionID string) error {
	if err := c.post(ctx, "/sessions/"+sessionID+"/close", nil, nil); err != nil {
		return fmt.Errorf("close session %s: %w", sessionID, err)
	}
	return nil
}
