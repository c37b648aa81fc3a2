package rest

import (
	"context"
	"fmt"

	"github.com/Yurenko/front-t-bot/internal/model"
)

// GetBalance fetches the aggregate account balance.
func (c *Client) GetBalance(ctx context.Context) (*model.Balance, error) {
	var resp BalanceResponse
	if err := c.get(ctx, "/balance", nil, &resp); err != nil {
		return nil, fmt.Errorf("get balance: %w", err)
	}
	return &resp.Balance, nil
}

// GetServerInfo fetches the service's diagnostic snapshot.
func (c *Client) GetServerInfo(ctx context.Context) (*model.ServerInfo, error) {
	var resp ServerInfoResponse
	if err := c.get(ctx, "/info", nil, &resp); err != nil {
		return nil, fmt.Errorf("get server info: %w", err)
	}
	return &resp.Info, nil
}

// GetOpenPositionsCount fetches the number of open positions.
func (c *Client) GetOpenPositionsCount(ctx context.Context) (int, error) {
	var resp PositionsCountResponse
	if err := c.get(ctx, "/positions/count", nil, &resp); err != nil {
		return 0, fmt.Errorf("get open positions count: %w", err)
	}
	return resp.Count, nil
}

// SetRiskCheck toggles the service's pre-trade risk check.
func (c *Client) SetRiskCheck(ctx context.Context, enabled bool) error {
	if err := c.put(ctx, "/risk/check", riskCheckRequest{Enabled: enabled}, nil); err != nil {
		return fmt.Errorf("set risk check: %w", err)
	}
	return nil
}
