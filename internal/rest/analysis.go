package rest

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Yurenko/front-t-bot/internal/model"
)

// GetAnalysis fetches the market analysis for a single symbol.
func (c *Client) GetAnalysis(ctx context.Context, symbol string) (*model.MarketAnalysis, error) {
	var resp AnalysisResponse
	if err := c.get(ctx, "/analysis/"+symbol, nil, &resp); err != nil {
		return nil, fmt.Errorf("get analysis for %s: %w", symbol, err)
	}
	return &resp.Analysis, nil
}

// GetAnalysisBatch fetches market analysis for several symbols at once.
func (c *Client) GetAnalysisBatch(ctx context.Context, symbols []string) ([]model.MarketAnalysis, error) {
	query := url.Values{}
	query.Set("symbols", strings.Join(symbols, ","))

	var resp AnalysisBatchResponse
	if err := c.get(ctx, "/analysis", query, &resp); err != nil {
		return nil, fmt.Errorf("get analysis batch: %w", err)
	}
	return resp.Analyses, nil
}

// StartPeriodicAnalysis starts the server-side periodic analysis job.
func (c *Client) StartPeriodicAnalysis(ctx context.Context, symbols []string, interval time.Duration) error {
	req := model.PeriodicAnalysisRequest{
		Symbols:    symbols,
		IntervalMs: interval.Milliseconds(),
	}
	if err := c.post(ctx, "/analysis/periodic/start", req, nil); err != nil {
		return fmt.Errorf("start periodic analysis: %w", err)
	}
	return nil
}

// StopPeriodicAnalysis stops the server-side periodic analysis job.
func (c *Client) StopPeriodicAnalysis(ctx context.Context) error {
	if err := c.post(ctx, "/analysis/periodic/stop", nil, nil); err != nil {
		return fmt.Errorf("stop periodic analysis: %w", err)
	}
	return nil
}

// SetAnalysisInterval adjusts the periodic analysis interval.
func (c *Client) SetAnalysisInterval(ctx context.Context, interval time.Duration) error {
	if err := c.put(ctx, "/analysis/periodic/interval", intervalRequest{IntervalMs: interval.Milliseconds()}, nil); err != nil {
		return fmt.Errorf("set analysis interval: %w", err)
	}
	return nil
}
