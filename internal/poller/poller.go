package poller

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Yurenko/front-t-bot/internal/model"
)

// AnalysisSource fetches analysis for one symbol (the dashboard client).
type AnalysisSource interface {
	GetMarketAnalysis(ctx context.Context, symbol string) (model.MarketAnalysis, error)
}

// ChannelStatus reports whether push delivery is currently live.
type ChannelStatus interface {
	Connected() bool
}

// Handler receives polled analyses.
type Handler interface {
	HandleAnalysis(analysis model.MarketAnalysis)
}

// HandlerFunc is a function adapter for Handler.
type HandlerFunc func(model.MarketAnalysis)

func (f HandlerFunc) HandleAnalysis(a model.MarketAnalysis) {
	f(a)
}

// Config holds poller configuration.
type Config struct {
	Interval    time.Duration // Poll interval (default: 1m)
	Concurrency int           // Max concurrent requests (default: 4)
	Timeout     time.Duration // Per-request timeout (default: 10s)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval:    time.Minute,
		Concurrency: 4,
		Timeout:     10 * time.Second,
	}
}

// Poller periodically fetches market analysis while push is unavailable.
type Poller struct {
	cfg     Config
	source  AnalysisSource
	status  ChannelStatus
	handler Handler
	symbols []string
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Poller. status may be nil to poll unconditionally.
func New(cfg Config, source AnalysisSource, status ChannelStatus, symbols []string, handler Handler, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		cfg:     cfg,
		source:  source,
		status:  status,
		handler: handler,
		symbols: symbols,
		logger:  logger,
	}
}

// Start begins the polling loop.
func (p *Poller) Start(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.run()

	p.logger.Info("analysis poller started",
		"interval", p.cfg.Interval,
		"concurrency", p.cfg.Concurrency,
		"symbols", len(p.symbols),
	)

	return nil
}

// Stop gracefully shuts down the poller.
func (p *Poller) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("analysis poller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the main polling loop.
func (p *Poller) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			if p.status != nil && p.status.Connected() {
				// Push is live; polling would duplicate broadcasts.
				continue
			}
			p.pollAll()
		}
	}
}

// pollAll fetches analysis for all watched symbols concurrently.
func (p *Poller) pollAll() {
	start := time.Now()

	if len(p.symbols) == 0 {
		p.logger.Debug("no symbols to poll")
		return
	}

	// Semaphore for bounded concurrency.
	sem := make(chan struct{}, p.cfg.Concurrency)
	var wg sync.WaitGroup
	var fetched, errors atomic.Int64

	for _, symbol := range p.symbols {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()

			// Acquire semaphore slot.
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-p.ctx.Done():
				return
			}

			if err := p.pollSymbol(symbol); err != nil {
				p.logger.Warn("failed to poll analysis",
					"symbol", symbol,
					"err", err,
				)
				errors.Add(1)
				return
			}

			fetched.Add(1)
		}(symbol)
	}

	wg.Wait()

	p.logger.Debug("poll cycle complete",
		"symbols", len(p.symbols),
		"fetched", fetched.Load(),
		"errors", errors.Load(),
		"duration", time.Since(start),
	)
}

// pollSymbol fetches and handles a single symbol's analysis.
func (p *Poller) pollSymbol(symbol string) error {
	ctx, cancel := context.WithTimeout(p.ctx, p.cfg.Timeout)
	defer cancel()

	analysis, err := p.source.GetMarketAnalysis(ctx, symbol)
	if err != nil {
		return err
	}

	if p.handler != nil {
		p.handler.HandleAnalysis(analysis)
	}

	return nil
}
