// deskwatch connects to the trading service and streams dashboard data to
// the console: session updates, trades, market analysis, and a periodic
// connectivity status line.
//
// Usage: go run ./cmd/deskwatch --config configs/dashboard.local.yaml
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Yurenko/front-t-bot/internal/client"
	"github.com/Yurenko/front-t-bot/internal/config"
	"github.com/Yurenko/front-t-bot/internal/model"
	"github.com/Yurenko/front-t-bot/internal/poller"
	"github.com/Yurenko/front-t-bot/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/dashboard.example.yaml", "path to config file")
	verbose := flag.Bool("verbose", false, "print full payload JSON")
	flag.Parse()

	// Setup logger
	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	logger.Info("starting deskwatch",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// One client per process, shared by reference.
	cli := client.New(cfg, logger)
	cli.Start(ctx)
	defer cli.Stop()

	// Subscribe to push topics.
	cli.SubscribeSessions()
	for _, symbol := range cfg.Watch.Symbols {
		cli.SubscribeMarketAnalysis(symbol)
	}

	// Typed listeners print incoming broadcasts.
	cli.OnSessionsUpdate(func(sessions []model.Session) {
		open := 0
		for _, s := range sessions {
			if s.IsOpen() {
				open++
			}
		}
		fmt.Printf("[sessions] total=%d open=%d\n", len(sessions), open)
	})
	cli.OnTrade(func(t model.Trade) {
		fmt.Printf("[trade] %s %s %s %.8f @ %.8f\n",
			t.SessionID, t.Symbol, t.Side, t.Quantity, t.Price)
	})
	cli.OnMarketAnalysis(func(a model.MarketAnalysis) {
		fmt.Printf("[analysis] %s trend=%s signal=%s confidence=%.2f price=%.8f\n",
			a.Symbol, a.Trend, a.Signal, a.Confidence, a.Price)
	})
	cli.OnBalanceUpdate(func(b model.Balance) {
		fmt.Printf("[balance] total=%.2f USDT assets=%d\n", b.TotalUSDT, len(b.Assets))
	})

	g, gctx := errgroup.WithContext(ctx)

	// Keep analysis flowing while the channel is down.
	if cfg.Poller.Enabled {
		p := poller.New(poller.Config{
			Interval:    cfg.Poller.Interval,
			Concurrency: cfg.Poller.Concurrency,
			Timeout:     cfg.API.Timeout,
		}, cli, channelStatus{cli}, cfg.Watch.Symbols, poller.HandlerFunc(func(a model.MarketAnalysis) {
			data, err := json.Marshal(a)
			if err != nil {
				logger.Warn("failed to marshal polled analysis", "error", err)
				return
			}
			cli.Emit(client.EventMarketAnalysis, data)
		}), logger)

		if err := p.Start(gctx); err != nil {
			logger.Error("failed to start poller", "error", err)
			os.Exit(1)
		}
		g.Go(func() error {
			<-gctx.Done()
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return p.Stop(stopCtx)
		})
	}

	// Periodic connectivity status line.
	g.Go(func() error {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				st := cli.Status()
				fmt.Printf("[status] connected=%t channel=%t reconnects=%d subscriptions=%d\n",
					st.Connected, st.UsingChannel, st.ReconnectAttempts, st.Subscriptions)
			}
		}
	})

	if err := g.Wait(); err != nil {
		logger.Error("deskwatch exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("deskwatch stopped")
}

// channelStatus adapts the client's status snapshot to the poller's
// ChannelStatus interface.
type channelStatus struct {
	cli *client.Client
}

func (s channelStatus) Connected() bool {
	return s.cli.Status().Connected
}
