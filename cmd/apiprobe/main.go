// apiprobe exercises every dashboard operation over the stateless REST
// path (the channel is disabled), printing results as JSON. Useful for
// verifying a trading service deployment before pointing the dashboard
// at it.
//
// Usage: go run ./cmd/apiprobe --config configs/dashboard.local.yaml
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Yurenko/front-t-bot/internal/client"
	"github.com/Yurenko/front-t-bot/internal/config"
	"github.com/Yurenko/front-t-bot/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/dashboard.example.yaml", "path to config file")
	symbol := flag.String("symbol", "BTCUSDT", "symbol for analysis probes")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Force the stateless path: every call below goes over REST.
	cfg.Channel.PreferChannel = false

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cli := client.New(cfg, logger)
	cli.Start(ctx)
	defer cli.Stop()

	fmt.Fprintf(os.Stderr, "apiprobe %s → %s\n", version.String(), cfg.API.RestURL)

	failures := 0

	probe(ctx, "server_info", &failures, cli.GetServerInfo)
	probe(ctx, "sessions", &failures, cli.GetAllSessions)
	probe(ctx, "balance", &failures, cli.GetTotalBalance)
	probe(ctx, "open_positions", &failures, cli.GetOpenPositionsCount)
	probe(ctx, "analysis", &failures, func(ctx context.Context) (any, error) {
		return cli.GetMarketAnalysis(ctx, *symbol)
	})
	probe(ctx, "analysis_batch", &failures, func(ctx context.Context) (any, error) {
		return cli.GetMarketAnalysisBatch(ctx, []string{*symbol})
	})

	if failures > 0 {
		fmt.Fprintf(os.Stderr, "%d probe(s) failed\n", failures)
		os.Exit(1)
	}
}

// probe runs one operation and prints its result as indented JSON.
func probe[T any](ctx context.Context, name string, failures *int, op func(context.Context) (T, error)) {
	result, err := op(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: ERROR: %v\n", name, err)
		*failures++
		return
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: marshal: %v\n", name, err)
		*failures++
		return
	}
	fmt.Printf("--- %s ---\n%s\n", name, data)
}
