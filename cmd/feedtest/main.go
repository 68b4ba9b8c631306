// feedtest connects to the provider WebSocket and streams parsed ticks to
// console. Usage: go run ./cmd/feedtest --config configs/ingestor.local.yaml
//
// Required environment variables:
//
//	COINAPI_KEY - Your provider API key
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/coinstream/price-data/internal/config"
	"github.com/coinstream/price-data/internal/feed"
	"github.com/coinstream/price-data/internal/model"
	"github.com/coinstream/price-data/internal/supervisor"
	"github.com/coinstream/price-data/internal/symbol"
)

func main() {
	configPath := flag.String("config", "configs/ingestor.local.yaml", "path to config file")
	flag.Parse()

	// Setup logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	// Load config
	cfg, err := config.LoadWithDefaults(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if cfg.Feed.APIKey == "" {
		logger.Error("API credentials required for WebSocket")
		logger.Info("Set environment variable: COINAPI_KEY")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	codec := symbol.NewCodec(cfg.Assets)

	var ticks atomic.Int64
	sink := feed.SinkFunc(func(u model.PriceUpdate) {
		ticks.Add(1)
		fmt.Printf("[TICK] pair=%s price=%.8g received=%s\n",
			u.Pair, u.Price, u.ReceivedAt.Format(time.RFC3339Nano))
	})

	feedCfg := feed.DefaultClientConfig()
	feedCfg.URL = cfg.Feed.WSURL
	feedCfg.APIKey = cfg.Feed.APIKey

	client, err := feed.NewClient(feedCfg, codec, sink, logger)
	if err != nil {
		logger.Error("failed to create feed client", "error", err)
		os.Exit(1)
	}

	supCfg := supervisor.Config{
		ErrorBackoff:    cfg.Supervisor.ErrorBackoff,
		CompleteBackoff: cfg.Supervisor.CompleteBackoff,
		RotationBackoff: cfg.Supervisor.RotationBackoff,
		MaxLifetime:     cfg.Supervisor.MaxLifetime,
	}
	sup := supervisor.New(supCfg, supervisor.ClientOpener{Client: client}, logger)

	logger.Info("starting feed supervisor", "ws_url", cfg.Feed.WSURL, "assets", cfg.Assets)
	if err := sup.Start(ctx); err != nil {
		logger.Error("failed to start supervisor", "error", err)
		os.Exit(1)
	}

	// Stats printer
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				logger.Info("stats",
					"state", sup.State(),
					"ticks", ticks.Load(),
				)
			}
		}
	}()

	logger.Info("streaming started - press Ctrl+C to stop")

	// Wait for shutdown
	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	logger.Info("shutting down...")
	sup.Stop(shutdownCtx)

	logger.Info("shutdown complete")
}
