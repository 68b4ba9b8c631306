package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/coinstream/price-data/internal/api"
	"github.com/coinstream/price-data/internal/config"
	"github.com/coinstream/price-data/internal/database"
	"github.com/coinstream/price-data/internal/feed"
	"github.com/coinstream/price-data/internal/prefetch"
	"github.com/coinstream/price-data/internal/store"
	"github.com/coinstream/price-data/internal/supervisor"
	"github.com/coinstream/price-data/internal/symbol"
	"github.com/coinstream/price-data/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/ingestor.local.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting ingestor",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"rest_url", cfg.Feed.RestURL,
		"ws_url", cfg.Feed.WSURL,
		"assets", cfg.Assets,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Connect to database
	logger.Info("connecting to database",
		"host", cfg.Database.Postgres.Host,
		"port", cfg.Database.Postgres.Port,
		"database", cfg.Database.Postgres.Name,
	)

	pool, err := database.Connect(ctx, cfg.Database.Postgres)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	logger.Info("database connected")

	// Connect to the latest-price cache
	cache, err := database.ConnectCache(ctx, cfg.Cache)
	if err != nil {
		logger.Error("failed to connect to cache", "error", err)
		os.Exit(1)
	}
	defer cache.Close()

	logger.Info("cache connected", "host", cfg.Cache.Host, "port", cfg.Cache.Port)

	// Create REST client
	apiClient := api.NewClient(
		cfg.Feed.RestURL,
		cfg.Feed.APIKey,
		api.WithLogger(logger),
		api.WithTimeout(cfg.Feed.Timeout),
	)

	// Confirm the provider is reachable before subscribing
	exchanges, err := apiClient.GetExchanges(ctx)
	if err != nil {
		logger.Error("failed to reach provider", "error", err)
		os.Exit(1)
	}
	logger.Info("provider reachable", "exchanges", len(exchanges))

	codec := symbol.NewCodec(cfg.Assets)

	// Start the tick store
	storeCfg := store.Config{
		BatchSize:     cfg.Writer.BatchSize,
		FlushInterval: cfg.Writer.FlushInterval,
		BufferSize:    cfg.Writer.BufferSize,
		CacheTTL:      cfg.Cache.TTL,
	}
	tickStore := store.New(storeCfg, pool, cache, logger)
	if err := tickStore.Start(ctx); err != nil {
		logger.Error("failed to start store", "error", err)
		os.Exit(1)
	}

	// Create the streaming client and its supervisor
	feedCfg := feed.DefaultClientConfig()
	feedCfg.URL = cfg.Feed.WSURL
	feedCfg.APIKey = cfg.Feed.APIKey

	feedClient, err := feed.NewClient(feedCfg, codec, tickStore, logger)
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
	sup := supervisor.New(supCfg, supervisor.ClientOpener{Client: feedClient}, logger)
	if err := sup.Start(ctx); err != nil {
		logger.Error("failed to start supervisor", "error", err)
		os.Exit(1)
	}

	// Start the historical prefetch job unless disabled
	var prefetcher *prefetch.Prefetcher
	if cfg.Prefetch.Disabled {
		logger.Info("prefetch disabled")
	} else {
		prefetchCfg := prefetch.Config{
			Interval:    cfg.Prefetch.Interval,
			Limit:       cfg.Prefetch.Limit,
			Concurrency: cfg.Prefetch.Concurrency,
			Timeout:     cfg.Feed.Timeout,
		}
		prefetcher = prefetch.New(prefetchCfg, apiClient, codec, tickStore, logger)
		if err := prefetcher.Start(ctx); err != nil {
			logger.Error("failed to start prefetcher", "error", err)
			os.Exit(1)
		}
	}

	// Health server
	healthServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Health.Port),
		Handler: createHealthHandler(cfg.Health.Path, pool, cache, sup, tickStore),
	}

	go func() {
		logger.Info("starting health server", "port", cfg.Health.Port)
		if err := healthServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("health server error", "error", err)
		}
	}()

	logger.Info("ingestor running",
		"instance_id", cfg.Instance.ID,
		"health_url", fmt.Sprintf("http://localhost:%d%s", cfg.Health.Port, cfg.Health.Path),
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	healthServer.Shutdown(shutdownCtx)

	if prefetcher != nil {
		if err := prefetcher.Stop(shutdownCtx); err != nil {
			logger.Error("prefetcher shutdown error", "error", err)
		}
	}
	if err := sup.Stop(shutdownCtx); err != nil {
		logger.Error("supervisor shutdown error", "error", err)
	}
	if err := tickStore.Stop(shutdownCtx); err != nil {
		logger.Error("store shutdown error", "error", err)
	}

	logger.Info("ingestor stopped")
}

// createHealthHandler creates the HTTP handler for health checks.
func createHealthHandler(path string, pool *pgxpool.Pool, cache *redis.Client, sup *supervisor.Supervisor, tickStore *store.Store) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := struct {
			Status     string                 `json:"status"`
			Components map[string]interface{} `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]interface{}),
		}

		if err := pool.Ping(ctx); err != nil {
			health.Status = "unhealthy"
			health.Components["postgres"] = map[string]string{
				"status": "disconnected",
				"error":  err.Error(),
			}
		} else {
			health.Components["postgres"] = "connected"
		}

		if err := cache.Ping(ctx).Err(); err != nil {
			health.Status = "degraded"
			health.Components["cache"] = map[string]string{
				"status": "disconnected",
				"error":  err.Error(),
			}
		} else {
			health.Components["cache"] = "connected"
		}

		health.Components["feed"] = sup.State().String()

		stats := tickStore.Stats()
		health.Components["store"] = map[string]int64{
			"accepted":     stats.Accepted,
			"upserts":      stats.Upserts,
			"flushes":      stats.Flushes,
			"errors":       stats.Errors,
			"cache_errors": stats.CacheErrors,
		}

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})

	return mux
}
