package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultRestURL         = "https://rest.coinapi.io/v1"
	DefaultWSURL           = "wss://ws.coinapi.io/v1/"
	DefaultAPITimeout      = 30 * time.Second
	DefaultDBPort          = 5432
	DefaultDBSSLMode       = "prefer"
	DefaultMaxConns        = 10
	DefaultMinConns        = 2
	DefaultCachePort       = 6379
	DefaultCacheTTL        = 2 * time.Minute
	DefaultErrorBackoff    = 60 * time.Second
	DefaultCompleteBackoff = 30 * time.Second
	DefaultRotationBackoff = 10 * time.Second
	DefaultMaxLifetime     = 4 * time.Hour
	DefaultBatchSize       = 500
	DefaultFlushInterval   = 1 * time.Second
	DefaultBufferSize      = 10000
	DefaultPrefetchEvery   = 15 * time.Minute
	DefaultPrefetchLimit   = 100
	DefaultPrefetchWorkers = 4
	DefaultHealthPort      = 8080
	DefaultHealthPath      = "/health"
)

// DefaultAssets is the asset universe subscribed to when the config does
// not name one.
var DefaultAssets = []string{"BTC", "ETH", "USD", "EUR", "USDT"}

func (c *IngestorConfig) applyDefaults() {
	// Feed defaults
	if c.Feed.RestURL == "" {
		c.Feed.RestURL = DefaultRestURL
	}
	if c.Feed.WSURL == "" {
		c.Feed.WSURL = DefaultWSURL
	}
	if c.Feed.Timeout == 0 {
		c.Feed.Timeout = DefaultAPITimeout
	}

	if len(c.Assets) == 0 {
		c.Assets = append([]string(nil), DefaultAssets...)
	}

	// Database defaults
	if c.Database.Postgres.Port == 0 {
		c.Database.Postgres.Port = DefaultDBPort
	}
	if c.Database.Postgres.SSLMode == "" {
		c.Database.Postgres.SSLMode = DefaultDBSSLMode
	}
	if c.Database.Postgres.MaxConns == 0 {
		c.Database.Postgres.MaxConns = DefaultMaxConns
	}
	if c.Database.Postgres.MinConns == 0 {
		c.Database.Postgres.MinConns = DefaultMinConns
	}

	// Cache defaults
	if c.Cache.Port == 0 {
		c.Cache.Port = DefaultCachePort
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = DefaultCacheTTL
	}

	// Supervisor defaults
	if c.Supervisor.ErrorBackoff == 0 {
		c.Supervisor.ErrorBackoff = DefaultErrorBackoff
	}
	if c.Supervisor.CompleteBackoff == 0 {
		c.Supervisor.CompleteBackoff = DefaultCompleteBackoff
	}
	if c.Supervisor.RotationBackoff == 0 {
		c.Supervisor.RotationBackoff = DefaultRotationBackoff
	}
	if c.Supervisor.MaxLifetime == 0 {
		c.Supervisor.MaxLifetime = DefaultMaxLifetime
	}

	// Writer defaults
	if c.Writer.BatchSize == 0 {
		c.Writer.BatchSize = DefaultBatchSize
	}
	if c.Writer.FlushInterval == 0 {
		c.Writer.FlushInterval = DefaultFlushInterval
	}
	if c.Writer.BufferSize == 0 {
		c.Writer.BufferSize = DefaultBufferSize
	}

	// Prefetch defaults
	if c.Prefetch.Interval == 0 {
		c.Prefetch.Interval = DefaultPrefetchEvery
	}
	if c.Prefetch.Limit == 0 {
		c.Prefetch.Limit = DefaultPrefetchLimit
	}
	if c.Prefetch.Concurrency == 0 {
		c.Prefetch.Concurrency = DefaultPrefetchWorkers
	}

	// Health defaults
	if c.Health.Port == 0 {
		c.Health.Port = DefaultHealthPort
	}
	if c.Health.Path == "" {
		c.Health.Path = DefaultHealthPath
	}
}
