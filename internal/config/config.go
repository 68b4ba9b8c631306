package config

import "time"

// IngestorConfig is the root configuration for an ingestor instance.
type IngestorConfig struct {
	Instance   InstanceConfig   `yaml:"instance"`
	Feed       FeedConfig       `yaml:"feed"`
	Assets     []string         `yaml:"assets"`
	Database   DatabaseConfig   `yaml:"database"`
	Cache      CacheConfig      `yaml:"cache"`
	Supervisor SupervisorConfig `yaml:"supervisor"`
	Writer     WriterConfig     `yaml:"writer"`
	Prefetch   PrefetchConfig   `yaml:"prefetch"`
	Health     HealthConfig     `yaml:"health"`
}

// InstanceConfig identifies this ingestor.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// FeedConfig holds provider API settings. APIKey normally arrives via the
// COINAPI_KEY environment variable (expanded by Load, or applied as an
// override when set).
type FeedConfig struct {
	RestURL string        `yaml:"rest_url"`
	WSURL   string        `yaml:"ws_url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

// DatabaseConfig holds the PostgreSQL connection for price data.
type DatabaseConfig struct {
	Postgres DBConfig `yaml:"postgres"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// CacheConfig holds the Redis latest-price cache settings.
type CacheConfig struct {
	Host     string        `yaml:"host"`
	Port     int           `yaml:"port"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// SupervisorConfig holds the streaming-subscription supervisor timings.
// ErrorBackoff is deliberately the longest delay and RotationBackoff the
// shortest: an errored feed is retried most conservatively, a proactively
// rotated healthy connection is replaced fastest.
type SupervisorConfig struct {
	ErrorBackoff    time.Duration `yaml:"error_backoff"`
	CompleteBackoff time.Duration `yaml:"complete_backoff"`
	RotationBackoff time.Duration `yaml:"rotation_backoff"`
	MaxLifetime     time.Duration `yaml:"max_lifetime"`
}

// WriterConfig holds store batch writer settings.
type WriterConfig struct {
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	BufferSize    int           `yaml:"buffer_size"`
}

// PrefetchConfig holds the periodic historical prefetch job settings.
// Disabled normally arrives via the PREFETCH_DISABLED environment variable.
type PrefetchConfig struct {
	Disabled    bool          `yaml:"disabled"`
	Interval    time.Duration `yaml:"interval"`
	Limit       int           `yaml:"limit"`
	Concurrency int           `yaml:"concurrency"`
}

// HealthConfig holds the health endpoint settings.
type HealthConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}
