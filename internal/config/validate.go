package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks that all required fields are set and values are valid.
// A missing feed credential is the fatal startup condition: the process
// must not proceed to streaming without one.
func (c *IngestorConfig) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if c.Feed.APIKey == "" {
		return fmt.Errorf("feed.api_key is required (set %s)", EnvAPIKey)
	}

	if len(c.Assets) == 0 {
		return errors.New("assets must name at least one asset")
	}
	for _, a := range c.Assets {
		if a == "" || strings.Contains(a, "_") {
			return fmt.Errorf("invalid asset identifier %q", a)
		}
	}

	if err := c.Database.Postgres.validate("database.postgres"); err != nil {
		return err
	}

	if c.Cache.Host == "" {
		return errors.New("cache.host is required")
	}
	if c.Cache.TTL < 0 {
		return errors.New("cache.ttl must be >= 0")
	}

	s := c.Supervisor
	if s.ErrorBackoff <= 0 || s.CompleteBackoff <= 0 || s.RotationBackoff <= 0 {
		return errors.New("supervisor backoffs must be > 0")
	}
	if s.MaxLifetime <= 0 {
		return errors.New("supervisor.max_lifetime must be > 0")
	}
	if s.ErrorBackoff < s.CompleteBackoff {
		return errors.New("supervisor.error_backoff must be >= complete_backoff")
	}
	if s.CompleteBackoff < s.RotationBackoff {
		return errors.New("supervisor.complete_backoff must be >= rotation_backoff")
	}

	if c.Writer.BatchSize < 1 {
		return errors.New("writer.batch_size must be >= 1")
	}
	if c.Writer.BufferSize < 1 {
		return errors.New("writer.buffer_size must be >= 1")
	}

	if c.Prefetch.Concurrency < 1 {
		return errors.New("prefetch.concurrency must be >= 1")
	}
	if c.Prefetch.Limit < 1 {
		return errors.New("prefetch.limit must be >= 1")
	}

	if c.Health.Port < 1 || c.Health.Port > 65535 {
		return fmt.Errorf("health.port must be between 1 and 65535, got %d", c.Health.Port)
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
