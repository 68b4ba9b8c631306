package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Environment variables applied as overrides after the YAML is parsed.
const (
	EnvAPIKey           = "COINAPI_KEY"
	EnvPrefetchDisabled = "PREFETCH_DISABLED"
)

// Load reads a YAML config file, expands ${VAR} environment variables,
// and applies the well-known environment overrides.
func Load(path string) (*IngestorConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg IngestorConfig
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadWithDefaults loads config and applies default values.
func LoadWithDefaults(path string) (*IngestorConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// LoadAndValidate loads config, applies defaults, and validates.
func LoadAndValidate(path string) (*IngestorConfig, error) {
	cfg, err := LoadWithDefaults(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c *IngestorConfig) applyEnvOverrides() error {
	if v := os.Getenv(EnvAPIKey); v != "" {
		c.Feed.APIKey = v
	}
	if v := os.Getenv(EnvPrefetchDisabled); v != "" {
		disabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parse %s=%q: %w", EnvPrefetchDisabled, v, err)
		}
		c.Prefetch.Disabled = disabled
	}
	return nil
}
