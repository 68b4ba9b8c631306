package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ingestor.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

const validYAML = `
instance:
  id: test-ingestor
feed:
  api_key: test-key
assets: [BTC, ETH, USD]
database:
  postgres:
    host: localhost
    name: prices
    user: ingest
    password: secret
cache:
  host: localhost
`

func TestLoad(t *testing.T) {
	yaml := `
instance:
  id: test-ingestor
feed:
  rest_url: https://rest.example.test/v1
  ws_url: wss://ws.example.test/v1/
  api_key: test-key
assets: [BTC, USD]
database:
  postgres:
    host: localhost
    port: 5432
    name: prices
    user: ingest
    password: secret
cache:
  host: localhost
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Instance.ID != "test-ingestor" {
		t.Errorf("Instance.ID = %q, want %q", cfg.Instance.ID, "test-ingestor")
	}
	if cfg.Feed.RestURL != "https://rest.example.test/v1" {
		t.Errorf("Feed.RestURL = %q", cfg.Feed.RestURL)
	}
	if len(cfg.Assets) != 2 || cfg.Assets[0] != "BTC" {
		t.Errorf("Assets = %v, want [BTC USD]", cfg.Assets)
	}
	if cfg.Database.Postgres.Host != "localhost" {
		t.Errorf("Database.Postgres.Host = %q", cfg.Database.Postgres.Host)
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_DB_PASSWORD", "secret123")

	yaml := `
instance:
  id: test-ingestor
feed:
  api_key: test-key
database:
  postgres:
    host: localhost
    name: prices
    user: ingest
    password: ${TEST_DB_PASSWORD}
cache:
  host: localhost
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Database.Postgres.Password != "secret123" {
		t.Errorf("Password = %q, want %q", cfg.Database.Postgres.Password, "secret123")
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv(EnvAPIKey, "key-from-env")
	t.Setenv(EnvPrefetchDisabled, "true")

	path := writeTempFile(t, validYAML)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Feed.APIKey != "key-from-env" {
		t.Errorf("Feed.APIKey = %q, want env override", cfg.Feed.APIKey)
	}
	if !cfg.Prefetch.Disabled {
		t.Error("Prefetch.Disabled = false, want true from env")
	}
}

func TestLoadRejectsBadPrefetchFlag(t *testing.T) {
	t.Setenv(EnvPrefetchDisabled, "not-a-bool")

	path := writeTempFile(t, validYAML)

	if _, err := Load(path); err == nil {
		t.Error("Load succeeded with unparseable PREFETCH_DISABLED")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	path := writeTempFile(t, validYAML)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	if cfg.Feed.RestURL != DefaultRestURL {
		t.Errorf("Feed.RestURL = %q, want default", cfg.Feed.RestURL)
	}
	if cfg.Supervisor.ErrorBackoff != 60*time.Second {
		t.Errorf("ErrorBackoff = %v, want 60s", cfg.Supervisor.ErrorBackoff)
	}
	if cfg.Supervisor.CompleteBackoff != 30*time.Second {
		t.Errorf("CompleteBackoff = %v, want 30s", cfg.Supervisor.CompleteBackoff)
	}
	if cfg.Supervisor.RotationBackoff != 10*time.Second {
		t.Errorf("RotationBackoff = %v, want 10s", cfg.Supervisor.RotationBackoff)
	}
	if cfg.Supervisor.MaxLifetime != 4*time.Hour {
		t.Errorf("MaxLifetime = %v, want 4h", cfg.Supervisor.MaxLifetime)
	}
	if cfg.Database.Postgres.Port != DefaultDBPort {
		t.Errorf("Postgres.Port = %d, want %d", cfg.Database.Postgres.Port, DefaultDBPort)
	}
	if cfg.Cache.TTL != DefaultCacheTTL {
		t.Errorf("Cache.TTL = %v, want %v", cfg.Cache.TTL, DefaultCacheTTL)
	}
}

func TestValidate_MissingCredential(t *testing.T) {
	t.Setenv(EnvAPIKey, "") // ignore any ambient credential

	yaml := strings.Replace(validYAML, "api_key: test-key", "", 1)
	path := writeTempFile(t, yaml)

	_, err := LoadAndValidate(path)
	if err == nil {
		t.Fatal("LoadAndValidate succeeded without credential")
	}
	if !strings.Contains(err.Error(), "feed.api_key") {
		t.Errorf("error = %v, want mention of feed.api_key", err)
	}
}

func TestValidate_BackoffOrdering(t *testing.T) {
	path := writeTempFile(t, validYAML+`
supervisor:
  error_backoff: 5s
  complete_backoff: 30s
  rotation_backoff: 10s
  max_lifetime: 4h
`)

	if _, err := LoadAndValidate(path); err == nil {
		t.Error("LoadAndValidate accepted error_backoff < complete_backoff")
	}
}

func TestValidate_InvalidAsset(t *testing.T) {
	yaml := strings.Replace(validYAML, "assets: [BTC, ETH, USD]", `assets: [BTC_X]`, 1)
	path := writeTempFile(t, yaml)

	if _, err := LoadAndValidate(path); err == nil {
		t.Error("LoadAndValidate accepted asset containing separator")
	}
}
