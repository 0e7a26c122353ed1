package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.Listen != ":8080" {
		t.Errorf("expected default listen :8080, got %s", cfg.Server.Listen)
	}
	if cfg.Scanner.ResolveConcurrency != 64 {
		t.Errorf("expected default resolve concurrency 64, got %d", cfg.Scanner.ResolveConcurrency)
	}
	if cfg.Scanner.FetchConcurrency != 200 {
		t.Errorf("expected default fetch concurrency 200, got %d", cfg.Scanner.FetchConcurrency)
	}
	if cfg.Scanner.FlushEvery != 1000 {
		t.Errorf("expected default flush every 1000, got %d", cfg.Scanner.FlushEvery)
	}
	if cfg.Resolver.Timeout != 2*time.Second {
		t.Errorf("expected default resolver timeout 2s, got %v", cfg.Resolver.Timeout)
	}
	if !cfg.Resolver.WWWFallback {
		t.Error("expected www fallback enabled by default")
	}
	if cfg.Fetcher.Timeout != 8*time.Second {
		t.Errorf("expected default fetch timeout 8s, got %v", cfg.Fetcher.Timeout)
	}
	if cfg.Fetcher.MaxBodyBytes != 128*1024 {
		t.Errorf("expected default max body bytes 131072, got %d", cfg.Fetcher.MaxBodyBytes)
	}
	if cfg.Remote.Concurrency != 64 || cfg.Remote.FlushEvery != 500 {
		t.Errorf("unexpected remote defaults %+v", cfg.Remote)
	}
	if cfg.NATS.ScanSubject() != "mcpscout.scan" || cfg.NATS.RemoteSubject() != "mcpscout.remote" {
		t.Errorf("unexpected subjects %s %s", cfg.NATS.ScanSubject(), cfg.NATS.RemoteSubject())
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")

	cfg, err := Load(&path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
data_dir: /var/lib/mcpscout
scanner:
  fetch_concurrency: 50
  seed_source: tranco
resolver:
  servers:
    - 9.9.9.9
  cache_ttl: 1m
fetcher:
  timeout: 3s
nats:
  url: nats://127.0.0.1:4222
`), 0o600))

	t.Setenv("MCPSCOUT_SCANNER__FLUSH_EVERY", "250")
	t.Setenv("MCPSCOUT_REMOTE__TIMEOUT", "4s")
	t.Setenv("MCPSCOUT_SLACK__WEBHOOK_URL", "https://hooks.slack.com/services/T/B/x")

	cfg, err := Load(&path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/mcpscout", cfg.DataDir)
	assert.Equal(t, 50, cfg.Scanner.FetchConcurrency)
	assert.Equal(t, 64, cfg.Scanner.ResolveConcurrency)
	assert.Equal(t, "tranco", cfg.Scanner.SeedSource)
	assert.Equal(t, 250, cfg.Scanner.FlushEvery)
	assert.Equal(t, []string{"9.9.9.9"}, cfg.Resolver.Servers)
	assert.Equal(t, time.Minute, cfg.Resolver.CacheTTL)
	assert.Equal(t, 3*time.Second, cfg.Fetcher.Timeout)
	assert.Equal(t, 4*time.Second, cfg.Remote.Timeout)
	assert.Equal(t, "nats://127.0.0.1:4222", cfg.NATS.URL)
	assert.Equal(t, "https://hooks.slack.com/services/T/B/x", cfg.Slack.WebhookURL)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scanner: [unclosed"), 0o600))

	_, err := Load(&path)
	assert.ErrorIs(t, err, ErrConfigLoad)
}

func TestLoadRejectsNonPositiveConcurrency(t *testing.T) {
	t.Setenv("MCPSCOUT_REMOTE__CONCURRENCY", "0")

	_, err := Load(nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadRejectsBodyCapAboveLimit(t *testing.T) {
	t.Setenv("MCPSCOUT_FETCHER__MAX_BODY_BYTES", "131073")

	_, err := Load(nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestValidateAcceptsSmallerBodyCap(t *testing.T) {
	cfg := Default()
	cfg.Fetcher.MaxBodyBytes = 64 * 1024
	cfg.Remote.MaxBodyBytes = 128 * 1024

	assert.NoError(t, cfg.Validate())

	cfg.Remote.MaxBodyBytes = 256 * 1024
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"MCPSCOUT_DATA_DIR":                     "data_dir",
		"MCPSCOUT_SCANNER__FETCH_CONCURRENCY":   "scanner.fetch_concurrency",
		"MCPSCOUT_SERVER__SHUTDOWN_GRACE_PERIOD": "server.shutdown_grace_period",
	}

	for in, want := range tests {
		if got := envKey(in); got != want {
			t.Errorf("envKey(%s) = %s, want %s", in, got, want)
		}
	}
}
