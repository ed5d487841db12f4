package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
server:
  port: 8085
  mode: test
courtlistener:
  api_key: test-key
pipeline:
  context_window: 150
  name_search_window: 400
log:
  level: debug
  format: console
`

func writeConfigFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_FileWithEnvOverride(t *testing.T) {
	path := writeConfigFile(t, t.TempDir(), sampleYAML)

	t.Setenv("CITEGUARD_SERVER_PORT", "9090")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port, "env var must override file value")
	assert.Equal(t, "test", cfg.Server.Mode)
	assert.Equal(t, "test-key", cfg.CourtListener.APIKey)
	assert.Equal(t, 150, cfg.Pipeline.ContextWindow)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Defaults still fill the gaps.
	assert.Equal(t, DefaultMaxRetries, cfg.CourtListener.MaxRetries)
}

func TestLoad_InvalidConfigRejected(t *testing.T) {
	path := writeConfigFile(t, t.TempDir(), "server:\n  port: -3\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestWatch_DeliversValidReloadsOnly(t *testing.T) {
	dir := t.TempDir()
	path := writeConfigFile(t, dir, sampleYAML)

	reloads := make(chan *Config, 4)
	stop, err := Watch(path, func(c *Config) { reloads <- c })
	require.NoError(t, err)
	defer stop()

	// A valid rewrite must trigger the callback.
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML+"worker:\n  concurrency: 2\n"), 0o644))

	select {
	case cfg := <-reloads:
		assert.Equal(t, 2, cfg.Worker.Concurrency)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}

	// An invalid rewrite must be swallowed.
	require.NoError(t, os.WriteFile(path, []byte("server:\n  mode: bogus\n"), 0o644))

	select {
	case cfg := <-reloads:
		t.Fatalf("invalid config was delivered: %+v", cfg.Server)
	case <-time.After(500 * time.Millisecond):
		// expected: no callback
	}
}
