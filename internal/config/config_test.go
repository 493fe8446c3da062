package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.False(t, cfg.Registry.Strict)
	assert.Equal(t, 64, cfg.Propagation.MaxDepth)
	assert.Equal(t, "FDF", cfg.ClientType)
	assert.Equal(t, 15*time.Second, cfg.Submit.Timeout)
	assert.True(t, cfg.Payload.Sanitize)
	assert.Equal(t, 24*time.Hour, cfg.Audit.Retention)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoadFileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "formengine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cache:\n  ttl: 30s\nregistry:\n  strict: true\nclient_type: ADHA\n"), 0o600))
	t.Setenv("FORMENGINE_PROPAGATION_MAX_DEPTH", "8")
	t.Setenv("FORMENGINE_CLIENT_TYPE", "MHC")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.True(t, cfg.Registry.Strict)
	assert.Equal(t, 8, cfg.Propagation.MaxDepth)
	assert.Equal(t, "MHC", cfg.ClientType, "environment overrides the file")
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("FORMENGINE_LOG_LEVEL=debug\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("FORMENGINE_LOG_LEVEL") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadRejectsMissingFileAndInvalidValues(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := Load("does-not-exist.yaml")
	assert.Error(t, err)

	t.Setenv("FORMENGINE_CACHE_TTL", "-1s")
	_, err = Load("")
	assert.ErrorContains(t, err, "cache.ttl must be positive")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cfg := Config{
		Log:         LogConfig{Level: "info", Format: "yaml"},
		Cache:       CacheConfig{TTL: time.Minute},
		Propagation: PropagationConfig{MaxDepth: 0},
		ClientType:  "FDF",
		Submit:      SubmitConfig{Timeout: time.Second},
		Audit:       AuditConfig{Retention: time.Hour},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "propagation.max_depth")
	assert.Contains(t, err.Error(), "log.format")
}
