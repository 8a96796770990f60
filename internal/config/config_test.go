package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp runs the loader away from any real config.yaml.
func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.Backend.BaseURL)
	assert.Equal(t, 60, cfg.Backend.TimeoutSecs)
	assert.Equal(t, 10.0, cfg.Backend.RateLimitRPS)
	assert.Equal(t, 2, cfg.Poll.IntervalSecs)
	assert.Equal(t, 2*time.Second, cfg.Poll.Interval())
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "boq-console.db", cfg.Store.DatabaseURL)
	assert.Equal(t, ".", cfg.Download.Dir)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromEnv(t *testing.T) {
	chdirTemp(t)
	t.Setenv("BOQ_BACKEND_BASE_URL", "http://backend:9000")
	t.Setenv("BOQ_POLL_INTERVAL_SECS", "5")
	t.Setenv("BOQ_STORE_DRIVER", "postgres")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://backend:9000", cfg.Backend.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Poll.Interval())
	assert.Equal(t, "postgres", cfg.Store.Driver)
}

func TestLoadFromFile(t *testing.T) {
	chdirTemp(t)

	yaml := []byte("backend:\n  base_url: http://file-backend:7000\nserver:\n  port: 9999\n")
	require.NoError(t, os.WriteFile(filepath.Join(".", "config.yaml"), yaml, 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://file-backend:7000", cfg.Backend.BaseURL)
	assert.Equal(t, 9999, cfg.Server.Port)
	// Untouched keys keep their defaults.
	assert.Equal(t, "sqlite", cfg.Store.Driver)
}

func TestInitLogger(t *testing.T) {
	assert.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
	assert.Error(t, InitLogger(LogConfig{Level: "nonsense", Format: "json"}))
}
