package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_AppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api:\n  base_url: \"http://backend:8000\"\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://backend:8000", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, 500*time.Millisecond, cfg.Snapshot.Interval)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "trackoccupancy.db", cfg.Database.DSN)
	assert.Equal(t, time.Local, cfg.Server.Location)
}

func TestLoad_ExplicitValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
api:
  base_url: "http://backend"
  timeout_seconds: 5
snapshot:
  interval_ms: 250
server:
  timezone: "UTC"
database:
  driver: "postgres"
  dsn: "host=db"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, 250*time.Millisecond, cfg.Snapshot.Interval)
	assert.Equal(t, "UTC", cfg.Server.Location.String())
	assert.Equal(t, "host=db", cfg.Database.DSN)
}

func TestLoad_BaseURLFromEnv(t *testing.T) {
	t.Setenv("TRACKOCC_BASE_URL", "http://override")
	cfg := Default()
	assert.Equal(t, "http://override", cfg.API.BaseURL)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
