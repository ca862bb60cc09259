package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trackoccupancy/config"
	"trackoccupancy/internal/model"
)

func TestInit_SQLite(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Driver:       "sqlite",
		DSN:          filepath.Join(t.TempDir(), "settings.db"),
		MaxOpenConns: 1,
	}

	gormDB, err := Init(cfg)
	require.NoError(t, err)
	sqlDB, _ := gormDB.DB()
	defer sqlDB.Close()

	assert.True(t, gormDB.Migrator().HasTable(&model.Setting{}))
}

func TestInit_RejectsUnknownDriver(t *testing.T) {
	_, err := Init(&config.DatabaseConfig{Driver: "oracle", DSN: "x"})
	assert.EqualError(t, err, "unknown db driver oracle")
}

func TestInit_RequiresDSN(t *testing.T) {
	_, err := Init(&config.DatabaseConfig{Driver: "postgres"})
	assert.Error(t, err)
}
