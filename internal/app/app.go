// Package app wires the occupancy client components from a configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"

	"gorm.io/gorm"

	"trackoccupancy/config"
	"trackoccupancy/internal/db"
	"trackoccupancy/internal/occupancy"
	"trackoccupancy/internal/remote"
	"trackoccupancy/internal/session"
	"trackoccupancy/internal/snapshot"
	"trackoccupancy/internal/store"
)

// App holds the long-lived components shared by the gateway and the CLI.
type App struct {
	Config    *config.Config
	DB        *gorm.DB
	Settings  store.Settings
	Client    *remote.Client
	Session   *session.Session
	Occupancy *occupancy.Service
	Poller    *snapshot.Poller
}

// LoadConfig reads path, falling back to the defaults when the file does not exist.
func LoadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Printf("config file %s not found, using defaults", path)
		return config.Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from %s: %w", path, err)
	}
	return cfg, nil
}

// New opens the settings database and builds every component on top of it.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	a, err := newWithDB(ctx, cfg, gormDB)
	if err != nil {
		closeDB(gormDB)
		return nil, err
	}
	return a, nil
}

func newWithDB(ctx context.Context, cfg *config.Config, gormDB *gorm.DB) (*App, error) {
	settings := store.NewGormStore(gormDB)

	client, err := remote.NewClient(cfg.API, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create backend client: %w", err)
	}

	sess, err := session.New(ctx, settings, client)
	if err != nil {
		return nil, err
	}
	client.SetTokenSource(sess)

	return &App{
		Config:    cfg,
		DB:        gormDB,
		Settings:  settings,
		Client:    client,
		Session:   sess,
		Occupancy: occupancy.NewService(client, cfg.Server.Location),
		Poller:    snapshot.NewPoller(client, cfg.Snapshot.Interval),
	}, nil
}

// Close releases the database connection.
func (a *App) Close() {
	closeDB(a.DB)
}

func closeDB(gormDB *gorm.DB) {
	if sqlDB, err := gormDB.DB(); err == nil {
		sqlDB.Close()
	}
}
