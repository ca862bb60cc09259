package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	API      APIConfig      `yaml:"api"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Database DatabaseConfig `yaml:"database"`
}

// ServerConfig holds the gateway-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
	Timezone        string  `yaml:"timezone"`

	CacheTTL time.Duration  `yaml:"-"`
	Location *time.Location `yaml:"-"`
}

// APIConfig describes the upstream occupancy backend.
type APIConfig struct {
	BaseURL        string        `yaml:"base_url"`
	HTTPProxy      string        `yaml:"http_proxy"`
	TimeoutSeconds int           `yaml:"timeout_seconds"`
	Timeout        time.Duration `yaml:"-"` // Ignored by YAML parser
}

// SnapshotConfig holds the live camera feed configuration.
type SnapshotConfig struct {
	IntervalMillis int           `yaml:"interval_ms"`
	JPEGQuality    int           `yaml:"jpeg_quality"`
	Interval       time.Duration `yaml:"-"`
}

// DatabaseConfig holds the settings database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"` // sqlite, postgres or mysql
	DSN                    string `yaml:"dsn"`
	Debug                  bool   `yaml:"debug"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills every unset field and derives the durations.
func (cfg *Config) ApplyDefaults() {
	if v := os.Getenv("TRACKOCC_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}

	if cfg.API.TimeoutSeconds <= 0 {
		cfg.API.TimeoutSeconds = 30
	}
	cfg.API.Timeout = time.Duration(cfg.API.TimeoutSeconds) * time.Second

	if cfg.Snapshot.IntervalMillis <= 0 {
		cfg.Snapshot.IntervalMillis = 500
	}
	cfg.Snapshot.Interval = time.Duration(cfg.Snapshot.IntervalMillis) * time.Millisecond
	if cfg.Snapshot.JPEGQuality <= 0 || cfg.Snapshot.JPEGQuality > 100 {
		cfg.Snapshot.JPEGQuality = 80
	}

	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 60
	}
	cfg.Server.CacheTTL = time.Duration(cfg.Server.CacheTTLSeconds) * time.Second

	cfg.Server.Location = time.Local
	if cfg.Server.Timezone != "" {
		loc, err := time.LoadLocation(cfg.Server.Timezone)
		if err != nil {
			log.Printf("Warning: invalid timezone %q: %v. Using local time.", cfg.Server.Timezone, err)
		} else {
			cfg.Server.Location = loc
		}
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.DSN == "" && cfg.Database.Driver == "sqlite" {
		cfg.Database.DSN = "trackoccupancy.db"
	}
	if cfg.Database.MaxOpenConns <= 0 {
		log.Printf("database.max_open_conns is not set or invalid; defaulting to 1")
		cfg.Database.MaxOpenConns = 1
	}
}

// Default returns a configuration with every default applied, used when no file exists.
func Default() *Config {
	var cfg Config
	cfg.ApplyDefaults()
	return &cfg
}
