package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Redis struct {
		Address         string `yaml:"address"`
		Password        string `yaml:"password"`
		DB              int    `yaml:"db"`
		CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
	} `yaml:"redis"`

	Auth struct {
		JWTSecret     string `yaml:"jwt_secret"`
		TokenTTLHours int    `yaml:"token_ttl_hours"`
	} `yaml:"auth"`

	Monitoring struct {
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Booking struct {
		Timezone             string `yaml:"timezone"`
		SweepIntervalMinutes int    `yaml:"sweep_interval_minutes"`
		SubmitPerMinute      int    `yaml:"submit_per_minute"`
		SubmitBurst          int    `yaml:"submit_burst"`
	} `yaml:"booking"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/aulabook.db"
	}
	if cfg.Booking.Timezone == "" {
		cfg.Booking.Timezone = "Asia/Makassar"
	}

	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Location resolves the organization timezone used for day-of-week
// projections.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Booking.Timezone)
}

// SweepInterval is how often the background reconciler runs.
func (c *Config) SweepInterval() time.Duration {
	if c.Booking.SweepIntervalMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.Booking.SweepIntervalMinutes) * time.Minute
}

// CacheTTL is how long cached schedule responses live in Redis.
func (c *Config) CacheTTL() time.Duration {
	if c.Redis.CacheTTLSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Redis.CacheTTLSeconds) * time.Second
}

// TokenTTL is the lifetime of issued access tokens.
func (c *Config) TokenTTL() time.Duration {
	if c.Auth.TokenTTLHours <= 0 {
		return 12 * time.Hour
	}
	return time.Duration(c.Auth.TokenTTLHours) * time.Hour
}
