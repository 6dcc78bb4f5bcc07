// Package config provides the application configuration, loaded from an
// optional YAML file with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" json:"server"`
	Database DatabaseConfig `yaml:"database" json:"database"`
	Catalog  CatalogConfig  `yaml:"catalog" json:"catalog"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Host         string        `yaml:"host" json:"host" env:"WATCHDECK_HOST"`
	Port         int           `yaml:"port" json:"port" env:"WATCHDECK_PORT"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout" env:"WATCHDECK_READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout" env:"WATCHDECK_WRITE_TIMEOUT"`
	EnableCORS   bool          `yaml:"enable_cors" json:"enable_cors" env:"WATCHDECK_ENABLE_CORS"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Type         string `yaml:"type" json:"type" env:"DATABASE_TYPE"`
	Host         string `yaml:"host" json:"host" env:"POSTGRES_HOST"`
	Port         int    `yaml:"port" json:"port" env:"POSTGRES_PORT"`
	Username     string `yaml:"username" json:"username" env:"POSTGRES_USER"`
	Password     string `yaml:"password" json:"-" env:"POSTGRES_PASSWORD"`
	Database     string `yaml:"database" json:"database" env:"POSTGRES_DB"`
	DatabasePath string `yaml:"database_path" json:"database_path" env:"WATCHDECK_DATABASE_PATH"`
}

// CatalogConfig holds catalog provider (TMDB) configuration
type CatalogConfig struct {
	APIKey         string        `yaml:"api_key" json:"-" env:"TMDB_API_KEY"`
	BaseURL        string        `yaml:"base_url" json:"base_url" env:"TMDB_BASE_URL"`
	ImageBaseURL   string        `yaml:"image_base_url" json:"image_base_url" env:"TMDB_IMAGE_BASE_URL"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout" env:"TMDB_REQUEST_TIMEOUT"`
	MaxRetries     int           `yaml:"max_retries" json:"max_retries" env:"TMDB_MAX_RETRIES"`
}

var (
	globalConfig *Config
	configOnce   sync.Once
	mu           sync.RWMutex
)

// DefaultConfig returns the default application configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			EnableCORS:   true,
		},
		Database: DatabaseConfig{
			Type:         "sqlite",
			Host:         "localhost",
			Port:         5432,
			Username:     "watchdeck",
			Database:     "watchdeck",
			DatabasePath: "./watchdeck.db",
		},
		Catalog: CatalogConfig{
			BaseURL:        "https://api.themoviedb.org/3",
			ImageBaseURL:   "https://image.tmdb.org/t/p",
			RequestTimeout: 10 * time.Second,
			MaxRetries:     2,
		},
	}
}

// Get returns the global configuration, loading defaults if needed
func Get() *Config {
	configOnce.Do(func() {
		if globalConfig == nil {
			globalConfig = DefaultConfig()
			applyEnvOverrides(globalConfig)
		}
	})
	mu.RLock()
	defer mu.RUnlock()
	return globalConfig
}

// Load reads configuration from the given YAML file path (empty path keeps
// defaults) and applies environment overrides on top.
func Load(configPath string) error {
	cfg := DefaultConfig()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return err
	}

	mu.Lock()
	globalConfig = cfg
	mu.Unlock()
	configOnce.Do(func() {})
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Database.Type != "sqlite" && c.Database.Type != "postgres" {
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}
	if c.Catalog.RequestTimeout < time.Second {
		return fmt.Errorf("catalog request timeout too small: %s", c.Catalog.RequestTimeout)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("WATCHDECK_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("WATCHDECK_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("DATABASE_TYPE"); v != "" {
		cfg.Database.Type = v
	}
	if v := os.Getenv("POSTGRES_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("POSTGRES_USER"); v != "" {
		cfg.Database.Username = v
	}
	if v := os.Getenv("POSTGRES_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("POSTGRES_DB"); v != "" {
		cfg.Database.Database = v
	}
	if v := os.Getenv("WATCHDECK_DATABASE_PATH"); v != "" {
		cfg.Database.DatabasePath = v
	}
	if v := os.Getenv("TMDB_API_KEY"); v != "" {
		cfg.Catalog.APIKey = v
	}
	if v := os.Getenv("TMDB_BASE_URL"); v != "" {
		cfg.Catalog.BaseURL = v
	}
	if v := os.Getenv("TMDB_IMAGE_BASE_URL"); v != "" {
		cfg.Catalog.ImageBaseURL = v
	}
	if v := os.Getenv("TMDB_REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Catalog.RequestTimeout = d
		}
	}
	if v := os.Getenv("TMDB_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Catalog.MaxRetries = n
		}
	}
}
