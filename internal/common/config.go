// Package common provides shared utilities for folio
package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for folio
type Config struct {
	Environment string         `toml:"environment"`
	Server      ServerConfig   `toml:"server"`
	Storage     StorageConfig  `toml:"storage"`
	Cache       CacheConfig    `toml:"cache"`
	Throttle    ThrottleConfig `toml:"throttle"`
	Clients     ClientsConfig  `toml:"clients"`
	Logging     LoggingConfig  `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig holds the local cache store location.
type StorageConfig struct {
	Path string `toml:"path"`
}

// CacheConfig holds cache tuning.
type CacheConfig struct {
	TTL string `toml:"ttl"` // duration string, default "24h"
}

// GetTTL parses and returns the cache TTL
func (c *CacheConfig) GetTTL() time.Duration {
	d, err := time.ParseDuration(c.TTL)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

// ThrottleConfig holds the outbound request throttle tuning.
type ThrottleConfig struct {
	Interval string `toml:"interval"` // minimum spacing between request starts, default "600ms"
}

// GetInterval parses and returns the minimum inter-request interval
func (c *ThrottleConfig) GetInterval() time.Duration {
	d, err := time.ParseDuration(c.Interval)
	if err != nil || d <= 0 {
		return 600 * time.Millisecond
	}
	return d
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	Vika      VikaConfig      `toml:"vika"`
	Eastmoney EastmoneyConfig `toml:"eastmoney"`
}

// VikaConfig holds the spreadsheet ledger service configuration.
// The ledger lives in three Vika datasheets: assets, open trades and
// completed trades, each read through a fixed view.
type VikaConfig struct {
	BaseURL              string `toml:"base_url"`
	Token                string `toml:"token"`
	AssetsDatasheetID    string `toml:"assets_datasheet_id"`
	AssetsViewID         string `toml:"assets_view_id"`
	TradesDatasheetID    string `toml:"trades_datasheet_id"`
	TradesViewID         string `toml:"trades_view_id"`
	CompletedDatasheetID string `toml:"completed_datasheet_id"`
	CompletedViewID      string `toml:"completed_view_id"`
	Timeout              string `toml:"timeout"`
	RateLimit            int    `toml:"rate_limit"`
}

// GetTimeout parses and returns the timeout duration
func (c *VikaConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// EastmoneyConfig holds the market-data feed configuration.
type EastmoneyConfig struct {
	BaseURL   string `toml:"base_url"`
	Timeout   string `toml:"timeout"`
	RateLimit int    `toml:"rate_limit"`
	BarLimit  int    `toml:"bar_limit"` // number of daily bars to request, default 500
}

// GetTimeout parses and returns the timeout duration
func (c *EastmoneyConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetBarLimit returns the configured kline bar count
func (c *EastmoneyConfig) GetBarLimit() int {
	if c.BarLimit <= 0 {
		return 500
	}
	return c.BarLimit
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `toml:"level"`
}

// NewDefaultConfig returns a config with sane defaults applied.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8090,
		},
		Storage: StorageConfig{
			Path: "data/cache",
		},
		Cache:    CacheConfig{TTL: "24h"},
		Throttle: ThrottleConfig{Interval: "600ms"},
		Clients: ClientsConfig{
			Vika: VikaConfig{
				BaseURL:              "https://api.vika.cn",
				AssetsDatasheetID:    "dstxvJma14X5c88rvk",
				AssetsViewID:         "viwnRo6AsEaJU",
				TradesDatasheetID:    "dstV5njpAs8gdUiZsM",
				TradesViewID:         "viwoU2a7v3HLE",
				CompletedDatasheetID: "dstV5njpAs8gdUiZsM",
				CompletedViewID:      "viw8QyzgaFlve",
				Timeout:              "30s",
				RateLimit:            5,
			},
			Eastmoney: EastmoneyConfig{
				BaseURL:   "https://push2his.eastmoney.com",
				Timeout:   "30s",
				RateLimit: 5,
				BarLimit:  500,
			},
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// LoadConfig loads configuration from the given TOML files in order (later
// files override earlier ones), then applies environment overrides. Missing
// files are skipped silently.
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

func applyEnvOverrides(config *Config) {
	if env := os.Getenv("FOLIO_ENV"); env != "" {
		config.Environment = env
	}
	if host := os.Getenv("FOLIO_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("FOLIO_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if level := os.Getenv("FOLIO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if path := os.Getenv("FOLIO_DATA_PATH"); path != "" {
		config.Storage.Path = path
	}
	if token := os.Getenv("FOLIO_VIKA_TOKEN"); token != "" {
		config.Clients.Vika.Token = token
	}
	if ttl := os.Getenv("FOLIO_CACHE_TTL"); ttl != "" {
		config.Cache.TTL = ttl
	}
}

// IsProduction returns true when running in the production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
