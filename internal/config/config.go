// StreamSignal - Webhook Event Dispatch for Media Server Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamsignal

// Package config loads StreamSignal configuration with Koanf v2 layering:
// built-in defaults, then an optional YAML config file, then environment
// variables (highest priority).
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Delivery DeliveryConfig `koanf:"delivery"`
	Summary  SummaryConfig  `koanf:"summary"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = runtime.NumCPU()
}

// DeliveryConfig holds webhook delivery settings.
type DeliveryConfig struct {
	// Timeout bounds each outbound HTTP call. There is no retry and no
	// cancellation once a call is issued; the timeout is the only limit.
	Timeout time.Duration `koanf:"timeout"`
}

// SummaryConfig holds monthly summary settings.
type SummaryConfig struct {
	// TopLimit is the length bound for the top-movies and top-series lists.
	TopLimit int `koanf:"top_limit"`
}

// SecurityConfig holds API middleware settings.
type SecurityConfig struct {
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Addr returns the listen address in host:port form.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate checks configuration consistency after loading.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}
	if c.Delivery.Timeout <= 0 {
		return fmt.Errorf("delivery timeout must be positive, got %s", c.Delivery.Timeout)
	}
	if c.Summary.TopLimit <= 0 {
		return fmt.Errorf("summary top_limit must be positive, got %d", c.Summary.TopLimit)
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("invalid logging format: %s", c.Logging.Format)
	}
	return nil
}
