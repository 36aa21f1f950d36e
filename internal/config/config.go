package config

import "time"

// Config represents the complete application configuration.
// Values come from three layers: built-in defaults, an optional YAML config
// file, and PAGEGATE_* environment variables (highest precedence).
type Config struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit"`
	Fetch     FetchConfig     `mapstructure:"fetch" yaml:"fetch"`
	Cache     CacheConfig     `mapstructure:"cache" yaml:"cache"`
	Sweep     SweepConfig     `mapstructure:"sweep" yaml:"sweep"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`
	Health    HealthConfig    `mapstructure:"health" yaml:"health"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host" yaml:"host"`
	Port            int           `mapstructure:"port" yaml:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// RateLimitConfig contains the per-client fixed-window limiter settings.
type RateLimitConfig struct {
	// Requests is the number of requests allowed per window.
	Requests int `mapstructure:"requests" yaml:"requests"`

	// Window is the fixed-window duration.
	Window time.Duration `mapstructure:"window" yaml:"window"`
}

// FetchConfig contains upstream fetch settings.
type FetchConfig struct {
	// Timeout bounds a single upstream fetch, connection through body read.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`

	// MaxBytes is the response body ceiling. Bodies larger than this are
	// rejected after the read completes.
	MaxBytes int64 `mapstructure:"max_bytes" yaml:"max_bytes"`

	// UserAgent is sent on every upstream request.
	UserAgent string `mapstructure:"user_agent" yaml:"user_agent"`
}

// CacheConfig contains response cache settings.
type CacheConfig struct {
	// TTL is how long a cached body stays servable.
	TTL time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// SweepConfig controls the background eviction of expired cache entries and
// stale rate-limit windows.
type SweepConfig struct {
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
}

// LoggingConfig contains logging configuration.
// Valid levels: trace, debug, info, warn, error.
type LoggingConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// MetricsConfig contains Prometheus metrics configuration
type MetricsConfig struct {
	// Enabled controls whether metrics are exposed
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the dedicated metrics endpoint port (Prometheus format)
	Port int `mapstructure:"port" yaml:"port"`
}

// HealthConfig contains health check configuration
type HealthConfig struct {
	// Enabled controls whether health endpoints are exposed
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}
