// Package config holds SchedSim server configuration.
// Priority: defaults < config file < environment < flags.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

// ServerConfig holds configuration for the SchedSim server.
type ServerConfig struct {
	Addr      string `yaml:"addr"`       // Listen address (default ":8080")
	LogLevel  string `yaml:"log_level"`  // Log level: debug, info, warn, error
	LogFormat string `yaml:"log_format"` // Log format: text, json

	// DefaultQuantum is used when a Round-Robin run omits the quantum.
	DefaultQuantum int `yaml:"default_quantum"`

	// MaxSlices rejects runs whose timeline could exceed this many
	// execution records. Zero disables the limit.
	MaxSlices int `yaml:"max_slices"`

	// IdleSnapshots adds idle entries to the queue history of every run.
	IdleSnapshots bool `yaml:"idle_snapshots"`

	// Metrics exposes Prometheus metrics on /metrics.
	Metrics bool `yaml:"metrics"`

	Store     StoreConfig     `yaml:"store"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// StoreConfig selects and configures the process registry backend.
type StoreConfig struct {
	Backend       string `yaml:"backend"`        // memory, sqlite, redis
	DBPath        string `yaml:"db_path"`        // SQLite database path (":memory:" for testing)
	RedisAddr     string `yaml:"redis_addr"`     // host:port
	RedisPassword string `yaml:"redis_password"` // optional
	RedisDB       int    `yaml:"redis_db"`
	RedisPrefix   string `yaml:"redis_prefix"`
}

// TelemetryConfig controls OpenTelemetry tracing. Tracing is disabled when
// OTLPEndpoint is empty.
type TelemetryConfig struct {
	OTLPEndpoint  string  `yaml:"otlp_endpoint"` // e.g. "localhost:4317"
	ServiceName   string  `yaml:"service_name"`
	Insecure      bool    `yaml:"insecure"`
	SamplingRatio float64 `yaml:"sampling_ratio"`
}

// DefaultServerConfig returns sensible defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:           ":8080",
		LogLevel:       "info",
		LogFormat:      "text",
		DefaultQuantum: 2,
		MaxSlices:      1_000_000,
		Metrics:        true,
		Store: StoreConfig{
			Backend:     StoreMemory,
			RedisAddr:   "localhost:6379",
			RedisPrefix: "schedsim:",
		},
		Telemetry: TelemetryConfig{
			ServiceName:   "schedsim",
			Insecure:      true,
			SamplingRatio: 1.0,
		},
	}
}

// LoadFile overlays the YAML file at path onto cfg. Fields absent from the
// file keep their current values.
func LoadFile(path string, cfg *ServerConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg.Validate()
}

// ApplyEnv overrides cfg from SCHEDSIM_* environment variables.
func ApplyEnv(cfg *ServerConfig) {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString("SCHEDSIM_ADDR", &cfg.Addr)
	setString("SCHEDSIM_LOG_LEVEL", &cfg.LogLevel)
	setString("SCHEDSIM_LOG_FORMAT", &cfg.LogFormat)
	setString("SCHEDSIM_STORE", &cfg.Store.Backend)
	setString("SCHEDSIM_DB", &cfg.Store.DBPath)
	setString("SCHEDSIM_REDIS_ADDR", &cfg.Store.RedisAddr)
	setString("SCHEDSIM_REDIS_PASSWORD", &cfg.Store.RedisPassword)
	setString("SCHEDSIM_OTLP_ENDPOINT", &cfg.Telemetry.OTLPEndpoint)

	if v := os.Getenv("SCHEDSIM_DEFAULT_QUANTUM"); v != "" {
		if q, err := strconv.Atoi(v); err == nil {
			cfg.DefaultQuantum = q
		}
	}
	if v := os.Getenv("SCHEDSIM_MAX_SLICES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxSlices = n
		}
	}
}

// Validate rejects configurations the server cannot start with.
func (c *ServerConfig) Validate() error {
	switch c.Store.Backend {
	case StoreMemory, StoreSQLite, StoreRedis:
	default:
		return fmt.Errorf("unknown store backend %q (want memory, sqlite or redis)", c.Store.Backend)
	}
	if c.DefaultQuantum <= 0 {
		return fmt.Errorf("default_quantum must be > 0, got %d", c.DefaultQuantum)
	}
	if c.MaxSlices < 0 {
		return fmt.Errorf("max_slices must be >= 0, got %d", c.MaxSlices)
	}
	if c.Telemetry.SamplingRatio < 0 || c.Telemetry.SamplingRatio > 1 {
		return fmt.Errorf("telemetry.sampling_ratio must be within [0, 1], got %v", c.Telemetry.SamplingRatio)
	}
	return nil
}
