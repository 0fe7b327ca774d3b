// Package config loads service configuration from the environment using koanf.
// Precedence: environment variables, then compiled defaults.
package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/localdemo/docker-k8s-helm-local-demo/internal/domain"
)

// Config holds all service configuration.
// Environment variable names map to keys by lowercasing and turning "_"
// into ".", so LOG_LEVEL lands on log.level.
type Config struct {
	// Port is the HTTP listen port (PORT).
	Port int `koanf:"port"`

	// Environment identifier: "local", "dev", "prod"
	Environment string `koanf:"environment"`

	Log      LogConfig      `koanf:"log"`
	OTEL     OTELConfig     `koanf:"otel"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	GRPC     GRPCConfig     `koanf:"grpc"`
	Shutdown ShutdownConfig `koanf:"shutdown"`
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // json or text
}

// OTELConfig holds OpenTelemetry configuration.
type OTELConfig struct {
	Endpoint string `koanf:"endpoint"` // Empty disables OTLP export
}

// MetricsConfig holds the Prometheus scrape listener configuration.
type MetricsConfig struct {
	Port int `koanf:"port"` // 0 disables the listener
}

// GRPCConfig holds the gRPC health listener configuration.
type GRPCConfig struct {
	Port int `koanf:"port"` // 0 disables the listener
}

// ShutdownConfig holds graceful shutdown timing.
type ShutdownConfig struct {
	Drain   time.Duration `koanf:"drain"`
	Timeout time.Duration `koanf:"timeout"`
}

func defaults() *Config {
	return &Config{
		Port:        domain.DefaultPort,
		Environment: "local",
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Shutdown: ShutdownConfig{
			Drain:   domain.ShutdownDrainDelay,
			Timeout: domain.ShutdownHTTPTimeout,
		},
	}
}

// Load builds a Config from compiled defaults overlaid with the environment.
// Empty variables are treated as unset. Values that parse but are unusable
// fail with domain.ErrInvalidConfig.
func Load(_ context.Context) (*Config, error) {
	k := koanf.New(".")
	cfg := defaults()

	err := k.Load(env.ProviderWithValue("", ".", func(key, value string) (string, interface{}) {
		if value == "" {
			return "", nil
		}
		return strings.ReplaceAll(strings.ToLower(key), "_", "."), value
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range 1-65535", domain.ErrInvalidConfig, c.Port)
	}
	if c.Metrics.Port < 0 || c.Metrics.Port > 65535 {
		return fmt.Errorf("%w: metrics.port %d out of range 0-65535", domain.ErrInvalidConfig, c.Metrics.Port)
	}
	if c.GRPC.Port < 0 || c.GRPC.Port > 65535 {
		return fmt.Errorf("%w: grpc.port %d out of range 0-65535", domain.ErrInvalidConfig, c.GRPC.Port)
	}

	seen := map[int]string{c.Port: "port"}
	for name, p := range map[string]int{"metrics.port": c.Metrics.Port, "grpc.port": c.GRPC.Port} {
		if p == 0 {
			continue
		}
		if other, ok := seen[p]; ok {
			return fmt.Errorf("%w: %s collides with %s on %d", domain.ErrInvalidConfig, name, other, p)
		}
		seen[p] = name
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: log.level %q", domain.ErrInvalidConfig, c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("%w: log.format %q", domain.ErrInvalidConfig, c.Log.Format)
	}

	if c.Shutdown.Drain < 0 {
		return fmt.Errorf("%w: shutdown.drain must not be negative", domain.ErrInvalidConfig)
	}
	if c.Shutdown.Timeout <= 0 {
		return fmt.Errorf("%w: shutdown.timeout must be positive", domain.ErrInvalidConfig)
	}

	return nil
}

// HTTPAddr returns the listen address on all interfaces.
func (c *Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// IsProd returns true if running in production environment.
func (c *Config) IsProd() bool {
	return c.Environment == "prod"
}
