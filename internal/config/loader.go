package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads and parses a YAML configuration file on top of the defaults.
// An empty path returns the validated defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, Validate(cfg)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for errors and fills derived defaults.
func Validate(cfg *Config) error {
	if cfg.Probe.Protocol == "" {
		return fmt.Errorf("probe.protocol is required")
	}
	if cfg.Probe.Count < 0 {
		return fmt.Errorf("probe.count must not be negative")
	}
	if cfg.Probe.Interval < 0 {
		return fmt.Errorf("probe.interval must not be negative")
	}
	if cfg.Probe.DialTimeout <= 0 {
		return fmt.Errorf("probe.dial_timeout must be positive")
	}
	if cfg.Probe.ReadTimeout <= 0 {
		return fmt.Errorf("probe.read_timeout must be positive")
	}
	if cfg.Probe.WriteTimeout <= 0 {
		return fmt.Errorf("probe.write_timeout must be positive")
	}
	if cfg.Probe.MaxResponseBytes <= 0 {
		return fmt.Errorf("probe.max_response_bytes must be positive")
	}
	if cfg.Probe.UserAgent == "" {
		cfg.Probe.UserAgent = DefaultConfig().Probe.UserAgent
	}

	if cfg.Resolver.Enabled && cfg.Resolver.Timeout <= 0 {
		return fmt.Errorf("resolver.timeout must be positive")
	}

	switch cfg.Output.Color {
	case ColorAuto, ColorAlways, ColorNever:
	case "":
		cfg.Output.Color = ColorAuto
	default:
		return fmt.Errorf("output.color must be one of auto, always, never")
	}

	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "error":
	case "":
		cfg.Log.Level = "warn"
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error")
	}
	switch cfg.Log.Format {
	case "console", "json":
	case "":
		cfg.Log.Format = "console"
	default:
		return fmt.Errorf("log.format must be console or json")
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Address == "" {
			return fmt.Errorf("metrics.address is required when metrics are enabled")
		}
		if !strings.HasPrefix(cfg.Metrics.Path, "/") {
			return fmt.Errorf("metrics.path must start with /")
		}
	}

	return nil
}
