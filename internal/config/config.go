package config

import (
	"time"

	"github.com/knock/pkg/protocol"
)

// Config is the root configuration structure.
type Config struct {
	Probe    Probe    `yaml:"probe"`
	Resolver Resolver `yaml:"resolver"`
	Output   Output   `yaml:"output"`
	Log      Log      `yaml:"log"`
	Metrics  Metrics  `yaml:"metrics"`
}

// Probe configures the attempts of a run.
type Probe struct {
	Protocol         string        `yaml:"protocol"`
	Count            int           `yaml:"count"`
	Interval         time.Duration `yaml:"interval"` // Gap between attempt starts, 0 = back to back
	DialTimeout      time.Duration `yaml:"dial_timeout"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	MaxResponseBytes int           `yaml:"max_response_bytes"`
	UserAgent        string        `yaml:"user_agent"`
}

// Resolver configures the lookup done before probing.
type Resolver struct {
	Enabled bool          `yaml:"enabled"`
	Timeout time.Duration `yaml:"timeout"`
}

// ColorMode selects when console output is colored.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// Output configures console rendering.
type Output struct {
	Color ColorMode `yaml:"color"`
}

// Log configures the diagnostic logger.
type Log struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console or json
}

// Metrics configures Prometheus metrics.
type Metrics struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
	Path    string `yaml:"path"`
}

// ProberOptions converts the probe section into prober options.
func (p Probe) ProberOptions() protocol.Options {
	return protocol.Options{
		DialTimeout:      p.DialTimeout,
		ReadTimeout:      p.ReadTimeout,
		WriteTimeout:     p.WriteTimeout,
		MaxResponseBytes: p.MaxResponseBytes,
		UserAgent:        p.UserAgent,
	}
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	opts := protocol.DefaultOptions()

	return &Config{
		Probe: Probe{
			Protocol:         protocol.TCP,
			Count:            4,
			Interval:         0,
			DialTimeout:      opts.DialTimeout,
			ReadTimeout:      opts.ReadTimeout,
			WriteTimeout:     opts.WriteTimeout,
			MaxResponseBytes: opts.MaxResponseBytes,
			UserAgent:        opts.UserAgent,
		},
		Resolver: Resolver{
			Enabled: true,
			Timeout: 5 * time.Second,
		},
		Output: Output{
			Color: ColorAuto,
		},
		Log: Log{
			Level:  "warn",
			Format: "console",
		},
		Metrics: Metrics{
			Enabled: false,
			Address: ":9090",
			Path:    "/metrics",
		},
	}
}
