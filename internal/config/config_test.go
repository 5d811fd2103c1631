package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knock/pkg/protocol"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "knock.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_EmptyPathGivesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, protocol.TCP, cfg.Probe.Protocol)
	assert.Equal(t, 4, cfg.Probe.Count)
	assert.Equal(t, 5*time.Second, cfg.Probe.ReadTimeout)
	assert.Equal(t, 5*time.Second, cfg.Probe.WriteTimeout)
	assert.True(t, cfg.Resolver.Enabled)
	assert.Equal(t, ColorAuto, cfg.Output.Color)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
probe:
  protocol: HTTP-GET
  count: 10
  interval: 250ms
  read_timeout: 2s
  user_agent: probe-bot
output:
  color: never
log:
  level: debug
  format: json
metrics:
  enabled: true
  address: 127.0.0.1:9100
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, protocol.HTTPGet, cfg.Probe.Protocol)
	assert.Equal(t, 10, cfg.Probe.Count)
	assert.Equal(t, 250*time.Millisecond, cfg.Probe.Interval)
	assert.Equal(t, 2*time.Second, cfg.Probe.ReadTimeout)
	assert.Equal(t, 5*time.Second, cfg.Probe.WriteTimeout, "unset keys keep defaults")
	assert.Equal(t, "probe-bot", cfg.Probe.UserAgent)
	assert.Equal(t, ColorNever, cfg.Output.Color)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)

	opts := cfg.Probe.ProberOptions()
	assert.Equal(t, 2*time.Second, opts.ReadTimeout)
	assert.Equal(t, 4096, opts.MaxResponseBytes)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")

	_, err = Load(writeConfig(t, "probe: [not, a, map]"))
	assert.ErrorContains(t, err, "failed to parse config file")

	_, err = Load(writeConfig(t, "probe:\n  count: -1\n"))
	assert.ErrorContains(t, err, "probe.count")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"empty protocol", func(c *Config) { c.Probe.Protocol = "" }, "probe.protocol"},
		{"negative interval", func(c *Config) { c.Probe.Interval = -time.Second }, "probe.interval"},
		{"zero dial timeout", func(c *Config) { c.Probe.DialTimeout = 0 }, "probe.dial_timeout"},
		{"zero read timeout", func(c *Config) { c.Probe.ReadTimeout = 0 }, "probe.read_timeout"},
		{"zero write timeout", func(c *Config) { c.Probe.WriteTimeout = 0 }, "probe.write_timeout"},
		{"zero buffer", func(c *Config) { c.Probe.MaxResponseBytes = 0 }, "probe.max_response_bytes"},
		{"resolver timeout", func(c *Config) { c.Resolver.Timeout = 0 }, "resolver.timeout"},
		{"bad color", func(c *Config) { c.Output.Color = "rainbow" }, "output.color"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"metrics path", func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Path = "metrics" }, "metrics.path"},
		{"metrics address", func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Address = "" }, "metrics.address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorContains(t, Validate(cfg), tt.errMsg)
		})
	}
}

func TestValidate_FillsBlanks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Probe.UserAgent = ""
	cfg.Output.Color = ""
	cfg.Log.Level = ""
	cfg.Log.Format = ""
	cfg.Resolver.Enabled = false
	cfg.Resolver.Timeout = 0

	require.NoError(t, Validate(cfg))
	assert.Equal(t, "Knock Knock", cfg.Probe.UserAgent)
	assert.Equal(t, ColorAuto, cfg.Output.Color)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}
