package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/clientmanager/errors"
	"github.com/c360/clientmanager/types"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "c360", cfg.Platform.Org)
	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
	assert.Equal(t, -1, cfg.NATS.MaxReconnects)
	assert.Equal(t, 2*time.Second, cfg.NATS.ReconnectWait)
	assert.Equal(t, 5, cfg.NATS.ConnectRetries)
	assert.Equal(t, 30*time.Second, cfg.NATS.PingInterval)
	assert.Equal(t, int32(5), cfg.NATS.CircuitThreshold)
	assert.Equal(t, time.Minute, cfg.NATS.CircuitMaxBackoff)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, 9090, cfg.Metrics.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Empty(t, cfg.Components)
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "clientmanager.yaml", `
platform:
  org: C360
  id: edge-01
nats:
  url: nats://nats:4222
  reconnect_wait: 5s
log:
  level: debug
  format: text
components:
  client-manager:
    type: processor
    name: client-manager
    config:
      queue_size: 64
      services:
        - type: ObjectDetection
          content_types: [ObjectDetection, Person, Car]
  spare:
    type: processor
    name: client-manager
    enabled: false
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "c360", cfg.Platform.Org, "org is lowercased")
	assert.Equal(t, "edge-01", cfg.Platform.ID)
	assert.Equal(t, "nats://nats:4222", cfg.NATS.URL)
	assert.Equal(t, 5*time.Second, cfg.NATS.ReconnectWait)
	assert.Equal(t, "debug", cfg.Log.Level)

	require.Len(t, cfg.Components, 2)
	cm := cfg.Components["client-manager"]
	assert.Equal(t, types.ComponentTypeProcessor, cm.Type)
	assert.True(t, cm.Enabled)
	assert.JSONEq(t,
		`{"queue_size":64,"services":[{"type":"ObjectDetection","content_types":["ObjectDetection","Person","Car"]}]}`,
		string(cm.Config))

	enabled := cfg.EnabledComponents()
	assert.Len(t, enabled, 1)
	assert.Contains(t, enabled, "client-manager")
}

func TestLoad_JSON(t *testing.T) {
	path := writeFile(t, "clientmanager.json", `{
		"platform": {"org": "c360", "id": "lab"},
		"metrics": {"enabled": false},
		"components": {"cm": {"type": "processor", "name": "client-manager"}}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, "client-manager", cfg.Components["cm"].Name)
	assert.Empty(t, cfg.Components["cm"].Config)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeFile(t, "clientmanager.yaml", "nats:\n  url: nats://file:4222\n")
	t.Setenv("CLIENTMANAGER_NATS_URL", "nats://env:4222")
	t.Setenv("CLIENTMANAGER_LOG_LEVEL", "warn")
	t.Setenv("CLIENTMANAGER_METRICS_PORT", "9191")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "nats://env:4222", cfg.NATS.URL)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 9191, cfg.Metrics.Port)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)

	path := writeFile(t, "bad.yaml", "log:\n  level: loud\n")
	_, err = Load(path)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))

	path = writeFile(t, "badcomp.yaml", "components:\n  cm:\n    type: gateway\n    name: x\n")
	_, err = Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			Platform: PlatformConfig{Org: "c360", ID: "edge"},
			NATS:     NATSConfig{URL: "nats://localhost:4222"},
			Metrics:  MetricsConfig{Enabled: true, Port: 9090, Path: "/metrics"},
			Log:      LogConfig{Level: "info", Format: "json"},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing org", func(c *Config) { c.Platform.Org = "" }},
		{"org with spaces", func(c *Config) { c.Platform.Org = "c 360" }},
		{"missing id", func(c *Config) { c.Platform.ID = "" }},
		{"missing nats url", func(c *Config) { c.NATS.URL = "" }},
		{"negative retries", func(c *Config) { c.NATS.ConnectRetries = -1 }},
		{"negative drain timeout", func(c *Config) { c.NATS.DrainTimeout = -time.Second }},
		{"negative circuit threshold", func(c *Config) { c.NATS.CircuitThreshold = -1 }},
		{"circuit backoff under a second", func(c *Config) { c.NATS.CircuitMaxBackoff = time.Millisecond }},
		{"bad metrics port", func(c *Config) { c.Metrics.Port = 0 }},
		{"bad metrics path", func(c *Config) { c.Metrics.Path = "metrics" }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
		{"bad component", func(c *Config) {
			c.Components = ComponentConfigs{"cm": {Type: types.ComponentTypeProcessor}}
		}},
	}

	base := valid()
	require.NoError(t, base.Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsInvalid(err))
		})
	}

	disabled := valid()
	disabled.Metrics = MetricsConfig{Enabled: false}
	assert.NoError(t, disabled.Validate(), "metrics settings ignored when disabled")
}

func TestPlatformConfig_Meta(t *testing.T) {
	meta := PlatformConfig{Org: "c360", ID: "edge"}.Meta()
	assert.Equal(t, types.PlatformMeta{Org: "c360", Platform: "edge"}, meta)
}
