package config

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/c360/clientmanager/errors"
	"github.com/c360/clientmanager/types"
)

// EnvPrefix prefixes every environment override, e.g. CLIENTMANAGER_NATS_URL.
const EnvPrefix = "clientmanager"

// Load reads the YAML or JSON file at path (optional, "" skips it), applies
// CLIENTMANAGER_* environment overrides over the file and defaults, then
// validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.WrapInvalid(fmt.Errorf("%w: %w", errors.ErrInvalidConfig, err),
				"Config", "Load", "read "+path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.WrapInvalid(fmt.Errorf("%w: %w", errors.ErrInvalidConfig, err),
			"Config", "Load", "unmarshal config")
	}

	components, err := decodeComponents(v.Get("components"))
	if err != nil {
		return nil, err
	}
	cfg.Components = components

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("platform.org", "c360")
	v.SetDefault("platform.id", "clientmanager")

	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.name", "clientmanager")
	v.SetDefault("nats.max_reconnects", -1)
	v.SetDefault("nats.reconnect_wait", 2*time.Second)
	v.SetDefault("nats.connect_retries", 5)
	v.SetDefault("nats.ping_interval", 30*time.Second)
	v.SetDefault("nats.drain_timeout", 30*time.Second)
	v.SetDefault("nats.circuit_threshold", 5)
	v.SetDefault("nats.circuit_max_backoff", time.Minute)
	v.SetDefault("nats.username", "")
	v.SetDefault("nats.password", "")
	v.SetDefault("nats.token", "")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// decodeComponents turns the raw "components" tree into ComponentConfigs,
// keeping each entry's "config" subtree as raw JSON for its factory.
func decodeComponents(raw any) (ComponentConfigs, error) {
	components := make(ComponentConfigs)
	if raw == nil {
		return components, nil
	}

	tree, ok := raw.(map[string]any)
	if !ok {
		return nil, errors.WrapInvalid(fmt.Errorf("%w: components must be a map, got %T", errors.ErrInvalidConfig, raw),
			"Config", "Load", "decode components")
	}

	for _, name := range slices.Sorted(maps.Keys(tree)) {
		data, err := json.Marshal(tree[name])
		if err != nil {
			return nil, errors.WrapInvalid(err, "Config", "Load", "encode component "+name)
		}
		var entry struct {
			Type    string          `json:"type"`
			Name    string          `json:"name"`
			Enabled *bool           `json:"enabled"`
			Config  json.RawMessage `json:"config"`
		}
		if err := json.Unmarshal(data, &entry); err != nil {
			return nil, errors.WrapInvalid(fmt.Errorf("%w: component %s: %w", errors.ErrInvalidConfig, name, err),
				"Config", "Load", "decode component")
		}

		components[name] = types.ComponentConfig{
			Type:    types.ComponentType(entry.Type),
			Name:    entry.Name,
			Enabled: entry.Enabled == nil || *entry.Enabled,
			Config:  entry.Config,
		}
	}
	return components, nil
}
