package config

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/c360/clientmanager/errors"
	"github.com/c360/clientmanager/types"
)

// ComponentConfigs maps instance names to component configuration.
type ComponentConfigs map[string]types.ComponentConfig

// Config is the complete service configuration
type Config struct {
	Platform   PlatformConfig   `mapstructure:"platform"   json:"platform"`
	NATS       NATSConfig       `mapstructure:"nats"       json:"nats"`
	Metrics    MetricsConfig    `mapstructure:"metrics"    json:"metrics"`
	Log        LogConfig        `mapstructure:"log"        json:"log"`
	Components ComponentConfigs `mapstructure:"-"          json:"components"`
}

// PlatformConfig identifies the deployment
type PlatformConfig struct {
	Org string `mapstructure:"org" json:"org"` // e.g. "c360"
	ID  string `mapstructure:"id"  json:"id"`  // e.g. "edge-01"
}

// Meta returns the identity handed to components
func (p PlatformConfig) Meta() types.PlatformMeta {
	return types.PlatformMeta{Org: p.Org, Platform: p.ID}
}

// NATSConfig defines NATS connection settings
type NATSConfig struct {
	URL            string        `mapstructure:"url"             json:"url"`
	Name           string        `mapstructure:"name"            json:"name,omitempty"`
	MaxReconnects  int           `mapstructure:"max_reconnects"  json:"max_reconnects"`
	ReconnectWait  time.Duration `mapstructure:"reconnect_wait"  json:"reconnect_wait"`
	ConnectRetries int           `mapstructure:"connect_retries" json:"connect_retries"`
	PingInterval   time.Duration `mapstructure:"ping_interval"   json:"ping_interval"`
	DrainTimeout   time.Duration `mapstructure:"drain_timeout"   json:"drain_timeout"`

	// Consecutive failures before the circuit opens, and the longest
	// backoff while it is open.
	CircuitThreshold  int32         `mapstructure:"circuit_threshold"   json:"circuit_threshold"`
	CircuitMaxBackoff time.Duration `mapstructure:"circuit_max_backoff" json:"circuit_max_backoff"`

	Username       string        `mapstructure:"username"        json:"username,omitempty"`
	Password       string        `mapstructure:"password"        json:"-"`
	Token          string        `mapstructure:"token"           json:"-"`
}

// MetricsConfig controls the Prometheus and health endpoint
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" json:"enabled"`
	Port    int    `mapstructure:"port"    json:"port"`
	Path    string `mapstructure:"path"    json:"path"`
}

// LogConfig selects the slog handler
type LogConfig struct {
	Level  string `mapstructure:"level"  json:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format" json:"format"` // json or text
}

// Validate checks every section and normalizes platform.org to lowercase.
func (c *Config) Validate() error {
	c.Platform.Org = strings.ToLower(c.Platform.Org)

	switch {
	case c.Platform.Org == "":
		return invalid("platform.org is required")
	case !isValidNATSSubjectPart(c.Platform.Org):
		return invalid("platform.org %q is not valid in a NATS subject", c.Platform.Org)
	case c.Platform.ID == "":
		return invalid("platform.id is required")
	case c.NATS.URL == "":
		return invalid("nats.url is required")
	case c.NATS.ConnectRetries < 0:
		return invalid("nats.connect_retries must not be negative")
	case c.NATS.PingInterval < 0, c.NATS.DrainTimeout < 0:
		return invalid("nats.ping_interval and nats.drain_timeout must not be negative")
	case c.NATS.CircuitThreshold < 0:
		return invalid("nats.circuit_threshold must not be negative")
	case c.NATS.CircuitMaxBackoff != 0 && c.NATS.CircuitMaxBackoff < time.Second:
		return invalid("nats.circuit_max_backoff must be at least 1s")
	}

	if c.Metrics.Enabled {
		if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
			return invalid("metrics.port %d outside 1-65535", c.Metrics.Port)
		}
		if !strings.HasPrefix(c.Metrics.Path, "/") {
			return invalid("metrics.path must start with '/'")
		}
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return invalid("log.level %q must be debug, info, warn or error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return invalid("log.format %q must be json or text", c.Log.Format)
	}

	for name, comp := range c.Components {
		if name == "" {
			return invalid("component instance name cannot be empty")
		}
		if err := comp.Validate(); err != nil {
			return fmt.Errorf("component %s: %w", name, err)
		}
	}
	return nil
}

// EnabledComponents returns the enabled component entries
func (c *Config) EnabledComponents() ComponentConfigs {
	enabled := make(ComponentConfigs, len(c.Components))
	for name, comp := range c.Components {
		if comp.Enabled {
			enabled[name] = comp
		}
	}
	return enabled
}

func invalid(format string, args ...any) error {
	return errors.WrapInvalid(fmt.Errorf("%w: %s", errors.ErrInvalidConfig, fmt.Sprintf(format, args...)),
		"Config", "Validate", "configuration check")
}

// isValidNATSSubjectPart allows letters, digits, '.', '-' and '_'.
func isValidNATSSubjectPart(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '.' && r != '-' && r != '_' {
			return false
		}
	}
	return s != ""
}
