// Package types holds the small shared types used by both config and component,
// kept apart to avoid an import cycle between them.
package types

import (
	"encoding/json"
	"fmt"

	"github.com/c360/clientmanager/errors"
)

// ComponentType represents the category of a component
type ComponentType string

// Component type constants
const (
	ComponentTypeInput     ComponentType = "input"
	ComponentTypeProcessor ComponentType = "processor"
	ComponentTypeOutput    ComponentType = "output"
)

// String implements fmt.Stringer
func (ct ComponentType) String() string {
	return string(ct)
}

// ComponentConfig configures one component instance. The instance name is
// the key under "components" in the service configuration.
type ComponentConfig struct {
	Type    ComponentType   `json:"type"    mapstructure:"type"`
	Name    string          `json:"name"    mapstructure:"name"` // factory name, e.g. "client-manager"
	Enabled bool            `json:"enabled" mapstructure:"enabled"`
	Config  json.RawMessage `json:"config"  mapstructure:"-"`
}

// Validate checks the type and factory name
func (c ComponentConfig) Validate() error {
	if c.Type == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "ComponentConfig", "Validate",
			"component type cannot be empty")
	}
	if c.Name == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "ComponentConfig", "Validate",
			"component factory name cannot be empty")
	}

	switch c.Type {
	case ComponentTypeInput, ComponentTypeProcessor, ComponentTypeOutput:
		return nil
	default:
		return errors.WrapInvalid(errors.ErrInvalidConfig, "ComponentConfig", "Validate",
			fmt.Sprintf("invalid component type: %s", c.Type))
	}
}

// PlatformMeta identifies the deployment a component runs in.
type PlatformMeta struct {
	Org      string // Organization namespace, e.g. "c360"
	Platform string // Platform identifier, e.g. "edge-01"
}
