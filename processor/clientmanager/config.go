package clientmanager

import (
	"fmt"
	"strings"

	"github.com/c360/clientmanager/component"
	"github.com/c360/clientmanager/engine"
	"github.com/c360/clientmanager/errors"
	"github.com/c360/clientmanager/serviceregistry"
)

// Input port names. The commands port carries every event kind and relies on
// the message's action or event_type tag; the others are named after the
// event they carry.
const (
	PortCommands               = "commands"
	PortPublisherCreated       = "PublisherCreated"
	PortPublisherRemoved       = "PublisherRemoved"
	PortQueryReceived          = "QueryReceived"
	PortQueryDeletionRequested = "QueryDeletionRequested"
	PortServiceWorkerAnnounced = "ServiceWorkerAnnounced"
)

// DefaultQueueSize bounds the events waiting for the engine loop.
const DefaultQueueSize = 256

// ServiceConfig declares a processing service and the content types it produces.
type ServiceConfig struct {
	Type         string   `json:"type"`
	ContentTypes []string `json:"content_types"`
}

// Config holds configuration for the client manager processor
type Config struct {
	Ports *component.PortConfig `json:"ports"`

	// Catalog is a "Type:ct1,ct2;Type2:ct3" string of known services.
	// Services listed in Services are declared after it.
	Catalog  string          `json:"catalog"`
	Services []ServiceConfig `json:"services"`

	QueueSize int `json:"queue_size"`
}

// DefaultConfig returns the default configuration for the client manager processor
func DefaultConfig() Config {
	inputDefs := []component.PortDefinition{
		{
			Name:        PortCommands,
			Type:        "nats",
			Subject:     "clientmanager.commands",
			Interface:   "clientmanager.event",
			Required:    false,
			Description: "Lifecycle events tagged by action or event_type",
		},
		inputDef(PortPublisherCreated, "Publisher joined"),
		inputDef(PortPublisherRemoved, "Publisher left"),
		inputDef(PortQueryReceived, "Subscriber query registration"),
		inputDef(PortQueryDeletionRequested, "Subscriber query deletion"),
		inputDef(PortServiceWorkerAnnounced, "Processing-service worker announcement"),
	}

	outputDefs := []component.PortDefinition{
		outputDef(engine.TargetPreprocessor, "Buffer stream start and stop"),
		outputDef(engine.TargetEventDispatcher, "Buffer stream key registration"),
		outputDef(engine.TargetAdaptationPlanner, "Service chain and QoS policy per query"),
		outputDef(engine.TargetMatcher, "Query pattern clauses"),
		outputDef(engine.TargetWindowManager, "Query windows"),
		{
			Name:        string(engine.TargetNotifications),
			Type:        "jetstream",
			Subject:     "clientmanager.notifications.>",
			StreamName:  "CLIENTMANAGER_NOTIFICATIONS",
			Interface:   "clientmanager.notification",
			Required:    true,
			Description: "Durable QueryCreated and QueryRemoved records, one subject per action",
		},
	}

	return Config{
		Ports: &component.PortConfig{
			Inputs:  inputDefs,
			Outputs: outputDefs,
		},
		Catalog:   serviceregistry.DefaultCatalog,
		QueueSize: DefaultQueueSize,
	}
}

func inputDef(event, description string) component.PortDefinition {
	return component.PortDefinition{
		Name:        event,
		Type:        "nats",
		Subject:     "clientmanager.events." + event,
		Interface:   "clientmanager." + event,
		Description: description,
	}
}

func outputDef(target engine.Target, description string) component.PortDefinition {
	return component.PortDefinition{
		Name:        string(target),
		Type:        "nats",
		Subject:     string(target) + ".cmd",
		Interface:   "clientmanager." + string(target) + ".command",
		Required:    true,
		Description: description,
	}
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if c.QueueSize <= 0 {
		return errors.WrapInvalid(
			fmt.Errorf("%w: queue_size must be positive, got %d", errors.ErrInvalidConfig, c.QueueSize),
			"ClientManagerConfig", "Validate", "check queue size")
	}

	if c.Catalog != "" {
		if _, err := serviceregistry.ParseCatalog(c.Catalog); err != nil {
			return errors.WrapInvalid(err, "ClientManagerConfig", "Validate", "parse catalog")
		}
	}

	for i, svc := range c.Services {
		if strings.TrimSpace(svc.Type) == "" {
			return errors.WrapInvalid(
				fmt.Errorf("%w: services[%d] has no type", errors.ErrInvalidConfig, i),
				"ClientManagerConfig", "Validate", "check services")
		}
		if len(svc.ContentTypes) == 0 {
			return errors.WrapInvalid(
				fmt.Errorf("%w: service %q declares no content types", errors.ErrInvalidConfig, svc.Type),
				"ClientManagerConfig", "Validate", "check services")
		}
	}

	if c.Ports != nil {
		for _, def := range append(append([]component.PortDefinition{}, c.Ports.Inputs...), c.Ports.Outputs...) {
			if def.Name == "" {
				return errors.WrapInvalid(
					fmt.Errorf("%w: port without name", errors.ErrInvalidConfig),
					"ClientManagerConfig", "Validate", "check ports")
			}
			if def.Subject == "" {
				return errors.WrapInvalid(
					fmt.Errorf("%w: port %q has no subject", errors.ErrInvalidConfig, def.Name),
					"ClientManagerConfig", "Validate", "check ports")
			}
			if def.Type == "jetstream" && def.StreamName == "" {
				return errors.WrapInvalid(
					fmt.Errorf("%w: jetstream port %q has no stream_name", errors.ErrInvalidConfig, def.Name),
					"ClientManagerConfig", "Validate", "check ports")
			}
		}
	}
	return nil
}

// buildServices builds the service registry declared by the config.
func (c *Config) buildServices() (*serviceregistry.Registry, error) {
	services := serviceregistry.New()
	if c.Catalog != "" {
		parsed, err := serviceregistry.ParseCatalog(c.Catalog)
		if err != nil {
			return nil, err
		}
		services = parsed
	}
	for _, svc := range c.Services {
		services.Declare(svc.Type, svc.ContentTypes...)
	}
	return services, nil
}

// resolvePorts overlays configured ports onto the defaults by name.
func (c *Config) resolvePorts() (inputs, outputs []component.Port) {
	defaults := DefaultConfig()
	inputs = buildPorts(defaults.Ports.Inputs, component.DirectionInput)
	outputs = buildPorts(defaults.Ports.Outputs, component.DirectionOutput)

	if c.Ports != nil {
		inputs = component.MergePortConfigs(inputs, c.Ports.Inputs, component.DirectionInput)
		outputs = component.MergePortConfigs(outputs, c.Ports.Outputs, component.DirectionOutput)
	}
	return inputs, outputs
}

func buildPorts(defs []component.PortDefinition, direction component.Direction) []component.Port {
	ports := make([]component.Port, 0, len(defs))
	for _, def := range defs {
		ports = append(ports, component.BuildPortFromDefinition(def, direction))
	}
	return ports
}
