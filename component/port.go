package component

import (
	"encoding/json"
	"fmt"

	"github.com/c360/clientmanager/errors"
)

// Direction for data flow
type Direction string

// Direction constants for port data flow
const (
	DirectionInput  Direction = "input"
	DirectionOutput Direction = "output"
)

// Port describes any I/O interface
type Port struct {
	Name        string    `json:"name"`
	Direction   Direction `json:"direction"`
	Required    bool      `json:"required"`
	Description string    `json:"description"`
	Config      Portable  `json:"config"`
}

// Portable is the transport-specific half of a port
type Portable interface {
	ResourceID() string // Unique identifier for conflict detection
	IsExclusive() bool  // Whether multiple components can share
	Type() string       // Port type identifier
}

// InterfaceContract names the message shape carried by a port
type InterfaceContract struct {
	Type    string `json:"type"`              // e.g., "clientmanager.QueryReceived"
	Version string `json:"version,omitempty"` // e.g., "v1"
}

// NATSPort is a core NATS subject
type NATSPort struct {
	Subject   string             `json:"subject"`
	Queue     string             `json:"queue,omitempty"`
	Interface *InterfaceContract `json:"interface,omitempty"`
}

// ResourceID implements Portable
func (n NATSPort) ResourceID() string {
	return fmt.Sprintf("nats:%s", n.Subject)
}

// IsExclusive implements Portable
func (n NATSPort) IsExclusive() bool {
	return false
}

// Type implements Portable
func (n NATSPort) Type() string {
	return "nats"
}

// JetStreamPort is a durable stream. Subjects published on it are captured by StreamName.
type JetStreamPort struct {
	StreamName string             `json:"stream_name"`
	Subjects   []string           `json:"subjects"`
	Storage    string             `json:"storage,omitempty"` // "file" or "memory", default "file"
	Interface  *InterfaceContract `json:"interface,omitempty"`
}

// ResourceID implements Portable
func (j JetStreamPort) ResourceID() string {
	if j.StreamName != "" {
		return fmt.Sprintf("jetstream:%s", j.StreamName)
	}
	if len(j.Subjects) > 0 {
		return fmt.Sprintf("jetstream:%s", j.Subjects[0])
	}
	return "jetstream:unknown"
}

// IsExclusive implements Portable
func (j JetStreamPort) IsExclusive() bool {
	return false
}

// Type implements Portable
func (j JetStreamPort) Type() string {
	return "jetstream"
}

// MarshalJSON writes Config as {"type": ..., "data": ...}.
func (p Port) MarshalJSON() ([]byte, error) {
	type PortAlias Port

	wrapper := struct {
		PortAlias
		Config json.RawMessage `json:"config"`
	}{
		PortAlias: (PortAlias)(p),
	}

	if p.Config != nil {
		configBytes, err := json.Marshal(struct {
			Type string `json:"type"`
			Data any    `json:"data"`
		}{Type: p.Config.Type(), Data: p.Config})
		if err != nil {
			return nil, errors.Wrap(err, "Port", "MarshalJSON", "config marshaling")
		}
		wrapper.Config = configBytes
	}

	return json.Marshal(wrapper)
}

// UnmarshalJSON rebuilds the typed Config written by MarshalJSON.
func (p *Port) UnmarshalJSON(data []byte) error {
	type PortAlias Port

	temp := struct {
		*PortAlias
		Config json.RawMessage `json:"config"`
	}{
		PortAlias: (*PortAlias)(p),
	}

	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}
	if len(temp.Config) == 0 || string(temp.Config) == "null" {
		p.Config = nil
		return nil
	}

	var configWrapper struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(temp.Config, &configWrapper); err != nil {
		return errors.Wrap(err, "Port", "UnmarshalJSON", "config wrapper unmarshaling")
	}

	switch configWrapper.Type {
	case "nats":
		var cfg NATSPort
		if err := json.Unmarshal(configWrapper.Data, &cfg); err != nil {
			return errors.Wrap(err, "Port", "UnmarshalJSON", "nats config unmarshaling")
		}
		p.Config = cfg
	case "jetstream":
		var cfg JetStreamPort
		if err := json.Unmarshal(configWrapper.Data, &cfg); err != nil {
			return errors.Wrap(err, "Port", "UnmarshalJSON", "jetstream config unmarshaling")
		}
		p.Config = cfg
	default:
		return errors.WrapInvalid(
			fmt.Errorf("unknown config type: %s", configWrapper.Type),
			"Port", "UnmarshalJSON", "config type validation")
	}

	return nil
}
