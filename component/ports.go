package component

// PortDefinition is a port as written in component configuration
type PortDefinition struct {
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"` // "nats" (default) or "jetstream"
	Subject     string `json:"subject,omitempty"`
	Interface   string `json:"interface,omitempty"`
	Required    bool   `json:"required,omitempty"`
	Description string `json:"description,omitempty"`
	StreamName  string `json:"stream_name,omitempty"`
}

// PortConfig groups the configured input and output ports
type PortConfig struct {
	Inputs  []PortDefinition `json:"inputs,omitempty"`
	Outputs []PortDefinition `json:"outputs,omitempty"`
}

// MergePortConfigs overlays configured definitions onto defaults by name.
// Defaults keep their order; extra definitions follow in config order.
func MergePortConfigs(defaults []Port, overrides []PortDefinition, direction Direction) []Port {
	byName := make(map[string]PortDefinition, len(overrides))
	for _, o := range overrides {
		byName[o.Name] = o
	}

	result := make([]Port, 0, len(defaults)+len(overrides))
	for _, d := range defaults {
		if o, ok := byName[d.Name]; ok {
			result = append(result, BuildPortFromDefinition(o, direction))
			delete(byName, d.Name)
			continue
		}
		result = append(result, d)
	}

	for _, o := range overrides {
		if _, pending := byName[o.Name]; pending {
			result = append(result, BuildPortFromDefinition(o, direction))
			delete(byName, o.Name)
		}
	}
	return result
}

// BuildPortFromDefinition creates a Port from a PortDefinition
func BuildPortFromDefinition(def PortDefinition, direction Direction) Port {
	port := Port{
		Name:        def.Name,
		Direction:   direction,
		Required:    def.Required,
		Description: def.Description,
	}

	var iface *InterfaceContract
	if def.Interface != "" {
		iface = &InterfaceContract{Type: def.Interface, Version: "v1"}
	}

	switch def.Type {
	case "jetstream":
		port.Config = JetStreamPort{
			StreamName: def.StreamName,
			Subjects:   []string{def.Subject},
			Interface:  iface,
		}
	default:
		port.Config = NATSPort{Subject: def.Subject, Interface: iface}
	}

	return port
}

// Subject returns the subject a port is bound to, or "" when the port
// has no subject. JetStream ports report their first subject.
func (p Port) Subject() string {
	switch cfg := p.Config.(type) {
	case NATSPort:
		return cfg.Subject
	case JetStreamPort:
		if len(cfg.Subjects) > 0 {
			return cfg.Subjects[0]
		}
	}
	return ""
}
