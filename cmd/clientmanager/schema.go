package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xeipuuv/gojsonschema"

	"github.com/c360/clientmanager/component"
	"github.com/c360/clientmanager/componentregistry"
)

// jsonSchema is a draft-07 document describing one component type's config
type jsonSchema struct {
	Schema     string                    `json:"$schema"`
	ID         string                    `json:"$id"`
	Type       string                    `json:"type"`
	Title      string                    `json:"title"`
	Properties map[string]schemaProperty `json:"properties"`
	Required   []string                  `json:"required"`
}

type schemaProperty struct {
	Type        string          `json:"type"`
	Description string          `json:"description,omitempty"`
	Default     any             `json:"default,omitempty"`
	Enum        []string        `json:"enum,omitempty"`
	Minimum     *int            `json:"minimum,omitempty"`
	Items       *schemaProperty `json:"items,omitempty"`
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema [component-type]",
		Short: "Print the JSON Schema of component configs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := component.NewRegistry()
			if err := componentregistry.Register(registry); err != nil {
				return fmt.Errorf("register components: %w", err)
			}

			names := registry.ListComponentTypes()
			if len(args) == 1 {
				names = args
			}

			docs := make(map[string]jsonSchema, len(names))
			for _, name := range names {
				cs, err := registry.GetComponentSchema(name)
				if err != nil {
					return err
				}
				doc := toJSONSchema(name, cs)
				if err := checkSchema(doc); err != nil {
					return fmt.Errorf("schema for %s: %w", name, err)
				}
				docs[name] = doc
			}

			var out any = docs
			if len(args) == 1 {
				out = docs[args[0]]
			}
			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return err
			}
			cmd.Println(string(data))
			return nil
		},
	}
}

func toJSONSchema(name string, cs component.ConfigSchema) jsonSchema {
	props := make(map[string]schemaProperty, len(cs.Properties))
	for key, p := range cs.Properties {
		prop := schemaProperty{
			Type:        jsonType(p.Type),
			Description: p.Description,
			Default:     p.Default,
			Enum:        p.Enum,
			Minimum:     p.Minimum,
		}
		if prop.Type == "array" {
			prop.Items = &schemaProperty{Type: "object"}
		}
		props[key] = prop
	}

	required := cs.Required
	if required == nil {
		required = []string{}
	}

	return jsonSchema{
		Schema:     "http://json-schema.org/draft-07/schema#",
		ID:         name + ".v1.json",
		Type:       "object",
		Title:      name + " Configuration",
		Properties: props,
		Required:   required,
	}
}

func jsonType(t string) string {
	switch t {
	case "int":
		return "integer"
	case "float":
		return "number"
	case "bool":
		return "boolean"
	case "array":
		return "array"
	case "object", "ports":
		return "object"
	default:
		return "string"
	}
}

// checkSchema compiles doc so a malformed property surfaces before it is published.
func checkSchema(doc jsonSchema) error {
	_, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(doc))
	return err
}
