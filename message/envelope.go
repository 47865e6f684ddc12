package message

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"github.com/xeipuuv/gojsonschema"

	"github.com/c360/clientmanager/errors"
)

// envelopeSchema is the minimum every inbound event must satisfy before it
// reaches a handler.
const envelopeSchema = `{
  "type": "object",
  "required": ["id"],
  "properties": {
    "id": {"type": ["string", "integer"], "minLength": 1},
    "action": {"type": "string"},
    "event_type": {"type": "string"}
  }
}`

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(envelopeSchema))
	})
	return schema, schemaErr
}

// NewEventID returns a correlation id of the form "<service>:<uuid>".
func NewEventID(service string) string {
	return service + ":" + uuid.NewString()
}

// ValidateEnvelope checks that data is a JSON object carrying an "id" that
// is a non-empty string or an integer.
func ValidateEnvelope(data []byte) error {
	s, err := compiledSchema()
	if err != nil {
		return errors.WrapFatal(err, "message", "ValidateEnvelope", "compile envelope schema")
	}

	if !gjson.ValidBytes(data) {
		return errors.WrapInvalid(fmt.Errorf("%w: malformed JSON", errors.ErrInvalidData),
			"message", "ValidateEnvelope", "validate envelope")
	}

	result, err := s.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return errors.WrapInvalid(fmt.Errorf("%w: %v", errors.ErrInvalidData, err),
			"message", "ValidateEnvelope", "validate envelope")
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			problems = append(problems, desc.Field()+": "+desc.Description())
		}
		return errors.WrapInvalid(
			fmt.Errorf("%w: %s", errors.ErrInvalidData, strings.Join(problems, "; ")),
			"message", "ValidateEnvelope", "validate envelope")
	}
	return nil
}

// ID returns the envelope correlation id in textual form, or "" when absent.
func ID(data []byte) string {
	return gjson.GetBytes(data, "id").String()
}

// EventType returns the event tag of a message: the "action" field, falling
// back to "event_type". It returns "" when neither is set.
func EventType(data []byte) string {
	if action := gjson.GetBytes(data, "action").String(); action != "" {
		return action
	}
	return gjson.GetBytes(data, "event_type").String()
}

// Stamp sets the "id" field of a JSON object payload.
func Stamp(payload []byte, id string) ([]byte, error) {
	out, err := sjson.SetBytes(payload, "id", id)
	if err != nil {
		return nil, errors.WrapInvalid(err, "message", "Stamp", "set id")
	}
	return out, nil
}

// SetAction sets the "action" tag of a JSON object payload.
func SetAction(payload []byte, action string) ([]byte, error) {
	out, err := sjson.SetBytes(payload, "action", action)
	if err != nil {
		return nil, errors.WrapInvalid(err, "message", "SetAction", "set action")
	}
	return out, nil
}
