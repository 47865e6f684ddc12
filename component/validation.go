package component

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/c360/clientmanager/errors"
)

// Limits applied to every component config before it reaches a factory.
const (
	MaxStringLength = 4096        // query texts live in config examples
	MaxJSONSize     = 1024 * 1024 // 1MB
	maxDepth        = 10
	maxArraySize    = 1000
)

// Validatable is implemented by configs that check themselves after decoding
type Validatable interface {
	Validate() error
}

// ValidateFactoryConfig bounds size, depth, array length and string content
// of a raw config. Empty config is valid.
func ValidateFactoryConfig(rawConfig json.RawMessage) error {
	if len(rawConfig) > MaxJSONSize {
		return errors.WrapInvalid(
			fmt.Errorf("config size %d exceeds maximum %d", len(rawConfig), MaxJSONSize),
			"ConfigValidator", "ValidateConfig", "size check")
	}
	if len(rawConfig) == 0 {
		return nil
	}

	var config any
	decoder := json.NewDecoder(bytes.NewReader(rawConfig))
	decoder.UseNumber()
	if err := decoder.Decode(&config); err != nil {
		return errors.WrapInvalid(err, "ConfigValidator", "ValidateConfig", "JSON parsing")
	}
	return validateValue(config, 0)
}

func validateValue(value any, depth int) error {
	if depth > maxDepth {
		return errors.WrapInvalid(fmt.Errorf("JSON depth exceeds maximum %d", maxDepth),
			"ConfigValidator", "validateValue", "depth check")
	}

	switch val := value.(type) {
	case string:
		return validateString(val)
	case []any:
		if len(val) > maxArraySize {
			return errors.WrapInvalid(fmt.Errorf("array size %d exceeds maximum %d", len(val), maxArraySize),
				"ConfigValidator", "validateValue", "array size check")
		}
		for i, elem := range val {
			if err := validateValue(elem, depth+1); err != nil {
				return errors.Wrap(err, "ConfigValidator", "validateValue", fmt.Sprintf("array element %d", i))
			}
		}
	case map[string]any:
		for key, elem := range val {
			if err := validateString(key); err != nil {
				return errors.Wrap(err, "ConfigValidator", "validateValue", "key validation")
			}
			if err := validateValue(elem, depth+1); err != nil {
				return errors.Wrap(err, "ConfigValidator", "validateValue", fmt.Sprintf("object field '%s'", key))
			}
		}
	case json.Number, bool, nil:
	default:
		return errors.WrapInvalid(fmt.Errorf("unexpected type %T in config", value),
			"ConfigValidator", "validateValue", "type check")
	}
	return nil
}

func validateString(s string) error {
	if len(s) > MaxStringLength {
		return errors.WrapInvalid(fmt.Errorf("string length %d exceeds maximum %d", len(s), MaxStringLength),
			"ConfigValidator", "validateString", "length check")
	}
	if strings.ContainsFunc(s, func(r rune) bool { return r < 0x20 && r != '\n' && r != '\r' && r != '\t' }) {
		return errors.WrapInvalid(fmt.Errorf("string contains control character"),
			"ConfigValidator", "validateString", "control character check")
	}
	return nil
}

// SafeUnmarshal validates rawConfig, decodes it into target (a pointer) and
// runs target's Validate method when it has one. Empty config leaves target
// untouched, so callers pre-fill defaults.
func SafeUnmarshal(rawConfig json.RawMessage, target any) error {
	if err := ValidateFactoryConfig(rawConfig); err != nil {
		return errors.Wrap(err, "ConfigValidator", "SafeUnmarshal", "config validation")
	}

	if len(rawConfig) > 0 {
		if err := json.Unmarshal(rawConfig, target); err != nil {
			return errors.WrapInvalid(err, "ConfigValidator", "SafeUnmarshal", "JSON unmarshaling")
		}
	}

	if v, ok := target.(Validatable); ok {
		if err := v.Validate(); err != nil {
			return errors.Wrap(err, "ConfigValidator", "SafeUnmarshal", "struct validation")
		}
	}
	return nil
}
