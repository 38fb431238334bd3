package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/kaptinlin/jsonschema"
)

// ErrSchema is returned when a hook file does not have the hook template shape.
var ErrSchema = errors.New("hook file does not match schema")

// hookFileSchema describes the mapping from event name to one hook object or
// a list of them. Value checks (known events, actions, threshold ranges,
// regex syntax) are left to hooks.Load so they report the offending field.
const hookFileSchema = `{
  "type": "object",
  "additionalProperties": {
    "oneOf": [
      {"$ref": "#/$defs/hook"},
      {"type": "array", "items": {"$ref": "#/$defs/hook"}}
    ]
  },
  "$defs": {
    "hook": {
      "type": "object",
      "additionalProperties": false,
      "required": ["action"],
      "properties": {
        "name": {"type": "string"},
        "tool": {"type": "string"},
        "pattern": {"type": "string"},
        "field": {"type": "string"},
        "threshold": {"type": "number"},
        "action": {"type": "string"},
        "message": {"type": "string"},
        "require_plan": {"type": "boolean"}
      }
    }
  }
}`

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	return jsonschema.NewCompiler().Compile([]byte(hookFileSchema))
})

// validateSchema checks a decoded hook mapping against hookFileSchema.
func validateSchema(data interface{}) error {
	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("failed to compile hook file schema: %w", err)
	}

	result := schema.Validate(data)
	if result.IsValid() {
		return nil
	}

	details := make([]string, 0, len(result.Errors))
	for keyword, evalErr := range result.Errors {
		details = append(details, fmt.Sprintf("%s: %s", keyword, evalErr.Message))
	}
	sort.Strings(details)
	return fmt.Errorf("%w: %s", ErrSchema, strings.Join(details, "; "))
}
