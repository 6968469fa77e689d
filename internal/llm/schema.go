package llm

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildDetectionJSONSchema returns a JSON-Schema (draft 2020-12 subset) for
// the expected model output: an array of type/value/label objects. The type
// enum is constrained to the given categories.
func BuildDetectionJSONSchema(categories []string) map[string]any {
	item := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"type":  map[string]any{"type": "string", "enum": categories},
			"value": map[string]any{"type": "string", "minLength": 1},
			"label": map[string]any{"type": "string", "minLength": 1},
		},
		"required": []string{"type", "value", "label"},
	}
	return map[string]any{
		"type":  "array",
		"items": item,
	}
}

// ValidateJSONAgainstSchema validates doc against the schema map. Used for
// the strict pass before any lenient decoding is attempted.
func ValidateJSONAgainstSchema(schema map[string]any, doc []byte) error {
	schemaBytes, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiled, err := jsonschema.CompileString("detection.schema.json", string(schemaBytes))
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(doc, &v); err != nil {
		return fmt.Errorf("parse document: %w", err)
	}
	return compiled.Validate(v)
}
