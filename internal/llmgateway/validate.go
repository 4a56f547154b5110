package llmgateway

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Validate checks raw against schema, returning a description of the
// first violation found, or "" when raw conforms.
func Validate(raw json.RawMessage, schema Schema) string {
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Sprintf("invalid JSON: %v", err)
	}
	switch schema.Kind {
	case "array":
		arr, ok := decoded.([]any)
		if !ok {
			return "expected a JSON array"
		}
		for i, item := range arr {
			if schema.ItemKind == "object" {
				obj, ok := item.(map[string]any)
				if !ok {
					return fmt.Sprintf("element %d: expected an object", i)
				}
				if missing := missingFields(obj, schema.ItemRequired); missing != "" {
					return fmt.Sprintf("element %d: missing field %s", i, missing)
				}
			}
		}
		return ""
	case "object":
		obj, ok := decoded.(map[string]any)
		if !ok {
			return "expected a JSON object"
		}
		if missing := missingFields(obj, schema.Required); missing != "" {
			return fmt.Sprintf("missing field %s", missing)
		}
		return ""
	default:
		return ""
	}
}

func missingFields(obj map[string]any, required []string) string {
	for _, field := range required {
		v, ok := obj[field]
		if !ok {
			return field
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			return field
		}
	}
	return ""
}

// RepairHint returns the constrained-retry instruction appended to the
// prompt after a first validation failure (spec §4.M: "appends `Only
// return JSON conforming to schema: <hint>.`").
func RepairHint(schema Schema) string {
	var fields []string
	if schema.Kind == "array" {
		fields = schema.ItemRequired
	} else {
		fields = schema.Required
	}
	return fmt.Sprintf("Only return JSON conforming to schema: %s with fields [%s].", schema.Kind, strings.Join(fields, ", "))
}

// RenderTemplate substitutes {name} placeholders in template with
// string(variables[name]); values that are not strings are rendered as
// compact JSON.
func RenderTemplate(template string, variables map[string]any) string {
	out := template
	for key, value := range variables {
		placeholder := "{" + key + "}"
		if !strings.Contains(out, placeholder) {
			continue
		}
		var rendered string
		if s, ok := value.(string); ok {
			rendered = s
		} else if b, err := json.Marshal(value); err == nil {
			rendered = string(b)
		} else {
			rendered = fmt.Sprintf("%v", value)
		}
		out = strings.ReplaceAll(out, placeholder, rendered)
	}
	return out
}
