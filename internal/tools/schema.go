package tools

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// compileSchema turns a spec's parameter descriptors into a compiled JSON
// schema. Done once at registration so malformed descriptors surface there,
// never at call time.
func compileSchema(spec ToolSpec) (*jsonschema.Schema, error) {
	properties := map[string]any{}
	var required []any
	for _, p := range spec.Parameters {
		properties[p.Name] = map[string]any{
			"type":        p.Type,
			"description": p.Description,
		}
		if p.Required {
			required = append(required, p.Name)
		}
	}

	doc := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": true,
	}
	if len(required) > 0 {
		doc["required"] = required
	}

	compiler := jsonschema.NewCompiler()
	url := spec.Name + ".schema.json"
	if err := compiler.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("tool %s: add schema resource: %w", spec.Name, err)
	}
	schema, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("tool %s: compile schema: %w", spec.Name, err)
	}
	return schema, nil
}

// validateArgs checks raw parameters against the compiled schema and maps
// failures to the validation error kind, naming the offending field.
func validateArgs(spec ToolSpec, schema *jsonschema.Schema, args map[string]interface{}) *ToolError {
	// Missing required parameters get a precise message first; the schema
	// error for them is correct but less direct.
	for _, p := range spec.Parameters {
		if !p.Required {
			continue
		}
		if _, ok := args[p.Name]; !ok {
			return &ToolError{
				Kind:    KindValidation,
				Message: fmt.Sprintf("missing required argument: %s", p.Name),
				Field:   p.Name,
			}
		}
	}

	var doc any = map[string]any{}
	if args != nil {
		doc = normalizeJSON(args)
	}
	if err := schema.Validate(doc); err != nil {
		field := ""
		if verr, ok := err.(*jsonschema.ValidationError); ok {
			field = offendingField(verr)
		}
		return &ToolError{
			Kind:    KindValidation,
			Message: err.Error(),
			Field:   field,
		}
	}
	return nil
}

// offendingField walks to the deepest cause and renders its instance location.
func offendingField(verr *jsonschema.ValidationError) string {
	for len(verr.Causes) > 0 {
		verr = verr.Causes[0]
	}
	return strings.Join(verr.InstanceLocation, "/")
}

// normalizeJSON converts Go-native argument values (ints, nested maps from
// callers that did not round-trip through encoding/json) into the JSON value
// shapes the schema validator expects.
func normalizeJSON(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalizeJSON(val)
		}
		return out
	case []interface{}:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeJSON(val)
		}
		return out
	case int:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case float32:
		return float64(t)
	default:
		return v
	}
}
