package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/mesh-intelligence/qurancms/pkg/types"
)

// JSONSchema returns the JSON Schema of a coerced document body, before
// server timestamps are applied.
func (s *Schema) JSONSchema() map[string]any {
	props := make(map[string]any, len(s.Fields))
	for _, f := range s.Fields {
		switch {
		case f.Integer:
			props[f.Key] = map[string]any{"type": "integer"}
		case f.Numeric:
			props[f.Key] = map[string]any{"type": "number"}
		default:
			props[f.Key] = map[string]any{"type": "string"}
		}
	}

	var required []string
	seen := make(map[string]bool)
	for _, r := range s.Rules {
		if r.Kind != Required || seen[r.Field] {
			continue
		}
		seen[r.Field] = true
		required = append(required, r.Field)
		if f, ok := s.Field(r.Field); ok && !f.Numeric {
			props[r.Field] = map[string]any{"type": "string", "pattern": `\S`}
		}
	}

	out := map[string]any{
		"$schema":              "https://json-schema.org/draft/2020-12/schema",
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		out["required"] = required
	}
	return out
}

// DocumentValidator checks document bodies against their compiled schema.
type DocumentValidator struct {
	mu       sync.RWMutex
	compiled map[types.Kind]*jsonschema.Schema
}

// NewDocumentValidator returns a validator with an empty schema cache.
func NewDocumentValidator() *DocumentValidator {
	return &DocumentValidator{compiled: make(map[types.Kind]*jsonschema.Schema)}
}

// Validate checks body against the schema of s.
func (v *DocumentValidator) Validate(s *Schema, body map[string]any) error {
	compiled, err := v.schemaFor(s)
	if err != nil {
		return err
	}
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: marshal %s: %v", types.ErrInvalidData, s.Kind, err)
	}
	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("%w: normalize %s: %v", types.ErrInvalidData, s.Kind, err)
	}
	if err := compiled.Validate(payload); err != nil {
		return fmt.Errorf("%w: %s failed validation: %v", types.ErrInvalidData, s.Kind, err)
	}
	return nil
}

func (v *DocumentValidator) schemaFor(s *Schema) (*jsonschema.Schema, error) {
	v.mu.RLock()
	compiled, ok := v.compiled[s.Kind]
	v.mu.RUnlock()
	if ok {
		return compiled, nil
	}

	data, err := json.Marshal(s.JSONSchema())
	if err != nil {
		return nil, fmt.Errorf("marshal schema %s: %w", s.Kind, err)
	}
	compiler := jsonschema.NewCompiler()
	name := string(s.Kind) + ".json"
	if err := compiler.AddResource(name, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("load schema %s: %w", s.Kind, err)
	}
	compiled, err = compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", s.Kind, err)
	}

	v.mu.Lock()
	v.compiled[s.Kind] = compiled
	v.mu.Unlock()
	return compiled, nil
}
