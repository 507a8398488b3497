package collection

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const draft2020 = "https://json-schema.org/draft/2020-12/schema"

// JSONSchema describes the collection's front matter as a JSON Schema
// document. Undeclared keys are allowed, matching Validate.
func (d Definition) JSONSchema() map[string]any {
	props := make(map[string]any, len(d.Schema.fields))
	required := []string{}
	for _, f := range d.Schema.fields {
		p := map[string]any{"type": string(f.Kind)}
		if f.Kind == KindString && f.NonEmpty {
			p["minLength"] = 1
		}
		if f.Description != "" {
			p["description"] = f.Description
		}
		props[f.Name] = p
		if !f.Optional {
			required = append(required, f.Name)
		}
	}
	return map[string]any{
		"$schema":              draft2020,
		"title":                d.Name,
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": true,
	}
}

// MarshalJSONSchema renders JSONSchema as indented JSON.
func (d Definition) MarshalJSONSchema() ([]byte, error) {
	return json.MarshalIndent(d.JSONSchema(), "", "  ")
}

// Compile compiles the collection's JSON Schema, failing if the generated
// document is not a valid schema.
func (d Definition) Compile() (*jsonschema.Schema, error) {
	raw, err := d.MarshalJSONSchema()
	if err != nil {
		return nil, fmt.Errorf("marshal schema for collection %q: %w", d.Name, err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("unmarshal schema for collection %q: %w", d.Name, err)
	}

	id := d.Name + ".schema.json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(id, doc); err != nil {
		return nil, fmt.Errorf("add schema resource for collection %q: %w", d.Name, err)
	}
	compiled, err := compiler.Compile(id)
	if err != nil {
		return nil, fmt.Errorf("compile schema for collection %q: %w", d.Name, err)
	}
	return compiled, nil
}
