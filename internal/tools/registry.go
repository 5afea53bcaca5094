// Package tools declares the callable tools exposed to the generative
// capability and validates their inputs before execution.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/sellersight/sellersight/internal/domain"
)

// Spec declares one callable tool: a name, a usage-policy description
// injected into the model's instructions, a JSON Schema input contract, and
// the execution function. Specs are immutable after registration.
type Spec struct {
	Name        string
	Description string
	// Schema is the JSON Schema the input must satisfy.
	Schema map[string]any
	// Execute runs the tool; the returned value is marshalled to JSON as the
	// tool result.
	Execute func(ctx context.Context, input json.RawMessage) (any, error)

	compiled *gojsonschema.Schema
}

// Registry holds the tool set for the process lifetime.
type Registry struct {
	specs map[string]*Spec
	order []string
}

// NewRegistry compiles and registers the given specs. Registration order is
// preserved in Descriptors.
func NewRegistry(specs ...*Spec) (*Registry, error) {
	r := &Registry{specs: make(map[string]*Spec)}
	for _, spec := range specs {
		if spec.Name == "" {
			return nil, fmt.Errorf("tool spec missing name")
		}
		if _, dup := r.specs[spec.Name]; dup {
			return nil, fmt.Errorf("duplicate tool %q", spec.Name)
		}
		compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(spec.Schema))
		if err != nil {
			return nil, fmt.Errorf("compile schema for tool %q: %w", spec.Name, err)
		}
		spec.compiled = compiled
		r.specs[spec.Name] = spec
		r.order = append(r.order, spec.Name)
	}
	return r, nil
}

// Descriptors lists the registered tools for a step request.
func (r *Registry) Descriptors() []domain.ToolDescriptor {
	out := make([]domain.ToolDescriptor, 0, len(r.order))
	for _, name := range r.order {
		spec := r.specs[name]
		out = append(out, domain.ToolDescriptor{
			Name:        spec.Name,
			Description: spec.Description,
			Schema:      spec.Schema,
		})
	}
	return out
}

// Execute validates input against the tool's schema and runs it. Invalid
// input is a contract violation error, never coerced. The returned value is
// the tool's JSON result.
func (r *Registry) Execute(ctx context.Context, name string, input json.RawMessage) (json.RawMessage, error) {
	spec, ok := r.specs[name]
	if !ok {
		return nil, fmt.Errorf("unknown tool %q", name)
	}

	if len(input) == 0 {
		input = json.RawMessage("{}")
	}
	result, err := spec.compiled.Validate(gojsonschema.NewBytesLoader(input))
	if err != nil {
		return nil, fmt.Errorf("validate input for tool %q: %w", name, err)
	}
	if !result.Valid() {
		return nil, fmt.Errorf("invalid input for tool %q: %s", name, validationErrors(result))
	}

	out, err := spec.Execute(ctx, input)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("marshal result of tool %q: %w", name, err)
	}
	return encoded, nil
}

func validationErrors(result *gojsonschema.Result) string {
	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}
	return strings.Join(msgs, "; ")
}
