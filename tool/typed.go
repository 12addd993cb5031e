package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/smallnest/ragagent/chat"
)

// Typed is a Handler whose arguments decode into A. The parameter schema
// advertised to the model is reflected from A, so struct tags such as
// `json:"query" jsonschema:"description=..."` shape what the model sees.
//
// If A has a Validate() error method it runs after decoding.
type Typed[A any] struct {
	spec chat.ToolSpec
	fn   func(ctx context.Context, args A) (string, error)
}

// NewTyped creates a typed handler.
func NewTyped[A any](name, description string, fn func(ctx context.Context, args A) (string, error)) (*Typed[A], error) {
	params, err := reflectParameters[A]()
	if err != nil {
		return nil, fmt.Errorf("tool %s: %w", name, err)
	}
	return &Typed[A]{
		spec: chat.ToolSpec{Name: name, Description: description, Parameters: params},
		fn:   fn,
	}, nil
}

// Spec implements Handler.
func (t *Typed[A]) Spec() chat.ToolSpec {
	return t.spec
}

// ValidateArgs implements ArgumentValidator.
func (t *Typed[A]) ValidateArgs(args json.RawMessage) error {
	_, err := t.decode(args)
	return err
}

// Call implements Handler.
func (t *Typed[A]) Call(ctx context.Context, args json.RawMessage) (string, error) {
	a, err := t.decode(args)
	if err != nil {
		return "", err
	}
	return t.fn(ctx, a)
}

func (t *Typed[A]) decode(args json.RawMessage) (A, error) {
	var a A
	if err := json.Unmarshal(args, &a); err != nil {
		return a, &ArgumentError{Tool: t.spec.Name, Err: err}
	}
	if v, ok := any(&a).(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return a, &ArgumentError{Tool: t.spec.Name, Err: err}
		}
	}
	return a, nil
}

func reflectParameters[A any]() (map[string]any, error) {
	reflector := jsonschema.Reflector{
		// Expand definitions inline instead of using $refs
		DoNotReference: true,
		Anonymous:      true,
	}
	var zero A
	schema := reflector.Reflect(zero)

	data, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal parameter schema: %w", err)
	}
	var params map[string]any
	if err := json.Unmarshal(data, &params); err != nil {
		return nil, fmt.Errorf("failed to decode parameter schema: %w", err)
	}

	delete(params, "$schema")
	delete(params, "$id")
	if _, ok := params["type"]; !ok {
		params["type"] = "object"
	}
	return params, nil
}
