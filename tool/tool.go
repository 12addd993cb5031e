package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/smallnest/ragagent/chat"
)

var (
	// ErrDuplicateTool is returned when two handlers share a name.
	ErrDuplicateTool = errors.New("duplicate tool name")

	// ErrUnknownTool is returned by Dispatch for names not in the registry.
	ErrUnknownTool = errors.New("unknown tool")
)

// Handler is a tool the model can call.
type Handler interface {
	// Spec describes the tool to the model.
	Spec() chat.ToolSpec

	// Call runs the tool with the raw JSON arguments object and returns the
	// text handed back to the model.
	Call(ctx context.Context, args json.RawMessage) (string, error)
}

// ArgumentError reports arguments that do not fit a tool's parameters.
type ArgumentError struct {
	Tool string
	Err  error
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid arguments for tool %s: %v", e.Tool, e.Err)
}

func (e *ArgumentError) Unwrap() error {
	return e.Err
}

// Registry is a fixed set of tools indexed by name. Register every tool
// before the registry is shared; lookups are read-only afterwards.
type Registry struct {
	handlers map[string]Handler
	order    []string
}

// NewRegistry creates a registry holding handlers.
func NewRegistry(handlers ...Handler) (*Registry, error) {
	r := &Registry{handlers: make(map[string]Handler)}
	for _, h := range handlers {
		if err := r.Register(h); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds h to the registry.
func (r *Registry) Register(h Handler) error {
	name := h.Spec().Name
	if name == "" {
		return fmt.Errorf("tool has no name")
	}
	if _, ok := r.handlers[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, name)
	}
	r.handlers[name] = h
	r.order = append(r.order, name)
	return nil
}

// Lookup returns the handler registered under name.
func (r *Registry) Lookup(name string) (Handler, bool) {
	h, ok := r.handlers[name]
	return h, ok
}

// Specs returns the tool specs in registration order.
func (r *Registry) Specs() []chat.ToolSpec {
	specs := make([]chat.ToolSpec, 0, len(r.order))
	for _, name := range r.order {
		specs = append(specs, r.handlers[name].Spec())
	}
	return specs
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	return len(r.order)
}

// Dispatch runs the tool named by call.
func (r *Registry) Dispatch(ctx context.Context, call chat.ToolCall) (string, error) {
	h, ok := r.Lookup(call.Name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, call.Name)
	}
	return h.Call(ctx, arguments(call.Arguments))
}

// arguments treats empty argument text as an empty object.
func arguments(raw string) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("{}")
	}
	return json.RawMessage(raw)
}

// ArgumentValidator is implemented by handlers that can check arguments
// without running the tool.
type ArgumentValidator interface {
	ValidateArgs(args json.RawMessage) error
}

// Check reports whether call names a registered tool with acceptable
// arguments, without running it.
func (r *Registry) Check(call chat.ToolCall) error {
	h, ok := r.Lookup(call.Name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTool, call.Name)
	}
	if v, ok := h.(ArgumentValidator); ok {
		return v.ValidateArgs(arguments(call.Arguments))
	}
	return nil
}
