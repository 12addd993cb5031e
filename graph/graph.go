package graph

import (
	"context"
	"errors"
)

// END names the implicit terminal node. Routing to it finishes a run.
const END = "END"

// DefaultRecursionLimit caps node executions per Invoke unless changed with
// SetRecursionLimit.
const DefaultRecursionLimit = 25

var (
	ErrEntryPointNotSet = errors.New("entry point not set")
	ErrNodeNotFound     = errors.New("node not found")
	ErrNoOutgoingEdge   = errors.New("no outgoing edge found for node")
	ErrRecursionLimit   = errors.New("recursion limit reached")
)

// NodeFunc transforms the state. Returning an error stops the run.
type NodeFunc[S any] func(ctx context.Context, state S) (S, error)

// Node is a named step of a graph.
type Node[S any] struct {
	Name        string
	Description string
	Function    NodeFunc[S]
}

// Edge is an unconditional transition.
type Edge struct {
	From string
	To   string
}
