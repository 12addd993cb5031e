package graph

import (
	"context"
	"fmt"
)

// StateGraph is a graph of nodes that pass a state of type S along edges.
//
// Example usage:
//
//	type Counter struct{ N int }
//
//	g := graph.NewStateGraph[Counter]()
//	g.AddNode("inc", "Increment counter", func(ctx context.Context, s Counter) (Counter, error) {
//	    s.N++
//	    return s, nil
//	})
//	g.AddConditionalEdge("inc", func(ctx context.Context, s Counter) string {
//	    if s.N < 3 {
//	        return "inc"
//	    }
//	    return graph.END
//	})
//	g.SetEntryPoint("inc")
type StateGraph[S any] struct {
	nodes map[string]Node[S]

	edges []Edge

	// conditionalEdges maps a "From" node to a function choosing the next node
	conditionalEdges map[string]func(ctx context.Context, state S) string

	entryPoint string

	recursionLimit int
}

// NewStateGraph creates a new instance of StateGraph.
func NewStateGraph[S any]() *StateGraph[S] {
	return &StateGraph[S]{
		nodes:            make(map[string]Node[S]),
		conditionalEdges: make(map[string]func(ctx context.Context, state S) string),
		recursionLimit:   DefaultRecursionLimit,
	}
}

// AddNode adds a new node to the state graph with the given name, description and function.
func (g *StateGraph[S]) AddNode(name string, description string, fn func(ctx context.Context, state S) (S, error)) {
	g.nodes[name] = Node[S]{
		Name:        name,
		Description: description,
		Function:    fn,
	}
}

// AddEdge adds a new edge to the state graph between the "from" and "to" nodes.
func (g *StateGraph[S]) AddEdge(from, to string) {
	g.edges = append(g.edges, Edge{From: from, To: to})
}

// AddConditionalEdge adds an edge whose target is chosen at runtime.
// A conditional edge takes precedence over static edges from the same node.
func (g *StateGraph[S]) AddConditionalEdge(from string, condition func(ctx context.Context, state S) string) {
	g.conditionalEdges[from] = condition
}

// SetEntryPoint sets the entry point node name for the state graph.
func (g *StateGraph[S]) SetEntryPoint(name string) {
	g.entryPoint = name
}

// SetRecursionLimit sets how many node executions a single Invoke may perform.
// Values below one restore the default.
func (g *StateGraph[S]) SetRecursionLimit(limit int) {
	if limit < 1 {
		limit = DefaultRecursionLimit
	}
	g.recursionLimit = limit
}

// Compile validates the graph and returns a StateRunnable.
func (g *StateGraph[S]) Compile() (*StateRunnable[S], error) {
	if g.entryPoint == "" {
		return nil, ErrEntryPointNotSet
	}
	if _, ok := g.nodes[g.entryPoint]; !ok {
		return nil, fmt.Errorf("%w: entry point %s", ErrNodeNotFound, g.entryPoint)
	}
	for _, e := range g.edges {
		if _, ok := g.nodes[e.From]; !ok {
			return nil, fmt.Errorf("%w: edge source %s", ErrNodeNotFound, e.From)
		}
		if _, ok := g.nodes[e.To]; !ok && e.To != END {
			return nil, fmt.Errorf("%w: edge target %s", ErrNodeNotFound, e.To)
		}
	}
	for from := range g.conditionalEdges {
		if _, ok := g.nodes[from]; !ok {
			return nil, fmt.Errorf("%w: conditional edge source %s", ErrNodeNotFound, from)
		}
	}

	return &StateRunnable[S]{graph: g}, nil
}

// StateRunnable is a compiled state graph. It holds no per-run data and is
// safe for concurrent Invoke calls as long as the node functions are.
type StateRunnable[S any] struct {
	graph     *StateGraph[S]
	listeners []NodeListener[S]
}

// AddListener registers a listener notified of every node event.
// Listeners must be added before the runnable is shared.
func (r *StateRunnable[S]) AddListener(l NodeListener[S]) *StateRunnable[S] {
	r.listeners = append(r.listeners, l)
	return r
}

// Invoke runs the graph from the entry point until END and returns the final
// state. Cancellation of ctx is checked before every node.
func (r *StateRunnable[S]) Invoke(ctx context.Context, initialState S) (S, error) {
	state := initialState
	current := r.graph.entryPoint

	for steps := 0; current != END; steps++ {
		if steps >= r.graph.recursionLimit {
			return state, fmt.Errorf("%w: %d steps", ErrRecursionLimit, r.graph.recursionLimit)
		}
		if err := ctx.Err(); err != nil {
			return state, err
		}

		node, ok := r.graph.nodes[current]
		if !ok {
			return state, fmt.Errorf("%w: %s", ErrNodeNotFound, current)
		}

		r.notify(ctx, NodeEventStart, current, state, nil)
		next, err := node.Function(ctx, state)
		if err != nil {
			r.notify(ctx, NodeEventError, current, state, err)
			return state, fmt.Errorf("error in node %s: %w", current, err)
		}
		state = next
		r.notify(ctx, NodeEventComplete, current, state, nil)

		current, err = r.next(ctx, current, state)
		if err != nil {
			return state, err
		}
	}

	return state, nil
}

func (r *StateRunnable[S]) next(ctx context.Context, from string, state S) (string, error) {
	if cond, ok := r.graph.conditionalEdges[from]; ok {
		to := cond(ctx, state)
		if to == "" {
			return "", fmt.Errorf("%w: %s", ErrNoOutgoingEdge, from)
		}
		return to, nil
	}
	for _, e := range r.graph.edges {
		if e.From == from {
			return e.To, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNoOutgoingEdge, from)
}

func (r *StateRunnable[S]) notify(ctx context.Context, event NodeEvent, node string, state S, err error) {
	for _, l := range r.listeners {
		l.OnNodeEvent(ctx, event, node, state, err)
	}
}
