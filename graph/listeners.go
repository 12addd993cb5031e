package graph

import "context"

// NodeEvent is the lifecycle stage reported to listeners.
type NodeEvent string

const (
	NodeEventStart    NodeEvent = "start"
	NodeEventComplete NodeEvent = "complete"
	NodeEventError    NodeEvent = "error"
)

// NodeListener observes node execution. Listeners run synchronously on the
// goroutine calling Invoke and must not modify the state.
type NodeListener[S any] interface {
	OnNodeEvent(ctx context.Context, event NodeEvent, node string, state S, err error)
}

// NodeListenerFunc adapts a function to NodeListener.
type NodeListenerFunc[S any] func(ctx context.Context, event NodeEvent, node string, state S, err error)

func (f NodeListenerFunc[S]) OnNodeEvent(ctx context.Context, event NodeEvent, node string, state S, err error) {
	f(ctx, event, node, state, err)
}
