// Package graph provides a small state graph runtime.
//
// A graph is a set of named nodes connected by static and conditional edges.
// Each node receives the current state and returns the next one. Invoke walks
// the graph from the entry point, one node at a time, until a node routes to
// END.
//
// # Building a Graph
//
//	g := graph.NewStateGraph[*TurnState]()
//	g.AddNodeWithRetry("agent", "Call the model", callModel, &graph.RetryPolicy{
//		MaxRetries: 1,
//		Retryable:  isTimeout,
//	})
//	g.AddNode("tools", "Run requested tools", runTools)
//	g.AddConditionalEdge("agent", func(ctx context.Context, s *TurnState) string {
//		if s.WantsTools() {
//			return "tools"
//		}
//		return graph.END
//	})
//	g.AddEdge("tools", "agent")
//	g.SetEntryPoint("agent")
//
//	runnable, err := g.Compile()
//
// # Safety Limits
//
// Cycles are allowed. A recursion limit (DefaultRecursionLimit node
// executions, see SetRecursionLimit) stops graphs that never reach END, and
// the context is checked before every node.
//
// # Listeners
//
// A NodeListener added to the compiled runnable observes the start,
// completion and failure of every node, which is where logging and metrics
// hook in.
package graph
