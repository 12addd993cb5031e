// Package agent runs retrieval-augmented conversation turns.
//
// A Controller drives one turn as a two-node state graph. The agent node
// asks the model for the next step; when the model requests tools the tools
// node runs them in order and hands the results back. The turn ends when the
// model answers, when a failure is folded into a synthesized answer, or when
// the round budget is spent.
//
// A Session owns the conversation store. It serializes turns per session id,
// commits each finished turn with a single append and exposes both a blocking
// Submit and a fragment Stream.
//
//	c, err := agent.NewController(m, registry, agent.WithMaxRounds(3))
//	if err != nil {
//		return err
//	}
//	s := agent.NewSession(c, store.NewMemoryStore())
//	answer, err := s.Submit(ctx, agent.NewSessionID(), "What is X?")
package agent
