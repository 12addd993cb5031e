package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/smallnest/ragagent/chat"
	"github.com/smallnest/ragagent/graph"
	"github.com/smallnest/ragagent/log"
	"github.com/smallnest/ragagent/model"
	"github.com/smallnest/ragagent/retrieval"
	"github.com/smallnest/ragagent/tool"
)

const (
	nodeAgent = "agent"
	nodeTools = "tools"

	// DefaultMaxRounds is the number of model calls allowed per turn.
	DefaultMaxRounds = 3
)

// TurnResult describes a completed turn.
type TurnResult struct {
	// Answer is the final assistant text shown to the user. Never empty.
	Answer string

	// Outcome is KindNone for a clean turn, otherwise the most significant
	// failure that was folded into the answer.
	Outcome ErrorKind

	// Rounds is the number of model responses received.
	Rounds int

	// Messages are the messages the turn adds to the conversation, starting
	// with the user message (and the system prompt on a new session).
	Messages []chat.Message

	streamed bool
}

// turnState is the graph state of one turn.
type turnState struct {
	session string
	history chat.Conversation
	prefix  []chat.Message // sent to the model ahead of history, never stored
	pending []chat.Message

	rounds  int
	outcome ErrorKind
	answer  string

	onDelta  DeltaFunc
	streamed bool // the final answer was delivered through onDelta
}

func (s *turnState) conversation() []chat.Message {
	msgs := make([]chat.Message, 0, len(s.prefix)+len(s.history)+len(s.pending))
	msgs = append(msgs, s.prefix...)
	msgs = append(msgs, s.history...)
	return append(msgs, s.pending...)
}

func (s *turnState) last() (chat.Message, bool) {
	return chat.Conversation(s.pending).Last()
}

// Controller runs a single turn: it alternates between asking the model and
// dispatching the tools it requests until the model answers or the round
// budget is spent. It holds no per-session state and is safe for concurrent
// use; Session serializes turns of the same session.
type Controller struct {
	model        model.Model
	tools        *tool.Registry
	systemPrompt string
	maxRounds    int
	modelRetries int
	retryDelay   time.Duration
	logger       log.Logger

	runnable *graph.StateRunnable[*turnState]
}

// Option configures a Controller.
type Option func(*Controller)

// WithSystemPrompt sets the system prompt placed at the start of every new
// conversation. An empty prompt disables it.
func WithSystemPrompt(prompt string) Option {
	return func(c *Controller) {
		c.systemPrompt = prompt
	}
}

// WithMaxRounds sets how many times the model may be called per turn.
func WithMaxRounds(n int) Option {
	return func(c *Controller) {
		c.maxRounds = n
	}
}

// WithModelRetry sets how many times a timed out model call is retried and
// the base delay between attempts.
func WithModelRetry(retries int, delay time.Duration) Option {
	return func(c *Controller) {
		c.modelRetries = retries
		c.retryDelay = delay
	}
}

// WithLogger sets the logger. Defaults to log.GetDefaultLogger().
func WithLogger(logger log.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// NewController builds the turn graph:
//
//	agent --(tool calls)--> tools --> agent
//	agent --(answer)--> END
func NewController(m model.Model, tools *tool.Registry, opts ...Option) (*Controller, error) {
	if m == nil {
		return nil, errors.New("model is required")
	}
	if tools == nil {
		tools = &tool.Registry{}
	}

	c := &Controller{
		model:        m,
		tools:        tools,
		systemPrompt: DefaultSystemPrompt,
		maxRounds:    DefaultMaxRounds,
		modelRetries: 1,
		retryDelay:   500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.maxRounds < 1 {
		return nil, fmt.Errorf("max rounds must be at least 1, got %d", c.maxRounds)
	}
	if c.logger == nil {
		c.logger = log.GetDefaultLogger()
	}

	g := graph.NewStateGraph[*turnState]()
	g.AddNodeWithRetry(nodeAgent, "Ask the model for the next step", c.callModel, &graph.RetryPolicy{
		MaxRetries: c.modelRetries,
		Backoff:    graph.ExponentialBackoff,
		Delay:      c.retryDelay,
		Retryable: func(err error) bool {
			return errors.Is(err, model.ErrTimeout)
		},
	})
	g.AddNode(nodeTools, "Dispatch requested tools", c.dispatchTools)
	g.AddConditionalEdge(nodeAgent, func(_ context.Context, s *turnState) string {
		if last, ok := s.last(); ok && last.Role == chat.RoleAssistant && last.HasToolCalls() {
			return nodeTools
		}
		return graph.END
	})
	g.AddEdge(nodeTools, nodeAgent)
	g.SetEntryPoint(nodeAgent)
	g.SetRecursionLimit(2*c.maxRounds + 1)

	runnable, err := g.Compile()
	if err != nil {
		return nil, fmt.Errorf("failed to compile turn graph: %w", err)
	}
	runnable.AddListener(graph.NodeListenerFunc[*turnState](c.onNodeEvent))
	c.runnable = runnable

	return c, nil
}

// MaxRounds returns the round budget per turn.
func (c *Controller) MaxRounds() int {
	return c.maxRounds
}

// Tools returns the specs of the tools offered to the model.
func (c *Controller) Tools() []chat.ToolSpec {
	return c.tools.Specs()
}

// DeltaFunc receives answer text while the model streams it. A call with
// discard set withdraws every delta received since the previous discard;
// delta is empty then. Text is withdrawn when the model call that produced it
// fails or turns out to request tools.
type DeltaFunc func(delta string, discard bool)

// Run executes one turn on top of history, which is not modified. onDelta,
// if set, receives answer text as the model streams it.
//
// Every failure except cancellation is folded into a synthesized answer; the
// returned error is non-nil only when ctx is done.
func (c *Controller) Run(ctx context.Context, sessionID string, history chat.Conversation, text string, onDelta DeltaFunc) (*TurnResult, error) {
	state := &turnState{
		session: sessionID,
		history: history,
		onDelta: onDelta,
	}
	if c.systemPrompt != "" && !history.HasSystem() {
		if len(history) == 0 {
			state.pending = append(state.pending, chat.System(c.systemPrompt))
		} else {
			state.prefix = []chat.Message{chat.System(c.systemPrompt)}
		}
	}
	state.pending = append(state.pending, chat.User(text))

	c.logger.Info("turn started: session=%s history=%d", sessionID, len(history))
	start := time.Now()

	final, err := c.runnable.Invoke(ctx, state)
	if err != nil {
		if ctx.Err() != nil {
			c.logger.Warn("turn cancelled: session=%s rounds=%d: %v", sessionID, state.rounds, ctx.Err())
			return nil, ctx.Err()
		}
		kind := KindOf(err)
		if errors.Is(err, graph.ErrRecursionLimit) {
			kind = KindRoundLimit
		}
		c.logger.Error("turn failed: session=%s kind=%s rounds=%d: %v", sessionID, kind, state.rounds, err)
		c.conclude(state, kind)
		final = state
	}

	c.logger.Info("turn finished: session=%s outcome=%s rounds=%d elapsed=%s",
		sessionID, final.outcome, final.rounds, time.Since(start).Round(time.Millisecond))

	return &TurnResult{
		Answer:   final.answer,
		Outcome:  final.outcome,
		Rounds:   final.rounds,
		Messages: final.pending,
		streamed: final.streamed,
	}, nil
}

// conclude ends the turn with a synthesized answer for kind.
func (c *Controller) conclude(s *turnState, kind ErrorKind) {
	s.outcome = kind
	s.answer = fallbackAnswer(kind)
	s.streamed = false
	s.pending = append(s.pending, chat.Assistant(s.answer))
}

// callModel is the agent node. The model is called at most maxRounds times
// per turn; a tool request on the last allowed call ends the turn.
func (c *Controller) callModel(ctx context.Context, s *turnState) (*turnState, error) {
	if s.rounds >= c.maxRounds {
		c.conclude(s, KindRoundLimit)
		return s, nil
	}

	msg, streamed, err := c.complete(ctx, s)
	accepted := false
	defer func() {
		if streamed && !accepted {
			s.onDelta("", true)
		}
	}()
	if err != nil {
		return s, err
	}
	s.rounds++
	c.logger.Debug("model round %d/%d: session=%s tool_calls=%d", s.rounds, c.maxRounds, s.session, len(msg.ToolCalls))

	if err := model.Validate(msg); err != nil {
		return s, err
	}

	if msg.HasToolCalls() {
		if s.rounds >= c.maxRounds {
			c.logger.Warn("round limit reached: session=%s discarding %d tool call(s)", s.session, len(msg.ToolCalls))
			c.conclude(s, KindRoundLimit)
			return s, nil
		}
		for _, call := range msg.ToolCalls {
			if err := c.tools.Check(call); err != nil {
				return s, &model.ProtocolError{Reason: fmt.Sprintf("tool call %s", call.ID), Err: err}
			}
		}
		s.pending = append(s.pending, msg)
		return s, nil
	}

	if msg.IsEmpty() {
		return s, &model.ProtocolError{Reason: "empty answer"}
	}
	s.pending = append(s.pending, msg)
	s.answer = msg.Content
	s.streamed = streamed
	accepted = true
	return s, nil
}

func (c *Controller) complete(ctx context.Context, s *turnState) (chat.Message, bool, error) {
	messages := s.conversation()
	tools := c.tools.Specs()

	if s.onDelta != nil {
		if sm, ok := c.model.(model.StreamingModel); ok {
			streamed := false
			msg, err := sm.Stream(ctx, messages, tools, func(delta string) {
				if delta == "" {
					return
				}
				streamed = true
				s.onDelta(delta, false)
			})
			return msg, streamed, err
		}
	}
	msg, err := c.model.Complete(ctx, messages, tools)
	return msg, false, err
}

// dispatchTools is the tools node. Calls run strictly in request order and
// each produces exactly one tool message.
func (c *Controller) dispatchTools(ctx context.Context, s *turnState) (*turnState, error) {
	last, ok := s.last()
	if !ok || !last.HasToolCalls() {
		return s, errors.New("tools node reached without tool calls")
	}

	for _, call := range last.ToolCalls {
		if err := ctx.Err(); err != nil {
			return s, err
		}

		start := time.Now()
		out, err := c.tools.Dispatch(ctx, call)
		if err != nil {
			if ctx.Err() != nil {
				return s, ctx.Err()
			}
			if retrieval.IsRetrievalError(err) {
				if s.outcome == KindNone {
					s.outcome = KindRetrieval
				}
				out = retrieval.FailureText(err)
			} else {
				out = "Error: " + err.Error()
			}
			c.logger.Warn("tool %s failed: session=%s call=%s: %v", call.Name, s.session, call.ID, err)
		} else {
			c.logger.Debug("tool %s done: session=%s call=%s bytes=%d elapsed=%s",
				call.Name, s.session, call.ID, len(out), time.Since(start).Round(time.Millisecond))
		}

		s.pending = append(s.pending, chat.ToolResult(call.ID, out))
	}
	return s, nil
}

func (c *Controller) onNodeEvent(_ context.Context, event graph.NodeEvent, node string, s *turnState, err error) {
	if event == graph.NodeEventError {
		c.logger.Debug("node %s error: session=%s: %v", node, s.session, err)
		return
	}
	c.logger.Debug("node %s %s: session=%s", node, event, s.session)
}
