// Package modeltest provides a scripted model for tests of code that drives
// a model.Model.
package modeltest

import (
	"context"
	"strings"
	"sync"

	"github.com/smallnest/ragagent/chat"
)

// Step is one scripted model response.
type Step struct {
	Message chat.Message
	Err     error

	// Partial is streamed before Err is returned.
	Partial string

	// Wait blocks the call until the channel is closed or ctx is done.
	Wait <-chan struct{}
}

// Answer returns a step producing a plain assistant answer.
func Answer(text string) Step {
	return Step{Message: chat.Assistant(text)}
}

// Calls returns a step requesting the given tool calls.
func Calls(calls ...chat.ToolCall) Step {
	return Step{Message: chat.AssistantCalls("", calls...)}
}

// CallsWithText returns a step that streams text and then requests the
// given tool calls.
func CallsWithText(text string, calls ...chat.ToolCall) Step {
	return Step{Message: chat.AssistantCalls(text, calls...)}
}

// Fail returns a step failing with err.
func Fail(err error) Step {
	return Step{Err: err}
}

// FailAfter returns a step that streams partial and then fails with err.
func FailAfter(partial string, err error) Step {
	return Step{Partial: partial, Err: err}
}

// Scripted replays Steps in order. Once the script runs out it repeats the
// Fallback step, or answers "no more responses" when Fallback is nil.
// It is safe for concurrent use.
type Scripted struct {
	Steps    []Step
	Fallback *Step

	mu    sync.Mutex
	calls [][]chat.Message
	tools [][]chat.ToolSpec
}

// New creates a scripted model.
func New(steps ...Step) *Scripted {
	return &Scripted{Steps: steps}
}

// Complete implements model.Model.
func (s *Scripted) Complete(ctx context.Context, messages []chat.Message, tools []chat.ToolSpec) (chat.Message, error) {
	return s.Stream(ctx, messages, tools, nil)
}

// Stream implements model.StreamingModel, emitting the content word by word,
// including the content of tool call steps and the Partial text of failing
// steps.
func (s *Scripted) Stream(ctx context.Context, messages []chat.Message, tools []chat.ToolSpec, onDelta func(string)) (chat.Message, error) {
	s.mu.Lock()
	n := len(s.calls)
	s.calls = append(s.calls, chat.CloneAll(messages))
	s.tools = append(s.tools, append([]chat.ToolSpec(nil), tools...))

	var step Step
	switch {
	case n < len(s.Steps):
		step = s.Steps[n]
	case s.Fallback != nil:
		step = *s.Fallback
	default:
		step = Answer("no more responses")
	}
	s.mu.Unlock()

	if step.Wait != nil {
		select {
		case <-step.Wait:
		case <-ctx.Done():
			return chat.Message{}, ctx.Err()
		}
	}
	if step.Err != nil {
		emit(step.Partial, onDelta)
		return chat.Message{}, step.Err
	}
	if err := ctx.Err(); err != nil {
		return chat.Message{}, err
	}

	msg := step.Message.Clone()
	emit(msg.Content, onDelta)
	return msg, nil
}

func emit(text string, onDelta func(string)) {
	if onDelta == nil {
		return
	}
	for _, word := range strings.SplitAfter(text, " ") {
		if word != "" {
			onDelta(word)
		}
	}
}

// Calls returns the number of model invocations so far.
func (s *Scripted) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// Messages returns the conversation passed to invocation i.
func (s *Scripted) Messages(i int) []chat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return chat.CloneAll(s.calls[i])
}

// Tools returns the tool specs passed to invocation i.
func (s *Scripted) Tools(i int) []chat.ToolSpec {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tools[i]
}
