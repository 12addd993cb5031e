package model

import (
	"context"
	"time"

	"github.com/smallnest/ragagent/chat"
)

// Timeout bounds every call of the wrapped model. A call that runs out of
// time fails with ErrTimeout; cancellation of the caller's context is
// returned unchanged.
type Timeout struct {
	model   Model
	timeout time.Duration
}

var _ StreamingModel = (*Timeout)(nil)

// WithTimeout wraps m. A non-positive d returns m unchanged.
func WithTimeout(m Model, d time.Duration) Model {
	if d <= 0 {
		return m
	}
	return &Timeout{model: m, timeout: d}
}

// Complete implements Model.
func (t *Timeout) Complete(ctx context.Context, messages []chat.Message, tools []chat.ToolSpec) (chat.Message, error) {
	callCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	msg, err := t.model.Complete(callCtx, messages, tools)
	return msg, t.check(ctx, err)
}

// Stream implements StreamingModel. A wrapped model that cannot stream is
// completed without deltas.
func (t *Timeout) Stream(ctx context.Context, messages []chat.Message, tools []chat.ToolSpec, onDelta func(string)) (chat.Message, error) {
	sm, ok := t.model.(StreamingModel)
	if !ok {
		return t.Complete(ctx, messages, tools)
	}

	callCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	msg, err := sm.Stream(callCtx, messages, tools, onDelta)
	return msg, t.check(ctx, err)
}

func (t *Timeout) check(parent context.Context, err error) error {
	if err == nil || parent.Err() != nil {
		return err
	}
	return classify(err)
}
