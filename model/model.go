package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/google/uuid"
	"github.com/smallnest/ragagent/chat"
)

// ErrTimeout marks a model call that failed because it ran out of time.
// Adapters wrap deadline and network timeout errors with it so callers can
// decide to retry.
var ErrTimeout = errors.New("model call timed out")

// Model produces the next assistant message for a conversation.
//
// Implementations must not modify messages. The returned message has role
// assistant and either answers the user or requests tools.
type Model interface {
	Complete(ctx context.Context, messages []chat.Message, tools []chat.ToolSpec) (chat.Message, error)
}

// StreamingModel is a Model that can report answer text while it is being
// generated. onDelta receives content fragments in order; the returned
// message is the complete response.
type StreamingModel interface {
	Model
	Stream(ctx context.Context, messages []chat.Message, tools []chat.ToolSpec, onDelta func(string)) (chat.Message, error)
}

// ProtocolError reports a model response that cannot be acted on.
type ProtocolError struct {
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("model protocol error: %s: %v", e.Reason, e.Err)
	}
	return "model protocol error: " + e.Reason
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// IsProtocolError reports whether err is or wraps a *ProtocolError.
func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}

// Validate checks that msg is a well formed assistant response: every tool
// call has a name and a unique id, and its arguments are empty or a JSON
// object.
func Validate(msg chat.Message) error {
	if msg.Role != chat.RoleAssistant {
		return &ProtocolError{Reason: fmt.Sprintf("unexpected role %q", msg.Role)}
	}

	seen := make(map[string]struct{}, len(msg.ToolCalls))
	for i, call := range msg.ToolCalls {
		if strings.TrimSpace(call.Name) == "" {
			return &ProtocolError{Reason: fmt.Sprintf("tool call %d has no name", i)}
		}
		if call.ID == "" {
			return &ProtocolError{Reason: fmt.Sprintf("tool call %d (%s) has no id", i, call.Name)}
		}
		if _, dup := seen[call.ID]; dup {
			return &ProtocolError{Reason: fmt.Sprintf("duplicate tool call id %q", call.ID)}
		}
		seen[call.ID] = struct{}{}

		args := strings.TrimSpace(call.Arguments)
		if args == "" {
			continue
		}
		var obj map[string]json.RawMessage
		if err := json.Unmarshal([]byte(args), &obj); err != nil {
			return &ProtocolError{Reason: fmt.Sprintf("arguments of %s are not a JSON object", call.Name), Err: err}
		}
	}
	return nil
}

// FillCallIDs assigns "call_<uuid>" ids to tool calls that arrived without
// one. It modifies msg in place.
func FillCallIDs(msg *chat.Message) {
	for i := range msg.ToolCalls {
		if msg.ToolCalls[i].ID == "" {
			msg.ToolCalls[i].ID = "call_" + uuid.NewString()
		}
	}
}

// finish normalizes a provider response into a validated assistant message.
func finish(msg chat.Message) (chat.Message, error) {
	if msg.Role == "" {
		msg.Role = chat.RoleAssistant
	}
	FillCallIDs(&msg)
	if err := Validate(msg); err != nil {
		return chat.Message{}, err
	}
	return msg, nil
}

// classify wraps timeouts with ErrTimeout and leaves other errors unchanged.
func classify(err error) error {
	if err == nil || errors.Is(err, ErrTimeout) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}

// toolNames maps call ids of assistant messages to tool names. Some providers
// require the name on the tool result.
func toolNames(messages []chat.Message) map[string]string {
	names := make(map[string]string)
	for _, m := range messages {
		for _, c := range m.ToolCalls {
			names[c.ID] = c.Name
		}
	}
	return names
}
