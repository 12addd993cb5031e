package chat

import "strings"

// Role identifies who produced a Message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Valid reports whether r is one of the four known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool:
		return true
	}
	return false
}

// ToolCall is a request from the model to invoke a named tool.
// Arguments holds the raw JSON object text as produced by the model.
type ToolCall struct {
	ID        string `json:"call_id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Message is a single unit of a conversation.
//
// Assistant messages either answer (Content) or request tools (ToolCalls);
// when both are present ToolCalls wins for routing. ToolCallID is set only on
// tool messages and points at the call it answers.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// System creates a system message.
func System(text string) Message {
	return Message{Role: RoleSystem, Content: text}
}

// User creates a user message.
func User(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

// Assistant creates an answering assistant message.
func Assistant(text string) Message {
	return Message{Role: RoleAssistant, Content: text}
}

// AssistantCalls creates an assistant message requesting tool calls.
func AssistantCalls(text string, calls ...ToolCall) Message {
	return Message{Role: RoleAssistant, Content: text, ToolCalls: calls}
}

// ToolResult creates the tool message answering the call with callID.
func ToolResult(callID, text string) Message {
	return Message{Role: RoleTool, Content: text, ToolCallID: callID}
}

// HasToolCalls reports whether the message requests at least one tool.
func (m Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}

// IsEmpty reports whether the message carries neither text nor tool calls.
func (m Message) IsEmpty() bool {
	return strings.TrimSpace(m.Content) == "" && len(m.ToolCalls) == 0
}

// Clone returns a deep copy of m.
func (m Message) Clone() Message {
	if m.ToolCalls != nil {
		calls := make([]ToolCall, len(m.ToolCalls))
		copy(calls, m.ToolCalls)
		m.ToolCalls = calls
	}
	return m
}

// CloneAll deep copies a slice of messages. A nil slice stays nil.
func CloneAll(msgs []Message) []Message {
	if msgs == nil {
		return nil
	}
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		out[i] = m.Clone()
	}
	return out
}
