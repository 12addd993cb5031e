package chat

// Conversation is the ordered message history of one session.
type Conversation []Message

// HasSystem reports whether the conversation starts with a system message.
func (c Conversation) HasSystem() bool {
	return len(c) > 0 && c[0].Role == RoleSystem
}

// Last returns the final message and false when the conversation is empty.
func (c Conversation) Last() (Message, bool) {
	if len(c) == 0 {
		return Message{}, false
	}
	return c[len(c)-1], true
}

// Clone deep copies the conversation.
func (c Conversation) Clone() Conversation {
	return Conversation(CloneAll(c))
}

// ToolSpec describes a tool the model may call. Parameters is the JSON
// schema of the arguments object.
type ToolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}
