package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructors(t *testing.T) {
	assert.Equal(t, Message{Role: RoleSystem, Content: "be brief"}, System("be brief"))
	assert.Equal(t, RoleUser, User("hi").Role)
	assert.Equal(t, RoleAssistant, Assistant("hello").Role)

	call := ToolCall{ID: "c1", Name: "retrieve_context", Arguments: `{"query":"X"}`}
	msg := AssistantCalls("", call)
	assert.True(t, msg.HasToolCalls())
	assert.Equal(t, []ToolCall{call}, msg.ToolCalls)

	res := ToolResult("c1", "X is a widget")
	assert.Equal(t, RoleTool, res.Role)
	assert.Equal(t, "c1", res.ToolCallID)
}

func TestRoleValid(t *testing.T) {
	for _, r := range []Role{RoleSystem, RoleUser, RoleAssistant, RoleTool} {
		assert.True(t, r.Valid(), r)
	}
	assert.False(t, Role("human").Valid())
	assert.False(t, Role("").Valid())
}

func TestIsEmpty(t *testing.T) {
	assert.True(t, Assistant("  ").IsEmpty())
	assert.False(t, Assistant("ok").IsEmpty())
	assert.False(t, AssistantCalls("", ToolCall{ID: "c", Name: "n"}).IsEmpty())
}

func TestClone_DoesNotShareToolCalls(t *testing.T) {
	orig := AssistantCalls("", ToolCall{ID: "c1", Name: "retrieve_context"})
	cp := orig.Clone()
	cp.ToolCalls[0].Name = "changed"

	assert.Equal(t, "retrieve_context", orig.ToolCalls[0].Name)
}

func TestCloneAll(t *testing.T) {
	assert.Nil(t, CloneAll(nil))

	msgs := []Message{User("a"), AssistantCalls("", ToolCall{ID: "c1"})}
	cp := CloneAll(msgs)
	cp[1].ToolCalls[0].ID = "other"
	cp[0].Content = "b"

	assert.Equal(t, "a", msgs[0].Content)
	assert.Equal(t, "c1", msgs[1].ToolCalls[0].ID)
}

func TestConversation(t *testing.T) {
	var c Conversation
	assert.False(t, c.HasSystem())
	_, ok := c.Last()
	assert.False(t, ok)

	c = Conversation{System("sys"), User("hi")}
	assert.True(t, c.HasSystem())
	last, ok := c.Last()
	assert.True(t, ok)
	assert.Equal(t, "hi", last.Content)

	assert.False(t, Conversation{User("hi"), System("sys")}.HasSystem())
}
