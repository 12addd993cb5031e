package tool

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/smallnest/ragagent/chat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoArgs struct {
	Text  string `json:"text" jsonschema:"description=Text to echo"`
	Times int    `json:"times,omitempty"`
}

func newEcho(t *testing.T, name string) *Typed[echoArgs] {
	t.Helper()
	h, err := NewTyped(name, "echo text back", func(_ context.Context, a echoArgs) (string, error) {
		out := ""
		for i := 0; i < max(a.Times, 1); i++ {
			out += a.Text
		}
		return out, nil
	})
	require.NoError(t, err)
	return h
}

func TestRegistry(t *testing.T) {
	r, err := NewRegistry(newEcho(t, "b"), newEcho(t, "a"))
	require.NoError(t, err)
	assert.Equal(t, 2, r.Len())

	specs := r.Specs()
	require.Len(t, specs, 2)
	assert.Equal(t, "b", specs[0].Name)
	assert.Equal(t, "a", specs[1].Name)

	h, ok := r.Lookup("a")
	assert.True(t, ok)
	assert.Equal(t, "a", h.Spec().Name)

	_, ok = r.Lookup("missing")
	assert.False(t, ok)
}

func TestRegistry_Duplicate(t *testing.T) {
	_, err := NewRegistry(newEcho(t, "a"), newEcho(t, "a"))
	assert.ErrorIs(t, err, ErrDuplicateTool)
}

func TestRegistry_Dispatch(t *testing.T) {
	r, err := NewRegistry(newEcho(t, "echo"))
	require.NoError(t, err)
	ctx := context.Background()

	out, err := r.Dispatch(ctx, chat.ToolCall{ID: "1", Name: "echo", Arguments: `{"text":"ab","times":2}`})
	require.NoError(t, err)
	assert.Equal(t, "abab", out)

	_, err = r.Dispatch(ctx, chat.ToolCall{ID: "2", Name: "nope", Arguments: `{}`})
	assert.ErrorIs(t, err, ErrUnknownTool)

	_, err = r.Dispatch(ctx, chat.ToolCall{ID: "3", Name: "echo", Arguments: `{"text":5}`})
	var argErr *ArgumentError
	assert.ErrorAs(t, err, &argErr)
	assert.Equal(t, "echo", argErr.Tool)

	// empty arguments decode as an empty object
	out, err = r.Dispatch(ctx, chat.ToolCall{ID: "4", Name: "echo"})
	require.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestRegistry_Check(t *testing.T) {
	r, err := NewRegistry(newEcho(t, "echo"))
	require.NoError(t, err)

	assert.NoError(t, r.Check(chat.ToolCall{Name: "echo", Arguments: `{"text":"x"}`}))
	assert.ErrorIs(t, r.Check(chat.ToolCall{Name: "other"}), ErrUnknownTool)

	var argErr *ArgumentError
	assert.ErrorAs(t, r.Check(chat.ToolCall{Name: "echo", Arguments: `{"times":"x"}`}), &argErr)
}

func TestTyped_Schema(t *testing.T) {
	h := newEcho(t, "echo")
	spec := h.Spec()

	assert.Equal(t, "echo", spec.Name)
	assert.Equal(t, "echo text back", spec.Description)
	assert.Equal(t, "object", spec.Parameters["type"])
	assert.NotContains(t, spec.Parameters, "$schema")

	props, ok := spec.Parameters["properties"].(map[string]any)
	require.True(t, ok)
	text, ok := props["text"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "string", text["type"])
	assert.Equal(t, "Text to echo", text["description"])

	assert.Equal(t, []any{"text"}, spec.Parameters["required"])

	// the schema survives a JSON round trip unchanged, which is how providers receive it
	data, err := json.Marshal(spec.Parameters)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"properties"`)
}

func TestTyped_ValidateHook(t *testing.T) {
	h, err := RetrieveContext(nil, 4)
	require.NoError(t, err)

	err = h.ValidateArgs(json.RawMessage(`{"query":"  "}`))
	var argErr *ArgumentError
	require.ErrorAs(t, err, &argErr)
	assert.EqualError(t, errors.Unwrap(err), "query is empty")

	assert.NoError(t, h.ValidateArgs(json.RawMessage(`{"query":"refunds"}`)))
}
