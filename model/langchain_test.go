package model

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/smallnest/ragagent/chat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

type MockLLM struct {
	responses []*llms.ContentResponse
	err       error
	callCount int

	CapturedMessages [][]llms.MessageContent
	CapturedOptions  []llms.CallOptions
}

func (m *MockLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.CapturedMessages = append(m.CapturedMessages, messages)

	opts := llms.CallOptions{}
	for _, opt := range options {
		opt(&opts)
	}
	m.CapturedOptions = append(m.CapturedOptions, opts)

	if m.err != nil {
		return nil, m.err
	}

	var resp *llms.ContentResponse
	if m.callCount < len(m.responses) {
		resp = m.responses[m.callCount]
	} else {
		resp = &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "default response"}}}
	}
	m.callCount++

	if opts.StreamingFunc != nil && len(resp.Choices) > 0 {
		for _, word := range strings.SplitAfter(resp.Choices[0].Content, " ") {
			if err := opts.StreamingFunc(ctx, []byte(word)); err != nil {
				return nil, err
			}
		}
	}
	return resp, nil
}

func (m *MockLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return "", nil
}

func TestLangChain_Answer(t *testing.T) {
	llm := &MockLLM{responses: []*llms.ContentResponse{
		{Choices: []*llms.ContentChoice{{Content: "Refunds within 30 days."}}},
	}}
	m := NewLangChain(llm, llms.WithTemperature(0.2))

	msg, err := m.Complete(context.Background(), []chat.Message{
		chat.System("be brief"),
		chat.User("refund window?"),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, chat.Assistant("Refunds within 30 days."), msg)

	require.Len(t, llm.CapturedMessages, 1)
	sent := llm.CapturedMessages[0]
	require.Len(t, sent, 2)
	assert.Equal(t, llms.ChatMessageTypeSystem, sent[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, sent[1].Role)
	assert.Equal(t, llms.TextContent{Text: "refund window?"}, sent[1].Parts[0])

	assert.InDelta(t, 0.2, llm.CapturedOptions[0].Temperature, 1e-9)
	assert.Empty(t, llm.CapturedOptions[0].Tools)
}

func TestLangChain_ToolCalls(t *testing.T) {
	llm := &MockLLM{responses: []*llms.ContentResponse{
		{Choices: []*llms.ContentChoice{{
			ToolCalls: []llms.ToolCall{
				{ID: "c1", Type: "function", FunctionCall: &llms.FunctionCall{Name: "retrieve_context", Arguments: `{"query":"refund"}`}},
				{Type: "function", FunctionCall: &llms.FunctionCall{Name: "retrieve_context", Arguments: `{"query":"returns"}`}},
			},
		}}},
	}}
	m := NewLangChain(llm)

	tools := []chat.ToolSpec{{
		Name:        "retrieve_context",
		Description: "search the knowledge base",
		Parameters:  map[string]any{"type": "object"},
	}}
	msg, err := m.Complete(context.Background(), []chat.Message{chat.User("refund?")}, tools)
	require.NoError(t, err)

	require.Len(t, msg.ToolCalls, 2)
	assert.Equal(t, chat.ToolCall{ID: "c1", Name: "retrieve_context", Arguments: `{"query":"refund"}`}, msg.ToolCalls[0])
	assert.True(t, strings.HasPrefix(msg.ToolCalls[1].ID, "call_"))

	require.Len(t, llm.CapturedOptions[0].Tools, 1)
	assert.Equal(t, "retrieve_context", llm.CapturedOptions[0].Tools[0].Function.Name)
	assert.Equal(t, "function", llm.CapturedOptions[0].Tools[0].Type)
}

func TestLangChain_MalformedResponse(t *testing.T) {
	t.Run("no choices", func(t *testing.T) {
		m := NewLangChain(&MockLLM{responses: []*llms.ContentResponse{{}}})
		_, err := m.Complete(context.Background(), []chat.Message{chat.User("x")}, nil)
		assert.True(t, IsProtocolError(err))
	})

	t.Run("bad arguments", func(t *testing.T) {
		m := NewLangChain(&MockLLM{responses: []*llms.ContentResponse{
			{Choices: []*llms.ContentChoice{{
				ToolCalls: []llms.ToolCall{{ID: "c1", FunctionCall: &llms.FunctionCall{Name: "retrieve_context", Arguments: "not json"}}},
			}}},
		}})
		_, err := m.Complete(context.Background(), []chat.Message{chat.User("x")}, nil)
		assert.True(t, IsProtocolError(err))
	})

	t.Run("missing function", func(t *testing.T) {
		m := NewLangChain(&MockLLM{responses: []*llms.ContentResponse{
			{Choices: []*llms.ContentChoice{{ToolCalls: []llms.ToolCall{{ID: "c1"}}}}},
		}})
		_, err := m.Complete(context.Background(), []chat.Message{chat.User("x")}, nil)
		assert.True(t, IsProtocolError(err))
	})
}

func TestLangChain_Errors(t *testing.T) {
	m := NewLangChain(&MockLLM{err: context.DeadlineExceeded})
	_, err := m.Complete(context.Background(), []chat.Message{chat.User("x")}, nil)
	assert.ErrorIs(t, err, ErrTimeout)

	unauthorized := errors.New("401")
	m = NewLangChain(&MockLLM{err: unauthorized})
	_, err = m.Complete(context.Background(), []chat.Message{chat.User("x")}, nil)
	assert.ErrorIs(t, err, unauthorized)
	assert.NotErrorIs(t, err, ErrTimeout)
}

func TestLangChain_Stream(t *testing.T) {
	llm := &MockLLM{responses: []*llms.ContentResponse{
		{Choices: []*llms.ContentChoice{{Content: "thirty days total"}}},
	}}
	m := NewLangChain(llm)

	var deltas []string
	msg, err := m.Stream(context.Background(), []chat.Message{chat.User("x")}, nil, func(s string) {
		deltas = append(deltas, s)
	})
	require.NoError(t, err)
	assert.Equal(t, "thirty days total", msg.Content)
	assert.Equal(t, []string{"thirty ", "days ", "total"}, deltas)
}

func TestToMessageContent(t *testing.T) {
	conv := []chat.Message{
		chat.System("sys"),
		chat.User("q"),
		chat.AssistantCalls("looking", chat.ToolCall{ID: "c1", Name: "retrieve_context", Arguments: `{"query":"q"}`}),
		chat.ToolResult("c1", "passage"),
		chat.Assistant("answer"),
	}

	out, err := ToMessageContent(conv)
	require.NoError(t, err)
	require.Len(t, out, 5)

	ai := out[2]
	assert.Equal(t, llms.ChatMessageTypeAI, ai.Role)
	require.Len(t, ai.Parts, 2)
	assert.Equal(t, llms.TextContent{Text: "looking"}, ai.Parts[0])
	call, ok := ai.Parts[1].(llms.ToolCall)
	require.True(t, ok)
	assert.Equal(t, "c1", call.ID)
	assert.Equal(t, "retrieve_context", call.FunctionCall.Name)

	tool := out[3]
	assert.Equal(t, llms.ChatMessageTypeTool, tool.Role)
	assert.Equal(t, llms.ToolCallResponse{ToolCallID: "c1", Name: "retrieve_context", Content: "passage"}, tool.Parts[0])

	// the input conversation is untouched
	assert.Equal(t, "looking", conv[2].Content)

	_, err = ToMessageContent([]chat.Message{{Role: "robot"}})
	assert.Error(t, err)
}
