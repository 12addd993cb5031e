package model

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/smallnest/ragagent/chat"
)

// OpenAIOptions configures the OpenAI adapter.
type OpenAIOptions struct {
	APIKey      string
	BaseURL     string // optional, for OpenAI compatible servers
	Model       string // default "gpt-4o-mini"
	Temperature float32
	MaxTokens   int
}

// OpenAI talks to the chat completions API through go-openai.
type OpenAI struct {
	client *openai.Client
	opts   OpenAIOptions
}

// NewOpenAI creates an adapter with its own client.
func NewOpenAI(opts OpenAIOptions) *OpenAI {
	config := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		config.BaseURL = opts.BaseURL
	}
	return NewOpenAIWithClient(openai.NewClientWithConfig(config), opts)
}

// NewOpenAIWithClient creates an adapter around an existing client.
func NewOpenAIWithClient(client *openai.Client, opts OpenAIOptions) *OpenAI {
	if opts.Model == "" {
		opts.Model = "gpt-4o-mini"
	}
	return &OpenAI{client: client, opts: opts}
}

// Complete implements Model.
func (m *OpenAI) Complete(ctx context.Context, messages []chat.Message, tools []chat.ToolSpec) (chat.Message, error) {
	req, err := m.request(messages, tools)
	if err != nil {
		return chat.Message{}, err
	}

	resp, err := m.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return chat.Message{}, classify(fmt.Errorf("failed to create chat completion: %w", err))
	}
	if len(resp.Choices) == 0 {
		return chat.Message{}, &ProtocolError{Reason: "response has no choices"}
	}

	out := resp.Choices[0].Message
	msg := chat.Message{Role: chat.RoleAssistant, Content: out.Content}
	for _, tc := range out.ToolCalls {
		msg.ToolCalls = append(msg.ToolCalls, chat.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return finish(msg)
}

// Stream implements StreamingModel. Tool call fragments are merged by index.
func (m *OpenAI) Stream(ctx context.Context, messages []chat.Message, tools []chat.ToolSpec, onDelta func(string)) (chat.Message, error) {
	req, err := m.request(messages, tools)
	if err != nil {
		return chat.Message{}, err
	}
	req.Stream = true

	stream, err := m.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return chat.Message{}, classify(fmt.Errorf("failed to create chat completion stream: %w", err))
	}
	defer stream.Close()

	var content strings.Builder
	merger := newToolCallMerger()
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return chat.Message{}, classify(fmt.Errorf("failed to receive stream: %w", err))
		}
		if len(resp.Choices) == 0 {
			continue
		}

		delta := resp.Choices[0].Delta
		if delta.Content != "" {
			content.WriteString(delta.Content)
			if onDelta != nil {
				onDelta(delta.Content)
			}
		}
		merger.add(delta.ToolCalls)
	}

	return finish(chat.Message{
		Role:      chat.RoleAssistant,
		Content:   content.String(),
		ToolCalls: merger.calls(),
	})
}

func (m *OpenAI) request(messages []chat.Message, tools []chat.ToolSpec) (openai.ChatCompletionRequest, error) {
	req := openai.ChatCompletionRequest{
		Model:       m.opts.Model,
		Temperature: m.opts.Temperature,
		MaxTokens:   m.opts.MaxTokens,
	}

	for i, msg := range messages {
		if !msg.Role.Valid() {
			return req, fmt.Errorf("message %d has unknown role %q", i, msg.Role)
		}
		out := openai.ChatCompletionMessage{Content: msg.Content}
		switch msg.Role {
		case chat.RoleSystem:
			out.Role = openai.ChatMessageRoleSystem
		case chat.RoleUser:
			out.Role = openai.ChatMessageRoleUser
		case chat.RoleAssistant:
			out.Role = openai.ChatMessageRoleAssistant
			for _, call := range msg.ToolCalls {
				out.ToolCalls = append(out.ToolCalls, openai.ToolCall{
					ID:   call.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      call.Name,
						Arguments: call.Arguments,
					},
				})
			}
		case chat.RoleTool:
			out.Role = openai.ChatMessageRoleTool
			out.ToolCallID = msg.ToolCallID
		}
		req.Messages = append(req.Messages, out)
	}

	for _, t := range tools {
		req.Tools = append(req.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return req, nil
}

type toolCallMerger struct {
	byIndex map[int]*chat.ToolCall
}

func newToolCallMerger() *toolCallMerger {
	return &toolCallMerger{byIndex: make(map[int]*chat.ToolCall)}
}

func (m *toolCallMerger) add(calls []openai.ToolCall) {
	for i, call := range calls {
		index := i
		if call.Index != nil {
			index = *call.Index
		}
		existing, ok := m.byIndex[index]
		if !ok {
			existing = &chat.ToolCall{}
			m.byIndex[index] = existing
		}
		if call.ID != "" {
			existing.ID = call.ID
		}
		existing.Name += call.Function.Name
		existing.Arguments += call.Function.Arguments
	}
}

func (m *toolCallMerger) calls() []chat.ToolCall {
	if len(m.byIndex) == 0 {
		return nil
	}
	indexes := make([]int, 0, len(m.byIndex))
	for i := range m.byIndex {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	out := make([]chat.ToolCall, 0, len(indexes))
	for _, i := range indexes {
		out = append(out, *m.byIndex[i])
	}
	return out
}
