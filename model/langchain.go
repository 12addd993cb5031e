package model

import (
	"context"
	"fmt"

	"github.com/smallnest/ragagent/chat"
	"github.com/tmc/langchaingo/llms"
)

// LangChain adapts a langchaingo llms.Model, such as the openai or ollama
// providers, to the Model interface.
type LangChain struct {
	llm     llms.Model
	options []llms.CallOption
}

// NewLangChain wraps llm. opts are passed to every call, e.g.
// llms.WithTemperature or llms.WithMaxTokens.
func NewLangChain(llm llms.Model, opts ...llms.CallOption) *LangChain {
	return &LangChain{llm: llm, options: opts}
}

// Complete implements Model.
func (m *LangChain) Complete(ctx context.Context, messages []chat.Message, tools []chat.ToolSpec) (chat.Message, error) {
	return m.generate(ctx, messages, tools, nil)
}

// Stream implements StreamingModel using llms.WithStreamingFunc.
func (m *LangChain) Stream(ctx context.Context, messages []chat.Message, tools []chat.ToolSpec, onDelta func(string)) (chat.Message, error) {
	return m.generate(ctx, messages, tools, onDelta)
}

func (m *LangChain) generate(ctx context.Context, messages []chat.Message, tools []chat.ToolSpec, onDelta func(string)) (chat.Message, error) {
	content, err := ToMessageContent(messages)
	if err != nil {
		return chat.Message{}, err
	}

	opts := append([]llms.CallOption{}, m.options...)
	if len(tools) > 0 {
		opts = append(opts, llms.WithTools(ToLLMTools(tools)))
	}
	if onDelta != nil {
		opts = append(opts, llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
			if len(chunk) > 0 {
				onDelta(string(chunk))
			}
			return nil
		}))
	}

	resp, err := m.llm.GenerateContent(ctx, content, opts...)
	if err != nil {
		return chat.Message{}, classify(fmt.Errorf("failed to generate content: %w", err))
	}
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return chat.Message{}, &ProtocolError{Reason: "response has no choices"}
	}

	choice := resp.Choices[0]
	msg := chat.Message{Role: chat.RoleAssistant, Content: choice.Content}
	for _, tc := range choice.ToolCalls {
		call := chat.ToolCall{ID: tc.ID}
		if tc.FunctionCall != nil {
			call.Name = tc.FunctionCall.Name
			call.Arguments = tc.FunctionCall.Arguments
		}
		msg.ToolCalls = append(msg.ToolCalls, call)
	}
	return finish(msg)
}

// ToMessageContent converts a conversation to langchaingo messages.
func ToMessageContent(messages []chat.Message) ([]llms.MessageContent, error) {
	names := toolNames(messages)
	out := make([]llms.MessageContent, 0, len(messages))

	for i, msg := range messages {
		if !msg.Role.Valid() {
			return nil, fmt.Errorf("message %d has unknown role %q", i, msg.Role)
		}
		switch msg.Role {
		case chat.RoleSystem:
			out = append(out, llms.TextParts(llms.ChatMessageTypeSystem, msg.Content))
		case chat.RoleUser:
			out = append(out, llms.TextParts(llms.ChatMessageTypeHuman, msg.Content))
		case chat.RoleAssistant:
			mc := llms.MessageContent{Role: llms.ChatMessageTypeAI}
			if msg.Content != "" {
				mc.Parts = append(mc.Parts, llms.TextPart(msg.Content))
			}
			for _, call := range msg.ToolCalls {
				mc.Parts = append(mc.Parts, llms.ToolCall{
					ID:   call.ID,
					Type: "function",
					FunctionCall: &llms.FunctionCall{
						Name:      call.Name,
						Arguments: call.Arguments,
					},
				})
			}
			out = append(out, mc)
		case chat.RoleTool:
			out = append(out, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{
					llms.ToolCallResponse{
						ToolCallID: msg.ToolCallID,
						Name:       names[msg.ToolCallID],
						Content:    msg.Content,
					},
				},
			})
		}
	}
	return out, nil
}

// ToLLMTools converts tool specs to langchaingo function tools.
func ToLLMTools(tools []chat.ToolSpec) []llms.Tool {
	out := make([]llms.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return out
}
