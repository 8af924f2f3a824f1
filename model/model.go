package model

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/agentgroup/core"
	"github.com/hupe1980/agentgroup/tool"
)

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function (tool) exposed to the model.
// Parameters is a JSON Schema object.
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema
}

// ToolDefinitions converts tool definitions into the model's function form.
func ToolDefinitions(defs []tool.Definition) []ToolDefinition {
	out := make([]ToolDefinition, 0, len(defs))
	for _, d := range defs {
		out = append(out, ToolDefinition{
			Type: "function",
			Function: FunctionDefinition{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  d.Parameters,
			},
		})
	}
	return out
}

// Request captures the normalized model input produced by agents. Messages
// are already projected into the requesting agent's point of view.
type Request struct {
	Instructions string           `json:"instructions"`
	Messages     []core.Message   `json:"messages"`
	Tools        []ToolDefinition `json:"tools,omitempty"`
	Stream       bool             `json:"stream,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) chunk emitted by a model.
type Response struct {
	ID           string          `json:"id,omitempty"`
	Partial      bool            `json:"partial"`
	Content      string          `json:"content,omitempty"`
	ToolCalls    []core.ToolCall `json:"tool_calls,omitempty"`
	FinishReason string          `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage     `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "azure", "anthropic", "scripted"
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required by agents to drive generation.
// Implementations close both channels when done; at most one error is sent.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// ErrNoResponse is returned when a model closes its stream without a final
// response.
var ErrNoResponse = errors.New("model returned no final response")

// Collect drains a Generate call and returns the final response. onPartial,
// if non-nil, observes streamed chunks.
func Collect(ctx context.Context, m Model, req Request, onPartial func(Response)) (*Response, error) {
	out, errCh := m.Generate(ctx, req)

	var final *Response
	for resp := range out {
		if resp.Partial {
			if onPartial != nil {
				onPartial(resp)
			}
			continue
		}
		r := resp
		final = &r
	}

	if err := <-errCh; err != nil {
		return nil, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if final == nil {
		return nil, ErrNoResponse
	}
	return final, nil
}

// ToolResultText renders a tool result for a provider tool message.
func ToolResultText(r *core.ToolResult) string {
	if r == nil {
		return ""
	}
	if r.Failed() {
		if r.Code != "" {
			return fmt.Sprintf("error [%s]: %s", r.Code, r.Error)
		}
		return "error: " + r.Error
	}
	return r.Content
}
