package main

import (
	"fmt"
	"strings"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/hupe1980/agentgroup/config"
	"github.com/hupe1980/agentgroup/core"
	"github.com/hupe1980/agentgroup/model"
	"github.com/hupe1980/agentgroup/model/anthropic"
	"github.com/hupe1980/agentgroup/model/openai"
)

// newBackend selects the model every agent of the group talks to.
func newBackend(env *config.Env) (model.Model, error) {
	switch env.LLM.Provider {
	case "openai":
		return openai.NewModel(func(o *openai.Options) {
			if env.LLM.Model != "" {
				o.Model = env.LLM.Model
			}
			o.Temperature = env.LLM.Temperature
			o.MaxCompletionTokens = env.LLM.MaxTokens
			o.APIKey = env.OpenAI.APIKey
			o.BaseURL = env.OpenAI.BaseURL
		}), nil
	case "azure":
		return openai.NewAzureModel(openai.AzureOptions{
			Endpoint:   env.Azure.Endpoint,
			APIVersion: env.Azure.APIVersion,
			APIKey:     env.Azure.APIKey,
			Deployment: env.Azure.Deployment,
		}, func(o *openai.Options) {
			o.Temperature = env.LLM.Temperature
			o.MaxCompletionTokens = env.LLM.MaxTokens
		}), nil
	case "anthropic":
		return anthropic.NewModel(func(o *anthropic.Options) {
			if env.LLM.Model != "" {
				o.Model = anthropicsdk.Model(env.LLM.Model)
			}
			o.Temperature = env.LLM.Temperature
			o.MaxTokens = env.LLM.MaxTokens
			o.APIKey = env.Anthropic.APIKey
		}), nil
	case "scripted":
		return model.NewScriptedModel("offline").WithFallback(offlineReply), nil
	default:
		return nil, fmt.Errorf("%w: unknown LLM_PROVIDER %q", config.ErrInvalidConfig, env.LLM.Provider)
	}
}

// offlineReply is a canned backend for trying groups without credentials.
// Reviewers approve once a peer has spoken, tool users read state first.
func offlineReply(req model.Request) (*model.Response, error) {
	if hasTool(req.Tools, "get_lights") && !sawToolResult(req.Messages) {
		return &model.Response{
			ToolCalls:    []core.ToolCall{{ID: core.NewID(), Name: "get_lights", Arguments: "{}"}},
			FinishReason: "tool_calls",
		}, nil
	}

	last := lastText(req.Messages)
	instructions := strings.ToLower(req.Instructions)

	var text string
	switch {
	case strings.Contains(instructions, "approve") && peerSpoke(req.Messages):
		text = "Approved. This copy is ready to print."
	case strings.Contains(instructions, "approve"):
		text = "Lead with the benefit and cut every word that does not earn its place."
	case sawToolResult(req.Messages):
		text = "Current state: " + last
	default:
		text = "Proposal: " + strings.TrimSuffix(userInput(req.Messages), ".") + ". Nothing more."
	}

	return &model.Response{Content: text, FinishReason: "stop"}, nil
}

func hasTool(defs []model.ToolDefinition, name string) bool {
	for _, d := range defs {
		if d.Function.Name == name {
			return true
		}
	}
	return false
}

// sawToolResult reports a tool result after the last user input.
func sawToolResult(msgs []core.Message) bool {
	for i := len(msgs) - 1; i >= 0; i-- {
		switch {
		case msgs[i].Role == core.RoleTool:
			return true
		case msgs[i].Role == core.RoleUser && msgs[i].Author == core.UserAuthor && !isPeer(msgs[i]):
			return false
		}
	}
	return false
}

func peerSpoke(msgs []core.Message) bool {
	for _, m := range msgs {
		if isPeer(m) {
			return true
		}
	}
	return false
}

// isPeer detects another agent's text projected as "author: content".
func isPeer(m core.Message) bool {
	if m.Role != core.RoleUser {
		return false
	}
	head, _, ok := strings.Cut(m.Content, ": ")
	return ok && head != "" && !strings.ContainsAny(head, " \t\n")
}

func userInput(msgs []core.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == core.RoleUser && !isPeer(msgs[i]) {
			return msgs[i].Content
		}
	}
	return ""
}

func lastText(msgs []core.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		if m.ToolResult != nil {
			return model.ToolResultText(m.ToolResult)
		}
		if m.Content != "" {
			return m.Content
		}
	}
	return ""
}
