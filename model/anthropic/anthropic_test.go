package anthropic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentgroup/core"
	"github.com/hupe1980/agentgroup/model"
)

func TestBuildMessages_ToolResultsFollowToolUse(t *testing.T) {
	msgs := buildMessages([]core.Message{
		core.NewUserMessage("what lights are on?"),
		core.NewToolCallMessage("lights", "checking", []core.ToolCall{
			{ID: "c1", Name: "get_lights"},
			{ID: "c2", Name: "get_lights", Arguments: `{"room":"kitchen"}`},
		}),
		core.NewToolResultMessage("lights", core.ToolResult{CallID: "c1", Name: "get_lights", Content: "[]"}),
		core.NewToolResultMessage("lights", core.ToolResult{CallID: "c2", Name: "get_lights", Error: "boom", Code: "EXECUTION_ERROR"}),
		core.NewAssistantMessage("lights", "none are on"),
	})

	require.Len(t, msgs, 4)
	assert.Equal(t, "user", string(msgs[0].Role))
	assert.Equal(t, "assistant", string(msgs[1].Role))
	assert.Len(t, msgs[1].Content, 3)
	assert.Equal(t, "user", string(msgs[2].Role))
	assert.Len(t, msgs[2].Content, 2)
	assert.Equal(t, "assistant", string(msgs[3].Role))
}

func TestBuildTools(t *testing.T) {
	tools := buildTools([]model.ToolDefinition{{
		Type: "function",
		Function: model.FunctionDefinition{
			Name:        "change_state",
			Description: "Switch a light",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{"id": map[string]any{"type": "integer"}},
				"required":   []any{"id"},
			},
		},
	}})

	require.Len(t, tools, 1)
	require.NotNil(t, tools[0].OfTool)
	assert.Equal(t, "change_state", tools[0].OfTool.Name)
	assert.Equal(t, []string{"id"}, tools[0].OfTool.InputSchema.Required)
}

func TestInfo(t *testing.T) {
	m := NewModel(func(o *Options) { o.APIKey = "test" })
	assert.Equal(t, "anthropic", m.Info().Provider)
	assert.True(t, m.Info().SupportsTools)
}
