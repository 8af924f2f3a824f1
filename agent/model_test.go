package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentgroup/core"
	"github.com/hupe1980/agentgroup/model"
	"github.com/hupe1980/agentgroup/tool"
)

func TestModelAgent_ToolLoop(t *testing.T) {
	reg := githubTools(t)
	caps, err := reg.Subset("issueReader", "get_issue", "list_issues")
	require.NoError(t, err)

	llm := model.NewScriptedModel("scripted",
		model.CallTools(core.ToolCall{Name: "get_issue", Arguments: `{"number":1}`}, core.ToolCall{Name: "create_branch"}),
		model.Reply("Issue 1 is about login."),
	)
	a := NewModelAgent("IssueReaderAgent", llm, func(o *ModelAgentOptions) {
		o.Capabilities = caps
		o.Instructions = "Read issues."
	})

	turn, err := a.Act(context.Background(), []core.Message{core.NewUserMessage("summarize issue 1")})
	require.NoError(t, err)

	// tool call message, two results, final text
	require.Len(t, turn.Messages, 4)
	require.Len(t, turn.ToolCalls, 2)
	assert.False(t, turn.ToolCalls[0].Violation)
	assert.True(t, turn.ToolCalls[1].Violation)
	assert.Equal(t, "Issue 1 is about login.", turn.Text())
	for _, m := range turn.Messages {
		assert.Equal(t, "IssueReaderAgent", m.Author)
	}

	reqs := llm.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "Read issues.", reqs[0].Instructions)
	require.Len(t, reqs[0].Tools, 2)
	assert.Equal(t, "get_issue", reqs[0].Tools[0].Function.Name)
	// second request sees its own tool traffic
	assert.Len(t, reqs[1].Messages, 4)
}

func TestModelAgent_ProjectsPeers(t *testing.T) {
	llm := model.NewScriptedModel("scripted", model.Reply("ok"))
	a := NewModelAgent("CopyWriter", llm)

	history := []core.Message{
		core.NewUserMessage("slogan for a car"),
		core.NewAssistantMessage("CopyWriter", "Drive the future."),
		core.NewToolCallMessage("ArtDirector", "", []core.ToolCall{{Name: "search"}}),
		core.NewToolResultMessage("ArtDirector", core.ToolResult{CallID: "x", Name: "search", Content: "..."}),
		core.NewAssistantMessage("ArtDirector", "Too generic."),
	}
	_, err := a.Act(context.Background(), history)
	require.NoError(t, err)

	msgs := llm.Requests()[0].Messages
	require.Len(t, msgs, 3)
	assert.Equal(t, core.RoleUser, msgs[0].Role)
	assert.Equal(t, core.RoleAssistant, msgs[1].Role)
	assert.Equal(t, core.RoleUser, msgs[2].Role)
	assert.Equal(t, "ArtDirector: Too generic.", msgs[2].Content)
	assert.Empty(t, llm.Requests()[0].Tools)
}

func TestModelAgent_MaxHistoryMessages(t *testing.T) {
	llm := model.NewScriptedModel("scripted", model.Reply("ok"))
	a := NewModelAgent("A", llm, func(o *ModelAgentOptions) { o.MaxHistoryMessages = 2 })

	history := []core.Message{
		core.NewUserMessage("one"),
		core.NewToolCallMessage("A", "", []core.ToolCall{{ID: "c", Name: "t"}}),
		core.NewToolResultMessage("A", core.ToolResult{CallID: "c", Name: "t"}),
		core.NewUserMessage("two"),
	}
	_, err := a.Act(context.Background(), history)
	require.NoError(t, err)

	// the window starts at an orphaned tool result, which is dropped
	msgs := llm.Requests()[0].Messages
	require.Len(t, msgs, 1)
	assert.Equal(t, "two", msgs[0].Content)
}

func TestModelAgent_ToolRoundBudget(t *testing.T) {
	reg := githubTools(t)
	llm := model.NewScriptedModel("scripted",
		model.CallTools(core.ToolCall{Name: "get_issue"}),
		model.CallTools(core.ToolCall{Name: "get_issue"}),
		model.Reply("done"),
	)
	a := NewModelAgent("A", llm, func(o *ModelAgentOptions) {
		o.Capabilities = reg.All("all")
		o.MaxToolRounds = 1
	})

	turn, err := a.Act(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, turn.ToolCalls, 1)
	assert.Equal(t, "", turn.Text(), "tool calls after the budget are ignored")

	reqs := llm.Requests()
	require.Len(t, reqs, 2)
	assert.NotEmpty(t, reqs[0].Tools)
	assert.Empty(t, reqs[1].Tools)
}

func TestModelAgent_FatalAndCancelled(t *testing.T) {
	boom := errors.New("backend unreachable")
	a := NewModelAgent("A", model.NewScriptedModel("scripted", model.Fail(boom)))

	_, err := a.Act(context.Background(), nil)
	require.ErrorIs(t, err, core.ErrFatalAgent)
	require.ErrorIs(t, err, boom)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := NewModelAgent("B", model.NewScriptedModel("scripted", model.Step{Block: true}))
	_, err = b.Act(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, core.ErrFatalAgent)
}

func TestModelAgent_StreamingPartials(t *testing.T) {
	var chunks []string
	a := NewModelAgent("A", model.NewScriptedModel("scripted", model.Reply("hello")), func(o *ModelAgentOptions) {
		o.EnableStreaming = true
		o.OnPartial = func(agentID string, r model.Response) { chunks = append(chunks, agentID+":"+r.Content) }
	})

	turn, err := a.Act(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", turn.Text())
	assert.Equal(t, []string{"A:hello"}, chunks)
}

func TestModelAgent_EmptyCapabilitiesHideTools(t *testing.T) {
	a := NewModelAgent("A", model.NewScriptedModel("scripted", model.Reply("x")))
	assert.Equal(t, 0, a.Capabilities().Len())

	_, err := a.Act(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, a.Model().(*model.ScriptedModel).Requests()[0].Tools)
}

func TestModelAgent_CallsWithoutCapabilitiesAreViolations(t *testing.T) {
	llm := model.NewScriptedModel("scripted",
		model.CallTools(core.ToolCall{Name: "create_branch"}),
		model.Reply("cannot branch"),
	)
	a := NewModelAgent("Reviewer", llm)

	turn, err := a.Act(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, turn.ToolCalls, 1)
	assert.True(t, turn.ToolCalls[0].Violation)
	assert.Contains(t, turn.ToolCalls[0].Result.Error, "create_branch")
	assert.Equal(t, "CAPABILITY_VIOLATION", turn.ToolCalls[0].Result.Code)
	assert.Equal(t, "cannot branch", turn.Text())
}

func TestModelAgent_OneViolationResultPerRejectedCall(t *testing.T) {
	var branched int
	reg := tool.MustRegistry(
		tool.NewFunctionTool("get_issue", "", nil, func(context.Context, map[string]any) (any, error) { return "issue", nil }),
		tool.NewFunctionTool("create_branch", "", nil, func(context.Context, map[string]any) (any, error) {
			branched++
			return "branch", nil
		}),
	)
	caps, err := reg.Subset("issueReader", "get_issue")
	require.NoError(t, err)

	llm := model.NewScriptedModel("scripted",
		model.CallTools(
			core.ToolCall{ID: "b1", Name: "create_branch", Arguments: `{"name":"fix"}`},
			core.ToolCall{ID: "b2", Name: "create_branch", Arguments: `{"name":"feat"}`},
		),
		model.Reply("I may not create branches."),
	)
	a := NewModelAgent("X", llm, func(o *ModelAgentOptions) { o.Capabilities = caps })

	turn, err := a.Act(context.Background(), []core.Message{core.NewUserMessage("branch off main")})
	require.NoError(t, err)
	assert.Equal(t, 0, branched)

	// call message, one result per rejected call, final text
	require.Len(t, turn.Messages, 4)
	assert.Len(t, turn.Messages[0].ToolCalls, 2)

	var violations []string
	for _, m := range turn.Messages {
		if m.Role != core.RoleTool {
			continue
		}
		require.NotNil(t, m.ToolResult)
		assert.Equal(t, tool.CodeCapabilityViolation, m.ToolResult.Code)
		violations = append(violations, m.ToolResult.CallID)
	}
	assert.Equal(t, []string{"b1", "b2"}, violations)
	assert.Equal(t, "I may not create branches.", turn.Text())
}
