package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentgroup/core"
	"github.com/hupe1980/agentgroup/interceptor"
	"github.com/hupe1980/agentgroup/tool"
)

func githubTools(t *testing.T) *tool.Registry {
	t.Helper()
	mk := func(name string) tool.Tool {
		return tool.NewFunctionTool(name, "github "+name, nil, func(_ context.Context, args map[string]any) (any, error) {
			return map[string]any{"tool": name, "args": len(args)}, nil
		})
	}
	return tool.MustRegistry(mk("get_issue"), mk("list_issues"), mk("create_branch"))
}

func TestExecutionContext_CapabilityViolation(t *testing.T) {
	reg := githubTools(t)
	caps, err := reg.Subset("issueReader", "get_issue", "list_issues")
	require.NoError(t, err)

	sink := interceptor.NewAuditLog()
	exec := NewExecutionContext("X", caps, func(o *ExecutionOptions) {
		o.Interceptors = interceptor.NewChain(interceptor.NewAudit(func(o *interceptor.AuditOptions) { o.Sink = sink }))
	})

	rec, err := exec.Invoke(context.Background(), core.ToolCall{ID: "c1", Name: "create_branch"})
	require.NoError(t, err)
	assert.True(t, rec.Violation)
	assert.Equal(t, tool.CodeCapabilityViolation, rec.Result.Code)
	assert.Contains(t, rec.Result.Error, "create_branch")
	assert.Equal(t, core.RoleTool, rec.Message.Role)
	assert.Equal(t, "X", rec.Message.Author)
	assert.Equal(t, "c1", rec.Message.ToolResult.CallID)
	assert.Empty(t, sink.Records(), "violations never reach the interceptor chain")
}

func TestExecutionContext_Success(t *testing.T) {
	reg := githubTools(t)
	caps, _ := reg.Subset("issueReader", "get_issue")
	exec := NewExecutionContext("X", caps)

	rec, err := exec.Invoke(context.Background(), core.ToolCall{Name: "get_issue", Arguments: `{"number": 7}`})
	require.NoError(t, err)
	assert.False(t, rec.Result.Failed())
	assert.JSONEq(t, `{"tool":"get_issue","args":1}`, rec.Result.Content)
	assert.NotEmpty(t, rec.Call.ID)
}

func TestExecutionContext_BadArguments(t *testing.T) {
	reg := githubTools(t)
	caps, _ := reg.Subset("issueReader", "get_issue")
	exec := NewExecutionContext("X", caps)

	rec, err := exec.Invoke(context.Background(), core.ToolCall{Name: "get_issue", Arguments: `{oops`})
	require.NoError(t, err)
	assert.Equal(t, tool.CodeValidation, rec.Result.Code)
}

func TestExecutionContext_TimeoutAndPanic(t *testing.T) {
	slow := tool.NewFunctionTool("slow", "", nil, func(ctx context.Context, _ map[string]any) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	boom := tool.NewFunctionTool("boom", "", nil, func(context.Context, map[string]any) (any, error) {
		panic("kaboom")
	})
	reg := tool.MustRegistry(slow, boom)
	exec := NewExecutionContext("X", reg.All("all"), func(o *ExecutionOptions) {
		o.ToolTimeout = 10 * time.Millisecond
	})

	rec, err := exec.Invoke(context.Background(), core.ToolCall{Name: "slow"})
	require.NoError(t, err)
	assert.Equal(t, tool.CodeTimeout, rec.Result.Code)

	rec, err = exec.Invoke(context.Background(), core.ToolCall{Name: "boom"})
	require.NoError(t, err)
	assert.Equal(t, tool.CodePanic, rec.Result.Code)
	assert.Contains(t, rec.Result.Error, "kaboom")
}

func TestExecutionContext_DelegateTimeout(t *testing.T) {
	delegate := tool.New("Researcher", "ask the researcher", nil, tool.DelegatingAgent{
		AgentID: "Researcher",
		Act: func(ctx context.Context, input string) (string, error) {
			select {
			case <-time.After(50 * time.Millisecond):
				return "found: " + input, nil
			case <-ctx.Done():
				return "", ctx.Err()
			}
		},
	})
	reg := tool.MustRegistry(delegate)
	call := core.ToolCall{Name: "Researcher", Arguments: `{"input": "moon landing"}`}

	exec := NewExecutionContext("Coordinator", reg.All("team"), func(o *ExecutionOptions) {
		o.ToolTimeout = 10 * time.Millisecond
	})
	rec, err := exec.Invoke(context.Background(), call)
	require.NoError(t, err)
	assert.False(t, rec.Result.Failed(), rec.Result.Error)
	assert.Equal(t, "found: moon landing", rec.Result.Content)

	bounded := NewExecutionContext("Coordinator", reg.All("team"), func(o *ExecutionOptions) {
		o.DelegateTimeout = 10 * time.Millisecond
	})
	rec, err = bounded.Invoke(context.Background(), call)
	require.NoError(t, err)
	assert.Equal(t, tool.CodeTimeout, rec.Result.Code)
	assert.Contains(t, rec.Result.Error, "10ms")
}

func TestExecutionContext_InterceptorAbortAndOverride(t *testing.T) {
	reg := githubTools(t)
	exec := NewExecutionContext("X", reg.All("all"), func(o *ExecutionOptions) {
		o.Interceptors = interceptor.NewChain(interceptor.BeforeFunc(func(_ context.Context, inv *interceptor.Invocation) interceptor.Decision {
			switch inv.Tool {
			case "create_branch":
				return interceptor.Abort("branch creation frozen")
			case "list_issues":
				return interceptor.Override(interceptor.Result{Value: "cached"})
			}
			return interceptor.Proceed()
		}))
	})

	rec, err := exec.Invoke(context.Background(), core.ToolCall{Name: "create_branch"})
	require.NoError(t, err)
	assert.Equal(t, tool.CodeAborted, rec.Result.Code)
	assert.Equal(t, "branch creation frozen", rec.Result.Error)

	rec, err = exec.Invoke(context.Background(), core.ToolCall{Name: "list_issues"})
	require.NoError(t, err)
	assert.Equal(t, "cached", rec.Result.Content)
}

func TestExecutionContext_ExecutionError(t *testing.T) {
	failing := tool.NewFunctionTool("fail", "", nil, func(context.Context, map[string]any) (any, error) {
		return nil, errors.New("provider unavailable")
	})
	exec := NewExecutionContext("X", tool.MustRegistry(failing).All("all"))

	rec, err := exec.Invoke(context.Background(), core.ToolCall{Name: "fail"})
	require.NoError(t, err)
	assert.Equal(t, tool.CodeExecution, rec.Result.Code)
	assert.Equal(t, "provider unavailable", rec.Result.Error)
}

func TestExecutionContext_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	blocking := tool.NewFunctionTool("wait", "", nil, func(ctx context.Context, _ map[string]any) (any, error) {
		cancel()
		<-ctx.Done()
		return nil, ctx.Err()
	})
	exec := NewExecutionContext("X", tool.MustRegistry(blocking).All("all"))

	_, err := exec.Invoke(ctx, core.ToolCall{Name: "wait"})
	assert.ErrorIs(t, err, context.Canceled)

	_, err = exec.Invoke(ctx, core.ToolCall{Name: "wait"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExecutionContext_CallRecordsOnTurn(t *testing.T) {
	reg := githubTools(t)
	exec := NewExecutionContext("X", reg.All("all"))
	turn := &Turn{}

	_, err := exec.Call(context.Background(), turn, "get_issue", map[string]any{"number": 1})
	require.NoError(t, err)
	require.Len(t, turn.Messages, 1)
	require.Len(t, turn.ToolCalls, 1)
	assert.Equal(t, `{"number":1}`, turn.ToolCalls[0].Call.Arguments)
}
