package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/hupe1980/agentgroup/core"
	"github.com/hupe1980/agentgroup/interceptor"
	"github.com/hupe1980/agentgroup/internal/util"
	"github.com/hupe1980/agentgroup/logging"
	"github.com/hupe1980/agentgroup/metrics"
	"github.com/hupe1980/agentgroup/tool"
)

// ExecutionOptions configures an ExecutionContext.
type ExecutionOptions struct {
	Interceptors    *interceptor.Chain
	Logger          logging.Logger
	Metrics         *metrics.Collectors
	ToolTimeout     time.Duration // 0 disables the per-call timeout
	DelegateTimeout time.Duration // bounds agent-backed tools; 0 leaves them to ctx
}

// ExecutionContext is the per-agent tool execution environment. It pairs
// the agent's capability set with the interceptor chain and is never shared
// between agents.
type ExecutionContext struct {
	agentID         string
	caps            *tool.CapabilitySet
	chain           *interceptor.Chain
	logger          logging.Logger
	metrics         *metrics.Collectors
	toolTimeout     time.Duration
	delegateTimeout time.Duration
}

// NewExecutionContext builds the execution context of one agent.
func NewExecutionContext(agentID string, caps *tool.CapabilitySet, optFns ...func(o *ExecutionOptions)) *ExecutionContext {
	opts := ExecutionOptions{
		ToolTimeout: 15 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if caps == nil {
		caps = tool.EmptyCapabilitySet(agentID)
	}
	return &ExecutionContext{
		agentID:         agentID,
		caps:            caps,
		chain:           opts.Interceptors,
		logger:          logging.OrNoOp(opts.Logger),
		metrics:         opts.Metrics,
		toolTimeout:     opts.ToolTimeout,
		delegateTimeout: opts.DelegateTimeout,
	}
}

// AgentID returns the owning agent.
func (e *ExecutionContext) AgentID() string { return e.agentID }

// Capabilities returns the capability set enforced by this context.
func (e *ExecutionContext) Capabilities() *tool.CapabilitySet { return e.caps }

// Logger returns the context logger.
func (e *ExecutionContext) Logger() logging.Logger { return e.logger }

// Invoke performs one tool call on behalf of the agent.
//
// A tool outside the capability set is never dispatched: the returned
// record carries a CAPABILITY_VIOLATION result and Violation is set. Tool
// failures are likewise encoded in the record. The only error returned is
// the context error when ctx ends; the record is then discarded.
func (e *ExecutionContext) Invoke(ctx context.Context, call core.ToolCall) (ToolInvocationRecord, error) {
	if err := ctx.Err(); err != nil {
		return ToolInvocationRecord{}, err
	}
	if call.ID == "" {
		call.ID = core.NewID()
	}

	start := time.Now()

	t, ok := e.caps.Lookup(call.Name)
	if !ok {
		violation := &core.CapabilityViolationError{Agent: e.agentID, Tool: call.Name, CapabilitySet: e.caps.Name()}
		e.logger.Warn("tool.capability.violation", "agent", e.agentID, "tool", call.Name, "capability_set", e.caps.Name())
		e.metrics.RecordCapabilityViolation(e.agentID, call.Name)

		rec := e.record(call, core.ToolResult{
			CallID: call.ID,
			Name:   call.Name,
			Error:  violation.Error(),
			Code:   tool.CodeCapabilityViolation,
		}, start)
		rec.Violation = true
		return rec, nil
	}

	args, err := util.DecodeArguments(call.Arguments)
	if err != nil {
		e.logger.Warn("tool.call.validation_failed", "agent", e.agentID, "tool", call.Name, "error", err.Error())
		return e.record(call, core.ToolResult{
			CallID: call.ID,
			Name:   call.Name,
			Error:  err.Error(),
			Code:   tool.CodeValidation,
		}, start), nil
	}

	e.logger.Debug("tool.call.start", "agent", e.agentID, "tool", call.Name, "fc_id", call.ID)

	inv := &interceptor.Invocation{
		CallID:        call.ID,
		Agent:         e.agentID,
		CapabilitySet: e.caps.Name(),
		Tool:          t.Name(),
		Description:   t.Description(),
		Kind:          t.Kind(),
		Arguments:     args,
		StartedAt:     start,
	}

	res := e.dispatch(ctx, inv, t)

	if err := ctx.Err(); err != nil {
		e.logger.Debug("tool.call.cancelled", "agent", e.agentID, "tool", call.Name)
		return ToolInvocationRecord{}, err
	}

	result := toToolResult(call, res)
	if result.Failed() {
		e.logger.Error("tool.call.error", "agent", e.agentID, "tool", call.Name, "code", result.Code, "error", result.Error)
	} else {
		e.logger.Info("tool.call.success", "agent", e.agentID, "tool", call.Name, "duration_ms", time.Since(start).Milliseconds())
	}

	return e.record(call, result, start), nil
}

// InvokeAll performs calls sequentially and stops at the first context error.
func (e *ExecutionContext) InvokeAll(ctx context.Context, calls []core.ToolCall) ([]ToolInvocationRecord, error) {
	recs := make([]ToolInvocationRecord, 0, len(calls))
	for _, c := range calls {
		rec, err := e.Invoke(ctx, c)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// Call is a convenience for Go-driven agents: it encodes args, invokes the
// named tool and records the result on turn.
func (e *ExecutionContext) Call(ctx context.Context, turn *Turn, name string, args any) (ToolInvocationRecord, error) {
	raw := ""
	if args != nil {
		data, err := json.Marshal(args)
		if err != nil {
			return ToolInvocationRecord{}, fmt.Errorf("encode arguments for %s: %w", name, err)
		}
		raw = string(data)
	}

	rec, err := e.Invoke(ctx, core.ToolCall{Name: name, Arguments: raw})
	if err != nil {
		return ToolInvocationRecord{}, err
	}
	turn.Record(rec)
	return rec, nil
}

func (e *ExecutionContext) dispatch(ctx context.Context, inv *interceptor.Invocation, t tool.Tool) (res interceptor.Result) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("tool.call.panic", "agent", e.agentID, "tool", inv.Tool, "recover", r, "stack", string(debug.Stack()))
			res = interceptor.Result{Err: tool.NewToolError(inv.Tool, fmt.Sprintf("panic recovered: %v", r), tool.CodePanic)}
		}
	}()

	return e.chain.Dispatch(ctx, inv, func(ctx context.Context, inv *interceptor.Invocation) interceptor.Result {
		return e.callTool(ctx, inv, t)
	})
}

func (e *ExecutionContext) callTool(ctx context.Context, inv *interceptor.Invocation, t tool.Tool) (res interceptor.Result) {
	// A delegate runs a whole agent turn with its own tool rounds.
	timeout := e.toolTimeout
	if t.Kind() == tool.KindAgent {
		timeout = e.delegateTimeout
	}

	callCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("tool.call.panic", "agent", e.agentID, "tool", inv.Tool, "recover", r)
			res = interceptor.Result{Err: tool.NewToolError(inv.Tool, fmt.Sprintf("panic recovered: %v", r), tool.CodePanic)}
		}
	}()

	v, err := t.Call(callCtx, inv.Arguments)
	if err != nil && ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		err = tool.NewToolError(inv.Tool, fmt.Sprintf("timed out after %s", timeout), tool.CodeTimeout)
	}
	return interceptor.Result{Value: v, Err: err}
}

func (e *ExecutionContext) record(call core.ToolCall, result core.ToolResult, start time.Time) ToolInvocationRecord {
	return ToolInvocationRecord{
		Call:     call,
		Result:   result,
		Message:  core.NewToolResultMessage(e.agentID, result),
		Duration: time.Since(start),
	}
}

// toToolResult encodes an interceptor result as a tool result payload.
func toToolResult(call core.ToolCall, res interceptor.Result) core.ToolResult {
	out := core.ToolResult{CallID: call.ID, Name: call.Name}

	if res.Err != nil {
		var toolErr *tool.ToolError
		if errors.As(res.Err, &toolErr) {
			out.Error = toolErr.Message
			out.Code = toolErr.Code
		} else {
			out.Error = res.Err.Error()
			out.Code = tool.CodeExecution
		}
		return out
	}

	out.Content = encodeValue(res.Value)
	return out
}

func encodeValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
