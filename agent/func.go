package agent

import (
	"context"
	"time"

	"github.com/hupe1980/agentgroup/core"
	"github.com/hupe1980/agentgroup/interceptor"
	"github.com/hupe1980/agentgroup/logging"
	"github.com/hupe1980/agentgroup/metrics"
	"github.com/hupe1980/agentgroup/tool"
)

// ActFunc implements a turn in Go. Tool calls go through exec so the
// capability check and interceptors apply exactly as for model agents.
type ActFunc func(ctx context.Context, exec *ExecutionContext, history []core.Message) (*Turn, error)

// FuncAgentOptions configures a FuncAgent.
type FuncAgentOptions struct {
	Description     string
	Instructions    string
	Capabilities    *tool.CapabilitySet
	Interceptors    *interceptor.Chain
	Logger          logging.Logger
	Metrics         *metrics.Collectors
	ToolTimeout     time.Duration
	DelegateTimeout time.Duration
}

// FuncAgent is an agent whose behavior is a Go function.
type FuncAgent struct {
	BaseAgent
	fn   ActFunc
	exec *ExecutionContext
}

// NewFuncAgent creates a function-backed agent.
func NewFuncAgent(id string, fn ActFunc, optFns ...func(o *FuncAgentOptions)) *FuncAgent {
	opts := FuncAgentOptions{ToolTimeout: 15 * time.Second}
	for _, f := range optFns {
		f(&opts)
	}

	base := NewBaseAgent(id, opts.Description, opts.Instructions, opts.Capabilities)

	return &FuncAgent{
		BaseAgent: base,
		fn:        fn,
		exec: NewExecutionContext(id, base.Capabilities(), func(o *ExecutionOptions) {
			o.Interceptors = opts.Interceptors
			o.Logger = opts.Logger
			o.Metrics = opts.Metrics
			o.ToolTimeout = opts.ToolTimeout
			o.DelegateTimeout = opts.DelegateTimeout
		}),
	}
}

// Act calls the wrapped function.
func (a *FuncAgent) Act(ctx context.Context, history []core.Message) (*Turn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	turn, err := a.fn(ctx, a.exec, history)
	if err != nil {
		return nil, err
	}
	if turn == nil {
		turn = &Turn{}
	}
	return turn, nil
}

// Reply returns an ActFunc that always answers with text.
func Reply(text string) ActFunc {
	return func(_ context.Context, exec *ExecutionContext, _ []core.Message) (*Turn, error) {
		t := &Turn{}
		t.Say(exec.AgentID(), text)
		return t, nil
	}
}

// Script returns an ActFunc answering with replies in order, repeating the
// last one once exhausted.
func Script(replies ...string) ActFunc {
	i := 0
	return func(_ context.Context, exec *ExecutionContext, _ []core.Message) (*Turn, error) {
		t := &Turn{}
		if len(replies) == 0 {
			return t, nil
		}
		if i >= len(replies) {
			i = len(replies) - 1
		}
		t.Say(exec.AgentID(), replies[i])
		i++
		return t, nil
	}
}
