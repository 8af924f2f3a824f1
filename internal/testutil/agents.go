package testutil

import (
	"context"
	"sync/atomic"

	"github.com/hupe1980/agentgroup/agent"
	"github.com/hupe1980/agentgroup/core"
)

// ScriptedAgent returns a FuncAgent replying with replies in order and
// repeating the last one.
func ScriptedAgent(id string, replies ...string) *agent.FuncAgent {
	return agent.NewFuncAgent(id, agent.Script(replies...))
}

// CountingAgent wraps an agent and counts Act calls.
type CountingAgent struct {
	agent.Agent
	calls atomic.Int64
}

// NewCountingAgent wraps a.
func NewCountingAgent(a agent.Agent) *CountingAgent { return &CountingAgent{Agent: a} }

// Act delegates and counts.
func (c *CountingAgent) Act(ctx context.Context, history []core.Message) (*agent.Turn, error) {
	c.calls.Add(1)
	return c.Agent.Act(ctx, history)
}

// Calls returns how often Act ran.
func (c *CountingAgent) Calls() int { return int(c.calls.Load()) }
