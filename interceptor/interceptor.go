// Package interceptor implements the hook pipeline wrapped around every tool
// call. Interceptors are composed into an ordered Chain so concerns such as
// auditing, rate limiting and metrics can be layered without touching agents.
package interceptor

import (
	"context"
	"errors"
	"time"

	"github.com/hupe1980/agentgroup/tool"
)

// Invocation describes one tool call as seen by interceptors.
type Invocation struct {
	CallID        string
	Agent         string
	CapabilitySet string
	Tool          string
	Description   string
	Kind          tool.Kind
	Arguments     map[string]any
	StartedAt     time.Time
}

// Result is the outcome of a tool call. Exactly one of Value or Err is
// meaningful.
type Result struct {
	Value any
	Err   error
}

// Action enumerates the possible Before decisions.
type Action int

const (
	// ActionProceed continues with the next interceptor or the tool itself.
	ActionProceed Action = iota
	// ActionOverride skips the tool and uses the supplied result.
	ActionOverride
	// ActionAbort skips the tool and fails the call with an ABORTED error.
	ActionAbort
)

// Decision is returned by Before.
type Decision struct {
	Action Action
	Result Result
	Reason string
}

// Proceed lets the call continue.
func Proceed() Decision { return Decision{Action: ActionProceed} }

// Override short-circuits the call with r.
func Override(r Result) Decision { return Decision{Action: ActionOverride, Result: r} }

// Abort short-circuits the call with a failure carrying reason.
func Abort(reason string) Decision { return Decision{Action: ActionAbort, Reason: reason} }

// Interceptor hooks into tool dispatch. Before runs ahead of the call and
// may short-circuit it; After may transform the result. Both run
// synchronously on the session's logical thread.
type Interceptor interface {
	Before(ctx context.Context, inv *Invocation) Decision
	After(ctx context.Context, inv *Invocation, res Result) Result
}

// Handler performs the actual tool call.
type Handler func(ctx context.Context, inv *Invocation) Result

// Chain is an immutable ordered list of interceptors.
type Chain struct {
	interceptors []Interceptor
}

// NewChain creates a chain. Nil interceptors are skipped.
func NewChain(interceptors ...Interceptor) *Chain {
	c := &Chain{}
	for _, i := range interceptors {
		if i != nil {
			c.interceptors = append(c.interceptors, i)
		}
	}
	return c
}

// Append returns a new chain with extra interceptors after c's own.
func (c *Chain) Append(extra ...Interceptor) *Chain {
	all := make([]Interceptor, 0, c.Len()+len(extra))
	if c != nil {
		all = append(all, c.interceptors...)
	}
	return NewChain(append(all, extra...)...)
}

// Len returns the number of interceptors.
func (c *Chain) Len() int {
	if c == nil {
		return 0
	}
	return len(c.interceptors)
}

// Dispatch runs the before hooks in order, then the handler, then the after
// hooks in reverse order. The first Override or Abort decision skips the
// handler and the remaining before hooks; after hooks still run for every
// interceptor whose before hook ran.
func (c *Chain) Dispatch(ctx context.Context, inv *Invocation, h Handler) Result {
	if inv.StartedAt.IsZero() {
		inv.StartedAt = time.Now()
	}

	var (
		res      Result
		ran      int
		shortCut bool
	)

	if c != nil {
		for _, i := range c.interceptors {
			d := i.Before(ctx, inv)
			ran++

			switch d.Action {
			case ActionOverride:
				res = d.Result
				shortCut = true
			case ActionAbort:
				res = Result{Err: tool.NewToolError(inv.Tool, d.Reason, tool.CodeAborted)}
				shortCut = true
			}

			if shortCut {
				break
			}
		}
	}

	if !shortCut {
		res = h(ctx, inv)
	}

	for idx := ran - 1; idx >= 0; idx-- {
		res = c.interceptors[idx].After(ctx, inv, res)
	}

	return res
}

// Status classifies a result as success, aborted or error.
func Status(res Result) string {
	if res.Err == nil {
		return "success"
	}
	var toolErr *tool.ToolError
	if errors.As(res.Err, &toolErr) && toolErr.Code == tool.CodeAborted {
		return "aborted"
	}
	return "error"
}

// BeforeFunc adapts a function to an Interceptor with a pass-through After.
type BeforeFunc func(ctx context.Context, inv *Invocation) Decision

// Before calls f.
func (f BeforeFunc) Before(ctx context.Context, inv *Invocation) Decision { return f(ctx, inv) }

// After returns res unchanged.
func (f BeforeFunc) After(_ context.Context, _ *Invocation, res Result) Result { return res }

// AfterFunc adapts a function to an Interceptor that always proceeds.
type AfterFunc func(ctx context.Context, inv *Invocation, res Result) Result

// Before always proceeds.
func (f AfterFunc) Before(context.Context, *Invocation) Decision { return Proceed() }

// After calls f.
func (f AfterFunc) After(ctx context.Context, inv *Invocation, res Result) Result {
	return f(ctx, inv, res)
}
