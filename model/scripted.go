package model

import (
	"context"
	"errors"
	"sync"

	"github.com/hupe1980/agentgroup/core"
)

// ErrScriptExhausted is returned once a ScriptedModel has no steps left.
var ErrScriptExhausted = errors.New("scripted model: no more steps")

// Step is one scripted reply. Exactly one of Respond, Err or Response is
// used, checked in that order. Block makes the step wait for ctx to end.
type Step struct {
	Response Response
	Err      error
	Respond  func(req Request) (*Response, error)
	Block    bool
}

// Reply is a final text response step.
func Reply(text string) Step {
	return Step{Response: Response{Content: text, FinishReason: "stop"}}
}

// CallTools is a step requesting tool calls. Missing call ids are filled in.
func CallTools(calls ...core.ToolCall) Step {
	for i := range calls {
		if calls[i].ID == "" {
			calls[i].ID = core.NewID()
		}
	}
	return Step{Response: Response{ToolCalls: calls, FinishReason: "tool_calls"}}
}

// Fail is a step returning err.
func Fail(err error) Step { return Step{Err: err} }

// ScriptedModel is a deterministic in-memory Model for tests and demos. It
// replays its steps in order and records every request it receives.
type ScriptedModel struct {
	mu       sync.Mutex
	info     Info
	steps    []Step
	fallback func(req Request) (*Response, error)
	requests []Request
}

// NewScriptedModel constructs a ScriptedModel replaying steps.
func NewScriptedModel(name string, steps ...Step) *ScriptedModel {
	return &ScriptedModel{
		info: Info{
			Name:          name,
			Provider:      "scripted",
			SupportsTools: true,
		},
		steps: steps,
	}
}

// Push appends more steps.
func (m *ScriptedModel) Push(steps ...Step) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps = append(m.steps, steps...)
}

// WithFallback answers requests with fn once the steps are used up,
// instead of failing with ErrScriptExhausted.
func (m *ScriptedModel) WithFallback(fn func(req Request) (*Response, error)) *ScriptedModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = fn
	return m
}

// Requests returns the requests seen so far.
func (m *ScriptedModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Remaining returns the number of unused steps.
func (m *ScriptedModel) Remaining() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.steps)
}

func (m *ScriptedModel) next(req Request) (Step, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if len(m.steps) == 0 {
		if m.fallback != nil {
			return Step{Respond: m.fallback}, true
		}
		return Step{}, false
	}
	s := m.steps[0]
	m.steps = m.steps[1:]
	return s, true
}

// Generate implements Model. When req.Stream is set the text is also
// emitted as a single partial chunk ahead of the final response.
func (m *ScriptedModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	out := make(chan Response, 2)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		step, ok := m.next(req)
		if !ok {
			errCh <- ErrScriptExhausted
			return
		}

		if step.Block {
			<-ctx.Done()
			errCh <- ctx.Err()
			return
		}
		if err := ctx.Err(); err != nil {
			errCh <- err
			return
		}

		resp := step.Response
		switch {
		case step.Respond != nil:
			r, err := step.Respond(req)
			if err != nil {
				errCh <- err
				return
			}
			resp = *r
		case step.Err != nil:
			errCh <- step.Err
			return
		}

		if req.Stream && resp.Content != "" {
			out <- Response{Partial: true, Content: resp.Content}
		}
		resp.Partial = false
		out <- resp
	}()

	return out, errCh
}

// Info implements Model.
func (m *ScriptedModel) Info() Info { return m.info }
