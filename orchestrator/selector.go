package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/agentgroup/agent"
	"github.com/hupe1980/agentgroup/core"
	"github.com/hupe1980/agentgroup/model"
)

// Selector picks the agent that acts next. turn is the number of turns
// completed so far.
type Selector interface {
	Next(ctx context.Context, agents []agent.Agent, history []core.Message, turn int) (agent.Agent, error)
}

// SelectorFunc adapts a function to a Selector.
type SelectorFunc func(ctx context.Context, agents []agent.Agent, history []core.Message, turn int) (agent.Agent, error)

// Next calls f.
func (f SelectorFunc) Next(ctx context.Context, agents []agent.Agent, history []core.Message, turn int) (agent.Agent, error) {
	return f(ctx, agents, history, turn)
}

// RoundRobin cycles through agents in their configured order. A cancelled
// turn does not advance the count, so the same agent is offered again.
func RoundRobin() Selector {
	return SelectorFunc(func(_ context.Context, agents []agent.Agent, _ []core.Message, turn int) (agent.Agent, error) {
		if len(agents) == 0 {
			return nil, core.ErrNoAgents
		}
		return agents[turn%len(agents)], nil
	})
}

// Router names the agent that should handle the next step.
type Router interface {
	Route(ctx context.Context, agents []agent.Agent, history []core.Message) (string, error)
}

// RouterFunc adapts a function to a Router.
type RouterFunc func(ctx context.Context, agents []agent.Agent, history []core.Message) (string, error)

// Route calls f.
func (f RouterFunc) Route(ctx context.Context, agents []agent.Agent, history []core.Message) (string, error) {
	return f(ctx, agents, history)
}

// RoutingOptions configures a Routing selector.
type RoutingOptions struct {
	// Fallback is used when the router fails or names a non-participant.
	// Without a fallback those cases are errors.
	Fallback Selector
}

// Routing selects agents dynamically through a Router.
type Routing struct {
	router   Router
	fallback Selector
}

// NewRouting creates a routing selector.
func NewRouting(router Router, optFns ...func(o *RoutingOptions)) *Routing {
	opts := RoutingOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Routing{router: router, fallback: opts.Fallback}
}

// Next asks the router and falls back when it cannot answer.
func (r *Routing) Next(ctx context.Context, agents []agent.Agent, history []core.Message, turn int) (agent.Agent, error) {
	name, err := r.router.Route(ctx, agents, history)
	if err == nil {
		for _, a := range agents {
			if a.ID() == name {
				return a, nil
			}
		}
		err = fmt.Errorf("%w: %q", core.ErrUnknownAgent, name)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if r.fallback == nil {
		return nil, fmt.Errorf("routing: %w", err)
	}
	return r.fallback.Next(ctx, agents, history, turn)
}

// ErrNoRoute is returned by ModelRouter when the backend's answer names no
// participant.
var ErrNoRoute = errors.New("router answer names no agent")

// ModelRouterOptions configures a ModelRouter.
type ModelRouterOptions struct {
	// Instructions prefix the generated participant list.
	Instructions string
	// Window bounds how many recent text messages the router sees. Zero
	// shows the whole history.
	Window int
}

// ModelRouter asks a model backend which participant should act next.
type ModelRouter struct {
	llm  model.Model
	opts ModelRouterOptions
}

// NewModelRouter creates a router backed by llm.
func NewModelRouter(llm model.Model, optFns ...func(o *ModelRouterOptions)) *ModelRouter {
	opts := ModelRouterOptions{
		Instructions: "You coordinate a group chat. Decide which participant should speak next. " +
			"Answer with the participant name only.",
		Window: 20,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &ModelRouter{llm: llm, opts: opts}
}

// Route implements Router.
func (m *ModelRouter) Route(ctx context.Context, agents []agent.Agent, history []core.Message) (string, error) {
	var b strings.Builder
	b.WriteString(m.opts.Instructions)
	b.WriteString("\n\nParticipants:\n")
	for _, a := range agents {
		fmt.Fprintf(&b, "- %s: %s\n", a.ID(), a.Description())
	}

	var transcript []core.Message
	for _, msg := range history {
		if !msg.IsText() || msg.Content == "" {
			continue
		}
		transcript = append(transcript, core.NewUserMessage(msg.Author+": "+msg.Content))
	}
	if m.opts.Window > 0 && len(transcript) > m.opts.Window {
		transcript = transcript[len(transcript)-m.opts.Window:]
	}

	resp, err := model.Collect(ctx, m.llm, model.Request{
		Instructions: b.String(),
		Messages:     transcript,
	}, nil)
	if err != nil {
		return "", fmt.Errorf("model router: %w", err)
	}

	if name, ok := matchAgent(resp.Content, agents); ok {
		return name, nil
	}
	return "", fmt.Errorf("%w: %q", ErrNoRoute, resp.Content)
}

// matchAgent resolves a free-form answer to a participant id: exact match
// first (case-insensitive, quotes and punctuation trimmed), then the first
// participant mentioned.
func matchAgent(answer string, agents []agent.Agent) (string, bool) {
	clean := strings.Trim(strings.TrimSpace(answer), "\"'`.:!* ")
	for _, a := range agents {
		if strings.EqualFold(clean, a.ID()) {
			return a.ID(), true
		}
	}

	lower := strings.ToLower(answer)
	best, bestIdx := "", -1
	for _, a := range agents {
		if i := strings.Index(lower, strings.ToLower(a.ID())); i >= 0 && (bestIdx < 0 || i < bestIdx) {
			best, bestIdx = a.ID(), i
		}
	}
	return best, bestIdx >= 0
}
