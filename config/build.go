package config

import (
	"fmt"
	"time"

	"github.com/hupe1980/agentgroup/agent"
	"github.com/hupe1980/agentgroup/interceptor"
	"github.com/hupe1980/agentgroup/internal/util"
	"github.com/hupe1980/agentgroup/logging"
	"github.com/hupe1980/agentgroup/metrics"
	"github.com/hupe1980/agentgroup/model"
	"github.com/hupe1980/agentgroup/orchestrator"
	"github.com/hupe1980/agentgroup/termination"
	"github.com/hupe1980/agentgroup/tool"
)

// BuildOptions supplies the runtime collaborators of a group.
type BuildOptions struct {
	// Registry holds the tools agents may reference. Nil means no tools.
	Registry *tool.Registry

	// Model backs every agent. Required.
	Model model.Model

	// RouterModel backs the routing selector and the classifier predicate.
	// Defaults to Model.
	RouterModel model.Model

	Interceptors *interceptor.Chain
	Logger       logging.Logger
	Metrics      *metrics.Collectors

	Stream    bool
	OnPartial func(agentID string, chunk model.Response)

	ToolTimeout time.Duration

	// DelegateTimeout bounds agent-backed tools. Zero leaves them to ctx.
	DelegateTimeout time.Duration

	// MaxIterations applies when the group file sets none.
	MaxIterations int
}

// Team is a built group: every agent, the participants in turn order, and
// the orchestrator configuration.
type Team struct {
	Name          string
	TurnsPerInput int
	Agents        map[string]agent.Agent
	Participants  []agent.Agent
	Config        orchestrator.Config
}

// Build instantiates the agents of g. Capability sets are carved out of the
// registry; a tool name the registry lacks fails with core.ErrUnknownTool
// before any session exists. Delegates are built first and exposed to their
// callers as agent-backed tools.
func Build(g *Group, optFns ...func(o *BuildOptions)) (*Team, error) {
	opts := BuildOptions{ToolTimeout: 15 * time.Second}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Model == nil {
		return nil, fmt.Errorf("%w: a model is required", ErrInvalidConfig)
	}
	if opts.RouterModel == nil {
		opts.RouterModel = opts.Model
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}

	base := opts.Registry
	if base == nil {
		base = tool.MustRegistry()
	}

	order, err := g.delegateOrder()
	if err != nil {
		return nil, err
	}

	agents := make(map[string]agent.Agent, len(order))
	for _, id := range order {
		spec, _ := g.Agent(id)
		a, err := buildAgent(g, spec, base, agents, opts)
		if err != nil {
			return nil, fmt.Errorf("agent %s: %w", id, err)
		}
		agents[id] = a
	}

	ids := g.ParticipantIDs()
	participants := make([]agent.Agent, 0, len(ids))
	for _, id := range ids {
		participants = append(participants, agents[id])
	}

	cfg, err := g.orchestratorConfig(opts)
	if err != nil {
		return nil, err
	}

	return &Team{
		Name:          g.Name,
		TurnsPerInput: g.TurnsPerInput,
		Agents:        agents,
		Participants:  participants,
		Config:        cfg,
	}, nil
}

func buildAgent(g *Group, spec AgentSpec, base *tool.Registry, built map[string]agent.Agent, opts BuildOptions) (agent.Agent, error) {
	vars := g.Vars
	if vars == nil {
		vars = map[string]any{}
	}
	instructions, err := util.RenderTemplate(spec.Instructions, map[string]any{
		"ID":    spec.ID,
		"Group": g.Name,
		"Vars":  vars,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: instructions: %v", ErrInvalidConfig, err)
	}

	reg := base
	names := append([]string(nil), spec.Tools...)
	if len(spec.Delegates) > 0 {
		delegates := make([]tool.Tool, 0, len(spec.Delegates))
		for _, d := range spec.Delegates {
			delegates = append(delegates, agent.AsTool(built[d], ""))
		}
		if reg, err = base.With(delegates...); err != nil {
			return nil, err
		}
		names = append(names, spec.Delegates...)
	}

	setName := spec.CapabilitySet
	if setName == "" {
		setName = spec.ID
	}
	caps, err := reg.Subset(setName, names...)
	if err != nil {
		return nil, err
	}

	return agent.NewModelAgent(spec.ID, opts.Model, func(o *agent.ModelAgentOptions) {
		o.Description = spec.Description
		o.Instructions = instructions
		o.Capabilities = caps
		o.Interceptors = opts.Interceptors
		o.Logger = opts.Logger
		o.Metrics = opts.Metrics
		o.EnableStreaming = opts.Stream
		o.OnPartial = opts.OnPartial
		o.ToolTimeout = opts.ToolTimeout
		o.DelegateTimeout = opts.DelegateTimeout
		if spec.MaxToolRounds > 0 {
			o.MaxToolRounds = spec.MaxToolRounds
		}
		o.MaxHistoryMessages = spec.MaxHistoryMessages
	}), nil
}

func (g *Group) orchestratorConfig(opts BuildOptions) (orchestrator.Config, error) {
	maxIter := g.MaxIterations
	if maxIter <= 0 {
		maxIter = opts.MaxIterations
	}
	if maxIter <= 0 {
		maxIter = termination.DefaultMaxIterations
	}

	var predicate termination.Predicate
	switch g.Termination.Predicate {
	case "", PredicateContains:
		token := g.Termination.Token
		if token == "" {
			token = "approve"
		}
		predicate = termination.ContainsToken(token)
	case PredicateVerdict:
		predicate = termination.Verdict(g.Termination.Verdicts...)
	case PredicateClassifier:
		predicate = termination.Classifier(opts.RouterModel)
	default:
		return orchestrator.Config{}, fmt.Errorf("%w: unknown termination predicate %q", ErrInvalidConfig, g.Termination.Predicate)
	}

	terminators := append([]string(nil), g.Terminators...)
	strategy := termination.NewApproval(func(o *termination.ApprovalOptions) {
		o.Agents = terminators
		o.MaxIterations = maxIter
		o.Predicate = predicate
	})

	var selector orchestrator.Selector = orchestrator.RoundRobin()
	if g.Selection == SelectRouting {
		selector = orchestrator.NewRouting(orchestrator.NewModelRouter(opts.RouterModel), func(o *orchestrator.RoutingOptions) {
			o.Fallback = orchestrator.RoundRobin()
		})
	}

	return orchestrator.Config{
		MaxIterations:      maxIter,
		AllowedTerminators: terminators,
		Strategy:           strategy,
		Selector:           selector,
	}, nil
}
