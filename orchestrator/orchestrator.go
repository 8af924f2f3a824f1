package orchestrator

import (
	"fmt"
	"sync"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/hupe1980/agentgroup/agent"
	"github.com/hupe1980/agentgroup/core"
	"github.com/hupe1980/agentgroup/logging"
	"github.com/hupe1980/agentgroup/metrics"
	"github.com/hupe1980/agentgroup/session"
	"github.com/hupe1980/agentgroup/termination"
)

// Config describes how one session is scheduled and terminated.
type Config struct {
	// MaxIterations is the hard turn ceiling. Values <= 0 use
	// termination.DefaultMaxIterations.
	MaxIterations int

	// AllowedTerminators lists the agents whose content may complete the
	// session. Only used when Strategy is nil. Empty means any agent.
	AllowedTerminators []string

	// Strategy decides completion after each turn. Defaults to
	// termination.NewApproval over AllowedTerminators and MaxIterations.
	// The MaxIterations ceiling is enforced regardless of the strategy.
	Strategy termination.Strategy

	// Selector picks the next agent. Defaults to RoundRobin.
	Selector Selector
}

// Options configures an Orchestrator.
type Options struct {
	// Config is the default applied to sessions started with a zero Config.
	Config Config

	// Store mirrors every appended message. Nil keeps histories in memory
	// only, for as long as the caller holds the session.
	Store session.Store

	// Logger defaults to logging.NoOpLogger.
	Logger logging.Logger

	// Metrics is optional.
	Metrics *metrics.Collectors
}

// Orchestrator creates and tracks group chat sessions. It is safe for
// concurrent use.
type Orchestrator struct {
	defaults Config
	store    session.Store
	logger   logging.Logger
	metrics  *metrics.Collectors

	mu       sync.RWMutex
	sessions map[string]*Session
}

// New creates an orchestrator without persistence and with no-op logging
// unless configured otherwise.
func New(optFns ...func(o *Options)) *Orchestrator {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Orchestrator{
		defaults: opts.Config,
		store:    opts.Store,
		logger:   logging.OrNoOp(opts.Logger),
		metrics:  opts.Metrics,
		sessions: make(map[string]*Session),
	}
}

// Store returns the history store sessions persist to, or nil.
func (o *Orchestrator) Store() session.Store { return o.store }

// StartSession validates the participants and creates an Idle session.
// Agent order is the round-robin order.
func (o *Orchestrator) StartSession(agents []agent.Agent, cfg Config) (*Session, error) {
	if len(agents) == 0 {
		return nil, core.ErrNoAgents
	}

	byID := make(map[string]agent.Agent, len(agents))
	for _, a := range agents {
		if a == nil {
			return nil, fmt.Errorf("%w: nil agent", core.ErrUnknownAgent)
		}
		if _, dup := byID[a.ID()]; dup {
			return nil, fmt.Errorf("%w: %s", core.ErrDuplicateAgent, a.ID())
		}
		byID[a.ID()] = a
	}

	cfg = o.resolveConfig(cfg)
	for _, id := range cfg.AllowedTerminators {
		if _, ok := byID[id]; !ok {
			return nil, fmt.Errorf("%w: terminator %s is not a participant", core.ErrUnknownAgent, id)
		}
	}

	id, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session id: %w", err)
	}

	s := &Session{
		id:       id,
		agents:   append([]agent.Agent(nil), agents...),
		byID:     byID,
		cfg:      cfg,
		history:  core.NewHistory(),
		state:    termination.NewState(cfg.AllowedTerminators),
		store:    o.store,
		logger:   o.logger,
		metrics:  o.metrics,
		status:   core.StatusIdle,
		onClosed: o.forget,
	}

	o.mu.Lock()
	o.sessions[id] = s
	o.mu.Unlock()

	o.logger.Info("session.created",
		"session.id", id,
		"session.agents", s.AgentIDs(),
		"session.max_iterations", cfg.MaxIterations,
		"session.terminators", cfg.AllowedTerminators,
	)

	return s, nil
}

// Session returns a live (non-terminal) session by id.
func (o *Orchestrator) Session(id string) (*Session, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	s, ok := o.sessions[id]
	return s, ok
}

// ActiveSessions returns the number of sessions that have not reached a
// terminal status.
func (o *Orchestrator) ActiveSessions() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.sessions)
}

func (o *Orchestrator) forget(id string) {
	o.mu.Lock()
	delete(o.sessions, id)
	o.mu.Unlock()
}

func (o *Orchestrator) resolveConfig(cfg Config) Config {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = o.defaults.MaxIterations
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = termination.DefaultMaxIterations
	}
	if cfg.AllowedTerminators == nil {
		cfg.AllowedTerminators = o.defaults.AllowedTerminators
	}
	if cfg.Selector == nil {
		cfg.Selector = o.defaults.Selector
	}
	if cfg.Selector == nil {
		cfg.Selector = RoundRobin()
	}
	if cfg.Strategy == nil {
		cfg.Strategy = o.defaults.Strategy
	}
	if cfg.Strategy == nil {
		maxIter := cfg.MaxIterations
		cfg.Strategy = termination.NewApproval(func(ao *termination.ApprovalOptions) {
			ao.Agents = cfg.AllowedTerminators
			ao.MaxIterations = maxIter
		})
	}
	if t, ok := cfg.Strategy.(interface{ AllowedTerminators() []string }); ok && len(cfg.AllowedTerminators) == 0 {
		cfg.AllowedTerminators = t.AllowedTerminators()
	}
	cfg.AllowedTerminators = append([]string(nil), cfg.AllowedTerminators...)
	return cfg
}
