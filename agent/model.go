package agent

import (
	"context"
	"time"

	"github.com/hupe1980/agentgroup/core"
	"github.com/hupe1980/agentgroup/interceptor"
	"github.com/hupe1980/agentgroup/logging"
	"github.com/hupe1980/agentgroup/metrics"
	"github.com/hupe1980/agentgroup/model"
	"github.com/hupe1980/agentgroup/tool"
)

// ModelAgentOptions configures a ModelAgent instance.
//
// Use functional options with NewModelAgent to override defaults.
type ModelAgentOptions struct {
	Description        string
	Instructions       string
	Capabilities       *tool.CapabilitySet
	Interceptors       *interceptor.Chain
	Logger             logging.Logger
	Metrics            *metrics.Collectors
	EnableStreaming    bool
	OnPartial          func(agentID string, chunk model.Response)
	ToolTimeout        time.Duration
	DelegateTimeout    time.Duration // 0 bounds delegated agents by ctx only
	MaxToolRounds      int // tool rounds per turn before tools are withheld; 0 is unlimited
	MaxHistoryMessages int // 0 keeps the whole history
}

// ModelAgent drives a language-model backend. On each turn it projects the
// shared history into its own point of view, generates, executes requested
// tools through its ExecutionContext, and repeats until the backend answers
// in text or the tool round budget is spent.
type ModelAgent struct {
	BaseAgent
	llm                model.Model
	exec               *ExecutionContext
	toolDefs           []model.ToolDefinition
	logger             logging.Logger
	enableStreaming    bool
	onPartial          func(agentID string, chunk model.Response)
	maxToolRounds      int
	maxHistoryMessages int
}

// NewModelAgent creates a model-backed agent with sensible defaults:
// 15-second tool timeout, at most 8 tool rounds per turn, full history.
func NewModelAgent(id string, llm model.Model, optFns ...func(o *ModelAgentOptions)) *ModelAgent {
	opts := ModelAgentOptions{
		Instructions:  "You are " + id + ", a helpful AI assistant.",
		ToolTimeout:   15 * time.Second,
		MaxToolRounds: 8,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	base := NewBaseAgent(id, opts.Description, opts.Instructions, opts.Capabilities)
	logger := logging.OrNoOp(opts.Logger)

	return &ModelAgent{
		BaseAgent: base,
		llm:       llm,
		exec: NewExecutionContext(id, base.Capabilities(), func(o *ExecutionOptions) {
			o.Interceptors = opts.Interceptors
			o.Logger = logger
			o.Metrics = opts.Metrics
			o.ToolTimeout = opts.ToolTimeout
			o.DelegateTimeout = opts.DelegateTimeout
		}),
		toolDefs:           model.ToolDefinitions(base.Capabilities().Definitions()),
		logger:             logger,
		enableStreaming:    opts.EnableStreaming,
		onPartial:          opts.OnPartial,
		maxToolRounds:      opts.MaxToolRounds,
		maxHistoryMessages: opts.MaxHistoryMessages,
	}
}

// Model returns the backend.
func (a *ModelAgent) Model() model.Model { return a.llm }

// Act runs the generate -> tools loop for one turn.
func (a *ModelAgent) Act(ctx context.Context, history []core.Message) (*Turn, error) {
	turn := &Turn{}
	rounds := core.NewCallBudget(a.maxToolRounds)

	for {
		req := model.Request{
			Instructions: a.Instructions(),
			Messages:     a.project(history, turn.Messages),
			Stream:       a.enableStreaming,
		}

		budgetLeft := rounds.Remaining() != 0
		if budgetLeft && len(a.toolDefs) > 0 {
			req.Tools = a.toolDefs
		}

		a.logger.Debug("agent.model.request", "agent", a.ID(), "messages", len(req.Messages), "tools", len(req.Tools))

		resp, err := model.Collect(ctx, a.llm, req, a.partialHandler())
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			a.logger.Error("agent.model.error", "agent", a.ID(), "error", err.Error())
			return nil, &core.FatalAgentError{Agent: a.ID(), Err: err}
		}

		// Calls are dispatched even when no tools were offered; the
		// capability check rejects them.
		if !budgetLeft || len(resp.ToolCalls) == 0 {
			if len(resp.ToolCalls) > 0 {
				a.logger.Warn("agent.tools.withheld", "agent", a.ID(), "requested", len(resp.ToolCalls))
			}
			turn.Say(a.ID(), resp.Content)
			return turn, nil
		}

		_ = rounds.Spend()

		callMsg := core.NewToolCallMessage(a.ID(), resp.Content, resp.ToolCalls)
		turn.Messages = append(turn.Messages, callMsg)

		recs, err := a.exec.InvokeAll(ctx, callMsg.ToolCalls)
		if err != nil {
			return nil, err
		}
		for _, rec := range recs {
			turn.Record(rec)
		}
	}
}

func (a *ModelAgent) partialHandler() func(model.Response) {
	if a.onPartial == nil {
		return nil
	}
	return func(r model.Response) { a.onPartial(a.ID(), r) }
}

// project renders history plus the turn so far from the agent's point of
// view. Peer text becomes user input prefixed with the peer id; peer tool
// traffic is dropped.
func (a *ModelAgent) project(history, pending []core.Message) []core.Message {
	view := make([]core.Message, 0, len(history)+len(pending))

	for _, m := range history {
		switch {
		case m.Author == a.ID():
			view = append(view, m)
		case m.Role == core.RoleUser:
			view = append(view, m)
		case m.Role == core.RoleAssistant && m.Content != "":
			peer := core.NewUserMessage(m.Author + ": " + m.Content)
			peer.ID = m.ID
			peer.Timestamp = m.Timestamp
			view = append(view, peer)
		}
	}

	if a.maxHistoryMessages > 0 && len(view) > a.maxHistoryMessages {
		view = view[len(view)-a.maxHistoryMessages:]
		for len(view) > 0 && view[0].Role == core.RoleTool {
			view = view[1:]
		}
	}

	return append(view, pending...)
}
