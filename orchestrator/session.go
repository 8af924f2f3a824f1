package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/hupe1980/agentgroup/agent"
	"github.com/hupe1980/agentgroup/core"
	"github.com/hupe1980/agentgroup/logging"
	"github.com/hupe1980/agentgroup/metrics"
	"github.com/hupe1980/agentgroup/session"
	"github.com/hupe1980/agentgroup/termination"
)

// Session is one group chat: a fixed set of agents taking turns on a shared
// History until the termination strategy or the iteration ceiling ends it.
type Session struct {
	id      string
	agents  []agent.Agent
	byID    map[string]agent.Agent
	cfg     Config
	history *core.History
	state   *termination.State
	store   session.Store
	logger  logging.Logger
	metrics *metrics.Collectors

	// turnMu serializes Step so one session is never driven concurrently.
	turnMu sync.Mutex

	mu       sync.RWMutex
	status   core.Status
	reason   string
	fatalErr error

	onClosed func(id string)
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// AgentIDs returns participant ids in scheduling order.
func (s *Session) AgentIDs() []string {
	ids := make([]string, len(s.agents))
	for i, a := range s.agents {
		ids[i] = a.ID()
	}
	return ids
}

// Agent returns a participant by id.
func (s *Session) Agent(id string) (agent.Agent, bool) {
	a, ok := s.byID[id]
	return a, ok
}

// Config returns the resolved session configuration.
func (s *Session) Config() Config { return s.cfg }

// Status returns the lifecycle status.
func (s *Session) Status() core.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Reason explains a terminal status. Empty while the session is live.
func (s *Session) Reason() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reason
}

// Err returns the fatal error of an aborted session.
func (s *Session) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fatalErr
}

// TurnCount returns the number of completed turns.
func (s *Session) TurnCount() int { return s.state.TurnCount() }

// IsComplete reports whether the termination state was reached.
func (s *Session) IsComplete() bool { return s.state.IsComplete() }

// History returns a copy of the conversation so far.
func (s *Session) History() []core.Message { return s.history.Messages() }

// SubmitUserMessage appends caller input. The first submission moves an
// Idle session to Running. Terminal sessions reject input.
func (s *Session) SubmitUserMessage(ctx context.Context, text string) error {
	s.turnMu.Lock()
	defer s.turnMu.Unlock()

	if err := s.closedErr(); err != nil {
		return err
	}

	msg := core.NewUserMessage(text)
	s.history.Append(msg)
	s.persist(ctx, msg)

	s.mu.Lock()
	started := s.status == core.StatusIdle
	s.status = core.StatusRunning
	s.mu.Unlock()

	if started {
		s.logger.Info("session.started", "session.id", s.id)
	}
	s.logger.Debug("session.user.message", "session.id", s.id, "message.id", msg.ID)
	return nil
}

// Step runs one turn: select an agent, let it act, append its messages,
// advance the turn count and evaluate termination. It returns the messages
// the turn appended.
//
// A cancelled turn appends nothing and leaves the turn count unchanged. A
// fatal agent error still counts as a turn; it aborts the session and is
// returned as a *core.FatalAgentError.
func (s *Session) Step(ctx context.Context) ([]core.Message, error) {
	s.turnMu.Lock()
	defer s.turnMu.Unlock()

	if err := s.closedErr(); err != nil {
		return nil, err
	}
	if s.Status() == core.StatusIdle {
		return nil, core.ErrSessionNotStarted
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	turnNo := s.state.TurnCount()
	snapshot := s.history.Messages()

	next, err := s.cfg.Selector.Next(ctx, s.agents, snapshot, turnNo)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.logger.Warn("session.select.error", "session.id", s.id, "error", err)
		return nil, fmt.Errorf("select agent: %w", err)
	}
	if next == nil {
		return nil, fmt.Errorf("%w: selector returned no agent", core.ErrUnknownAgent)
	}
	if _, ok := s.byID[next.ID()]; !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrUnknownAgent, next.ID())
	}

	s.logger.Debug("session.turn.started",
		"session.id", s.id,
		"turn.number", turnNo+1,
		"agent.id", next.ID(),
	)

	start := time.Now()
	turn, err := s.act(ctx, next, snapshot)
	if err != nil {
		return nil, s.failTurn(ctx, next.ID(), err, time.Since(start))
	}
	if turn == nil {
		turn = &agent.Turn{}
	}

	msgs := turn.Messages
	s.history.Append(msgs...)
	s.persist(ctx, msgs...)
	count := s.state.RecordTurn()

	s.metrics.RecordTurn(next.ID(), "success", time.Since(start))
	s.logger.Info("session.turn.completed",
		"session.id", s.id,
		"turn.number", count,
		"agent.id", next.ID(),
		"turn.messages", len(msgs),
		"turn.tool_calls", len(turn.ToolCalls),
		"turn.duration", time.Since(start),
	)

	s.evaluate(ctx, count)

	out := make([]core.Message, len(msgs))
	for i, m := range msgs {
		out[i] = m.Clone()
	}
	return out, nil
}

// RunUntilComplete steps until the session is Completed or Aborted and
// returns every message appended along the way. The iteration ceiling
// guarantees the loop ends.
func (s *Session) RunUntilComplete(ctx context.Context) ([]core.Message, error) {
	var produced []core.Message
	for {
		switch s.Status() {
		case core.StatusCompleted:
			return produced, nil
		case core.StatusAborted:
			return produced, s.Err()
		}

		msgs, err := s.Step(ctx)
		produced = append(produced, msgs...)
		if err != nil {
			if errors.Is(err, core.ErrSessionComplete) {
				return produced, nil
			}
			return produced, err
		}
	}
}

// Run drives the session in the background and streams each appended
// message. The error channel yields at most one error and both channels are
// closed when the session ends or ctx is done.
func (s *Session) Run(ctx context.Context) (<-chan core.Message, <-chan error) {
	out := make(chan core.Message, 16)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		for !s.Status().Terminal() {
			msgs, err := s.Step(ctx)
			for _, m := range msgs {
				select {
				case out <- m:
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				}
			}
			if err != nil {
				if !errors.Is(err, core.ErrSessionComplete) {
					errCh <- err
				}
				return
			}
		}
		if err := s.Err(); err != nil {
			errCh <- err
		}
	}()

	return out, errCh
}

// act runs one agent turn. A panic in the agent becomes a fatal error.
func (s *Session) act(ctx context.Context, a agent.Agent, snapshot []core.Message) (turn *agent.Turn, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("session.turn.panic", "session.id", s.id, "agent.id", a.ID(), "recover", r, "stack", string(debug.Stack()))
			turn = nil
			err = &core.FatalAgentError{Agent: a.ID(), Err: fmt.Errorf("panic recovered: %v", r)}
		}
	}()
	return a.Act(ctx, snapshot)
}

// failTurn classifies a failed Act. Only the session's own context decides
// cancellation; a backend error wrapping a context error is fatal.
func (s *Session) failTurn(ctx context.Context, agentID string, err error, elapsed time.Duration) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		s.metrics.RecordTurn(agentID, "cancelled", elapsed)
		s.logger.Info("session.turn.cancelled", "session.id", s.id, "agent.id", agentID, "error", err)
		return ctxErr
	}

	var fatal *core.FatalAgentError
	if !errors.As(err, &fatal) {
		fatal = &core.FatalAgentError{Agent: agentID, Err: err}
	}

	count := s.state.RecordTurn()
	s.metrics.RecordTurn(agentID, "fatal", elapsed)
	s.close(core.StatusAborted, fatal.Error(), fatal)
	s.logger.Error("session.aborted",
		"session.id", s.id,
		"turn.number", count,
		"agent.id", agentID,
		"error", err,
	)
	return fatal
}

func (s *Session) evaluate(ctx context.Context, count int) {
	done, err := s.cfg.Strategy.Evaluate(ctx, s.history.Messages(), count)
	if err != nil {
		s.logger.Warn("session.termination.error", "session.id", s.id, "error", err)
		done = false
	}

	reason := "termination strategy satisfied"
	if count >= s.cfg.MaxIterations {
		done = true
		reason = fmt.Sprintf("maximum iterations reached (%d)", s.cfg.MaxIterations)
	}

	if s.state.Observe(done) {
		s.close(core.StatusCompleted, reason, nil)
		s.logger.Info("session.completed",
			"session.id", s.id,
			"session.turns", count,
			"session.reason", reason,
		)
	}
}

func (s *Session) close(status core.Status, reason string, err error) {
	s.mu.Lock()
	s.status = status
	s.reason = reason
	s.fatalErr = err
	s.mu.Unlock()

	s.metrics.RecordSession(status.String())
	if s.onClosed != nil {
		s.onClosed(s.id)
	}
}

func (s *Session) closedErr() error {
	switch s.Status() {
	case core.StatusCompleted:
		return core.ErrSessionComplete
	case core.StatusAborted:
		return core.ErrSessionAborted
	}
	return nil
}

// persist mirrors msgs to the store. Failures are logged only; History is
// the source of truth.
func (s *Session) persist(ctx context.Context, msgs ...core.Message) {
	if len(msgs) == 0 || s.store == nil {
		return
	}
	if err := s.store.Append(context.WithoutCancel(ctx), s.id, msgs...); err != nil {
		s.logger.Error("session.store.error", "session.id", s.id, "error", err)
	}
}
