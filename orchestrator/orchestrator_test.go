package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentgroup/agent"
	"github.com/hupe1980/agentgroup/core"
	"github.com/hupe1980/agentgroup/internal/testutil"
	"github.com/hupe1980/agentgroup/metrics"
	"github.com/hupe1980/agentgroup/model"
	"github.com/hupe1980/agentgroup/session"
	"github.com/hupe1980/agentgroup/tool"
)

func start(t *testing.T, o *Orchestrator, agents []agent.Agent, cfg Config) *Session {
	t.Helper()
	s, err := o.StartSession(agents, cfg)
	require.NoError(t, err)
	require.NoError(t, s.SubmitUserMessage(context.Background(), "create a slogan for a new electric car"))
	return s
}

func TestSession_AllowedAgentApprovesOnThirdTurn(t *testing.T) {
	a := testutil.ScriptedAgent("A", "not yet", "closer", "approved")
	b := testutil.ScriptedAgent("B", "draft")

	s := start(t, New(), []agent.Agent{a, b}, Config{
		MaxIterations:      10,
		AllowedTerminators: []string{"A"},
	})

	msgs, err := s.RunUntilComplete(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, s.TurnCount())
	assert.Equal(t, core.StatusCompleted, s.Status())
	assert.True(t, s.IsComplete())
	assert.Equal(t, "termination strategy satisfied", s.Reason())

	require.Len(t, msgs, 5)
	authors := make([]string, 0, len(msgs))
	for _, m := range msgs {
		authors = append(authors, m.Author)
	}
	assert.Equal(t, []string{"A", "B", "A", "B", "A"}, authors)
	assert.Equal(t, "approved", msgs[4].Content)
	assert.Len(t, s.History(), 6)
}

func TestSession_NonTerminatorApprovalIsIgnored(t *testing.T) {
	a := testutil.ScriptedAgent("A", "needs work")
	b := testutil.ScriptedAgent("B", "I approve this")

	s := start(t, New(), []agent.Agent{a, b}, Config{
		MaxIterations:      6,
		AllowedTerminators: []string{"A"},
	})

	_, err := s.RunUntilComplete(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 6, s.TurnCount())
	assert.Equal(t, core.StatusCompleted, s.Status())
	assert.Contains(t, s.Reason(), "maximum iterations")
}

func TestSession_TurnCountNeverExceedsCeiling(t *testing.T) {
	for _, maxIter := range []int{1, 2, 3, 7} {
		a := testutil.ScriptedAgent("A", "hmm")
		b := testutil.ScriptedAgent("B", "still thinking")

		s := start(t, New(), []agent.Agent{a, b}, Config{MaxIterations: maxIter})
		_, err := s.RunUntilComplete(context.Background())
		require.NoError(t, err)

		assert.Equal(t, maxIter, s.TurnCount(), "max %d", maxIter)
		assert.Equal(t, core.StatusCompleted, s.Status())
	}
}

func TestSession_DefaultCeiling(t *testing.T) {
	s := start(t, New(), []agent.Agent{testutil.ScriptedAgent("A", "no")}, Config{})

	_, err := s.RunUntilComplete(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, s.TurnCount())
	assert.Equal(t, 10, s.Config().MaxIterations)
}

func TestSession_CapabilityViolationKeepsRunning(t *testing.T) {
	reg, calls := testutil.GitHubRegistry(t)
	caps := testutil.MustSubset(t, reg, "issueReader", "get_issue", "list_issues")

	var rec agent.ToolInvocationRecord
	x := agent.NewFuncAgent("X", func(ctx context.Context, exec *agent.ExecutionContext, _ []core.Message) (*agent.Turn, error) {
		turn := &agent.Turn{}
		r, err := exec.Call(ctx, turn, "create_branch", map[string]any{"branch": "fix-1"})
		rec = r
		return turn, err
	}, func(o *agent.FuncAgentOptions) { o.Capabilities = caps })

	y := testutil.ScriptedAgent("Y", "looking")

	s := start(t, New(), []agent.Agent{x, y}, Config{MaxIterations: 10})
	before := len(s.History())

	msgs, err := s.Step(context.Background())
	require.NoError(t, err)

	assert.Equal(t, core.StatusRunning, s.Status())
	assert.Equal(t, 1, s.TurnCount())
	require.Len(t, msgs, 1)
	assert.Len(t, s.History(), before+1)

	require.NotNil(t, msgs[0].ToolResult)
	assert.Equal(t, tool.CodeCapabilityViolation, msgs[0].ToolResult.Code)
	assert.Equal(t, "create_branch", msgs[0].ToolResult.Name)
	assert.True(t, rec.Violation)
	assert.Empty(t, calls.Calls())
}

func TestSession_CompletedSessionIsFrozen(t *testing.T) {
	s := start(t, New(), []agent.Agent{testutil.ScriptedAgent("A", "approve")}, Config{})

	_, err := s.RunUntilComplete(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, s.TurnCount())

	n := len(s.History())

	_, err = s.Step(context.Background())
	assert.ErrorIs(t, err, core.ErrSessionComplete)
	assert.ErrorIs(t, s.SubmitUserMessage(context.Background(), "one more"), core.ErrSessionComplete)

	msgs, err := s.RunUntilComplete(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, msgs)

	assert.Len(t, s.History(), n)
	assert.Equal(t, 1, s.TurnCount())
	assert.True(t, s.IsComplete())
}

func TestSession_CancelledTurnAppendsNothing(t *testing.T) {
	var blocked atomic.Bool
	slow := agent.NewFuncAgent("Slow", func(ctx context.Context, exec *agent.ExecutionContext, _ []core.Message) (*agent.Turn, error) {
		if blocked.CompareAndSwap(false, true) {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		turn := &agent.Turn{}
		turn.Say(exec.AgentID(), "finally")
		return turn, nil
	})
	other := testutil.ScriptedAgent("Other", "hi")

	s := start(t, New(), []agent.Agent{slow, other}, Config{})
	n := len(s.History())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := s.Step(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Len(t, s.History(), n)
	assert.Equal(t, 0, s.TurnCount())
	assert.Equal(t, core.StatusRunning, s.Status())

	msgs, err := s.Step(context.Background())
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Slow", msgs[0].Author)
	assert.Equal(t, 1, s.TurnCount())
}

func TestSession_FatalAgentErrorAborts(t *testing.T) {
	boom := errors.New("connection refused")
	broken := agent.NewModelAgent("Broken", model.NewScriptedModel("scripted", model.Fail(boom)))
	other := testutil.NewCountingAgent(testutil.ScriptedAgent("Other", "hi"))

	s := start(t, New(), []agent.Agent{broken, other}, Config{})
	n := len(s.History())

	_, err := s.RunUntilComplete(context.Background())
	require.ErrorIs(t, err, core.ErrFatalAgent)
	require.ErrorIs(t, err, boom)

	var fatal *core.FatalAgentError
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, "Broken", fatal.Agent)

	assert.Equal(t, core.StatusAborted, s.Status())
	assert.Contains(t, s.Reason(), "connection refused")
	assert.Len(t, s.History(), n)
	assert.Equal(t, 1, s.TurnCount())
	assert.Equal(t, 0, other.Calls())

	_, err = s.Step(context.Background())
	assert.ErrorIs(t, err, core.ErrSessionAborted)
	assert.ErrorIs(t, s.SubmitUserMessage(context.Background(), "retry"), core.ErrSessionAborted)
}

func TestSession_StepBeforeUserInput(t *testing.T) {
	s, err := New().StartSession([]agent.Agent{testutil.ScriptedAgent("A", "x")}, Config{})
	require.NoError(t, err)

	assert.Equal(t, core.StatusIdle, s.Status())
	_, err = s.Step(context.Background())
	assert.ErrorIs(t, err, core.ErrSessionNotStarted)
}

func TestStartSession_Validation(t *testing.T) {
	o := New()
	a := testutil.ScriptedAgent("A", "x")

	_, err := o.StartSession(nil, Config{})
	assert.ErrorIs(t, err, core.ErrNoAgents)

	_, err = o.StartSession([]agent.Agent{a, testutil.ScriptedAgent("A", "y")}, Config{})
	assert.ErrorIs(t, err, core.ErrDuplicateAgent)

	_, err = o.StartSession([]agent.Agent{a}, Config{AllowedTerminators: []string{"Ghost"}})
	assert.ErrorIs(t, err, core.ErrUnknownAgent)
}

func TestOrchestrator_TracksLiveSessions(t *testing.T) {
	o := New()
	s := start(t, o, []agent.Agent{testutil.ScriptedAgent("A", "approve")}, Config{})

	got, ok := o.Session(s.ID())
	require.True(t, ok)
	assert.Same(t, s, got)
	assert.Equal(t, 1, o.ActiveSessions())

	_, err := s.RunUntilComplete(context.Background())
	require.NoError(t, err)

	_, ok = o.Session(s.ID())
	assert.False(t, ok)
	assert.Equal(t, 0, o.ActiveSessions())
}

func TestSession_RunStreamsMessages(t *testing.T) {
	a := testutil.ScriptedAgent("ArtDirector", "make it bolder", "approved")
	b := testutil.ScriptedAgent("CopyWriter", "Drive the future")

	s := start(t, New(), []agent.Agent{a, b}, Config{AllowedTerminators: []string{"ArtDirector"}})

	msgs, errs := s.Run(context.Background())
	var got []string
	for m := range msgs {
		got = append(got, m.Content)
	}
	require.NoError(t, <-errs)

	assert.Equal(t, []string{"make it bolder", "Drive the future", "approved"}, got)
	assert.Equal(t, core.StatusCompleted, s.Status())
}

func TestSession_RunReportsFatalError(t *testing.T) {
	broken := agent.NewModelAgent("Broken", model.NewScriptedModel("scripted", model.Fail(errors.New("down"))))
	s := start(t, New(), []agent.Agent{broken}, Config{})

	msgs, errs := s.Run(context.Background())
	for range msgs {
	}
	assert.ErrorIs(t, <-errs, core.ErrFatalAgent)
}

func TestSession_PersistsEveryMessage(t *testing.T) {
	store := session.NewInMemoryStore()
	o := New(func(o *Options) { o.Store = store })

	s := start(t, o, []agent.Agent{
		testutil.ScriptedAgent("A", "first", "approve"),
		testutil.ScriptedAgent("B", "second"),
	}, Config{})

	_, err := s.RunUntilComplete(context.Background())
	require.NoError(t, err)

	stored, err := store.Load(context.Background(), s.ID())
	require.NoError(t, err)
	assert.Equal(t, s.History(), stored)
}

func TestSession_RecordsMetrics(t *testing.T) {
	c := metrics.NewCollectors(prometheus.NewRegistry())
	o := New(func(o *Options) { o.Metrics = c })

	s := start(t, o, []agent.Agent{testutil.ScriptedAgent("A", "approve")}, Config{})
	_, err := s.RunUntilComplete(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1.0, promtest.ToFloat64(c.Turns.WithLabelValues("A", "success")))
	assert.Equal(t, 1.0, promtest.ToFloat64(c.Sessions.WithLabelValues("completed")))
}

func TestOrchestrator_DefaultConfigApplies(t *testing.T) {
	o := New(func(o *Options) {
		o.Config = Config{MaxIterations: 3}
	})

	s := start(t, o, []agent.Agent{testutil.ScriptedAgent("A", "no")}, Config{})
	_, err := s.RunUntilComplete(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, s.TurnCount())
}

func TestSession_BackendTimeoutAbortsWhileContextLive(t *testing.T) {
	timeout := fmt.Errorf("POST /chat/completions: %w", context.DeadlineExceeded)
	broken := agent.NewModelAgent("Broken", model.NewScriptedModel("scripted", model.Fail(timeout), model.Reply("never")))
	other := testutil.NewCountingAgent(testutil.ScriptedAgent("Other", "hi"))

	s := start(t, New(), []agent.Agent{broken, other}, Config{})

	_, err := s.Step(context.Background())
	require.ErrorIs(t, err, core.ErrFatalAgent)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	assert.Equal(t, core.StatusAborted, s.Status())
	assert.Equal(t, 1, s.TurnCount())

	_, err = s.Step(context.Background())
	assert.ErrorIs(t, err, core.ErrSessionAborted)
	assert.Equal(t, 1, s.TurnCount())
	assert.Equal(t, 0, other.Calls())
}

func TestSession_SelectorReturningNilAgent(t *testing.T) {
	nothing := SelectorFunc(func(context.Context, []agent.Agent, []core.Message, int) (agent.Agent, error) {
		return nil, nil
	})
	s := start(t, New(), []agent.Agent{testutil.ScriptedAgent("A", "x")}, Config{Selector: nothing})
	n := len(s.History())

	_, err := s.Step(context.Background())
	require.ErrorIs(t, err, core.ErrUnknownAgent)
	assert.Equal(t, core.StatusRunning, s.Status())
	assert.Equal(t, 0, s.TurnCount())
	assert.Len(t, s.History(), n)
}

func TestSession_AgentPanicAborts(t *testing.T) {
	panicky := agent.NewFuncAgent("Panicky", func(context.Context, *agent.ExecutionContext, []core.Message) (*agent.Turn, error) {
		panic("nil map write")
	})
	s := start(t, New(), []agent.Agent{panicky}, Config{})
	n := len(s.History())

	var err error
	require.NotPanics(t, func() { _, err = s.Step(context.Background()) })
	require.ErrorIs(t, err, core.ErrFatalAgent)

	var fatal *core.FatalAgentError
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, "Panicky", fatal.Agent)
	assert.Contains(t, err.Error(), "nil map write")

	assert.Equal(t, core.StatusAborted, s.Status())
	assert.Equal(t, 1, s.TurnCount())
	assert.Len(t, s.History(), n)
}

func TestOrchestrator_NoStoreByDefault(t *testing.T) {
	o := New()
	assert.Nil(t, o.Store())

	s := start(t, o, []agent.Agent{testutil.ScriptedAgent("A", "approve")}, Config{})
	_, err := s.RunUntilComplete(context.Background())
	require.NoError(t, err)
	assert.Len(t, s.History(), 2)
}
