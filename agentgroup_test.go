package agentgroup

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentgroup/agent"
	"github.com/hupe1980/agentgroup/core"
	"github.com/hupe1980/agentgroup/internal/testutil"
	"github.com/hupe1980/agentgroup/orchestrator"
	"github.com/hupe1980/agentgroup/session"
)

func TestAgentGroup_RunUntilComplete(t *testing.T) {
	store := session.NewInMemoryStore()
	g := New(func(o *Options) { o.Store = store })

	s, err := g.StartSession([]agent.Agent{
		testutil.ScriptedAgent("ArtDirector", "Too clever by half.", "Approved."),
		testutil.ScriptedAgent("CopyWriter", "Egg cartons. Folded into continents."),
	}, orchestrator.Config{MaxIterations: 10, AllowedTerminators: []string{"ArtDirector"}})
	require.NoError(t, err)

	require.NoError(t, g.SubmitUserMessage(context.Background(), s, "concept: maps made out of egg cartons."))
	msgs, err := g.RunUntilComplete(context.Background(), s)
	require.NoError(t, err)

	assert.Len(t, msgs, 3)
	assert.Equal(t, core.StatusCompleted, s.Status())

	stored, err := store.Load(context.Background(), s.ID())
	require.NoError(t, err)
	assert.Len(t, stored, 4)
}

func TestAgentGroup_Chat(t *testing.T) {
	g := New(func(o *Options) { o.Config = orchestrator.Config{MaxIterations: 2} })

	s, err := g.StartSession([]agent.Agent{testutil.ScriptedAgent("Solo", "thinking", "still thinking")}, orchestrator.Config{})
	require.NoError(t, err)

	msgs, err := g.Chat(context.Background(), s, "hello")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "still thinking", msgs[1].Content)
	assert.Equal(t, 2, s.TurnCount())

	_, err = g.Chat(context.Background(), s, "again")
	assert.ErrorIs(t, err, core.ErrSessionComplete)
}

func TestAgentGroup_Stream(t *testing.T) {
	g := New()
	s, err := g.StartSession([]agent.Agent{testutil.ScriptedAgent("A", "approve")}, orchestrator.Config{})
	require.NoError(t, err)
	require.NoError(t, g.SubmitUserMessage(context.Background(), s, "go"))

	msgs, errs := g.Stream(context.Background(), s)
	var n int
	for range msgs {
		n++
	}
	require.NoError(t, <-errs)
	assert.Equal(t, 1, n)
	assert.NotNil(t, g.Orchestrator())
}
