package termination

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentgroup/core"
	"github.com/hupe1980/agentgroup/model"
)

func msg(author, text string) core.Message { return core.NewAssistantMessage(author, text) }

func TestApproval_OnlyAllowedAgentsTerminate(t *testing.T) {
	s := NewApproval(func(o *ApprovalOptions) { o.Agents = []string{"ArtDirector"} })

	tests := []struct {
		name    string
		history []core.Message
		want    bool
	}{
		{"empty history", nil, false},
		{"user says approve", []core.Message{core.NewUserMessage("I approve")}, false},
		{"writer says approved", []core.Message{msg("CopyWriter", "Approved, ship it!")}, false},
		{"director asks for changes", []core.Message{msg("ArtDirector", "Too long, refine.")}, false},
		{"director approves", []core.Message{msg("ArtDirector", "This is APPROVED.")}, true},
		{
			"director approved earlier, writer spoke last",
			[]core.Message{msg("ArtDirector", "approve"), msg("CopyWriter", "thanks")},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			done, err := s.Evaluate(context.Background(), tt.history, 1)
			require.NoError(t, err)
			assert.Equal(t, tt.want, done)
		})
	}
}

func TestApproval_IterationCeiling(t *testing.T) {
	s := NewApproval(func(o *ApprovalOptions) {
		o.Agents = []string{"A"}
		o.MaxIterations = 3
	})

	done, err := s.Evaluate(context.Background(), nil, 2)
	require.NoError(t, err)
	assert.False(t, done)

	done, err = s.Evaluate(context.Background(), nil, 3)
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, 3, s.MaxIterations())
	assert.Equal(t, []string{"A"}, s.AllowedTerminators())
}

func TestApproval_Defaults(t *testing.T) {
	s := NewApproval(func(o *ApprovalOptions) { o.MaxIterations = -1 })
	assert.Equal(t, DefaultMaxIterations, s.MaxIterations())
	assert.True(t, s.Allows("anyone"))

	done, err := s.Evaluate(context.Background(), []core.Message{msg("anyone", "approve")}, 0)
	require.NoError(t, err)
	assert.True(t, done)
}

func TestContainsToken_IsSubstringMatch(t *testing.T) {
	p := ContainsToken("approve")
	ok, _ := p.Match(context.Background(), msg("A", "I disapprove"))
	assert.True(t, ok, "substring semantics are kept on purpose")
}

func TestVerdict(t *testing.T) {
	p := Verdict()
	cases := map[string]bool{
		`{"verdict": "approved"}`:                       true,
		`Looks good. {"verdict":"APPROVED","notes":""}`: true,
		`{"verdict": "rejected"}`:                       false,
		`I approve`:                                     false,
		`{not json}`:                                    false,
	}
	for content, want := range cases {
		got, err := p.Match(context.Background(), msg("A", content))
		require.NoError(t, err)
		assert.Equal(t, want, got, content)
	}

	custom := Verdict("lgtm", "ship")
	got, _ := custom.Match(context.Background(), msg("A", `{"verdict":"Ship"}`))
	assert.True(t, got)
}

func TestClassifier(t *testing.T) {
	m := model.NewScriptedModel("judge", model.Reply("Yes."), model.Reply("no"), model.Fail(errors.New("down")))
	p := Classifier(m)

	ok, err := p.Match(context.Background(), msg("A", "ship it"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.Match(context.Background(), msg("A", "needs work"))
	require.NoError(t, err)
	assert.False(t, ok)

	s := NewApproval(func(o *ApprovalOptions) { o.Predicate = p })
	_, err = s.Evaluate(context.Background(), []core.Message{msg("A", "?")}, 0)
	assert.Error(t, err)
}

func TestAnyOf(t *testing.T) {
	s := AnyOf(MaxIterations(5), NewApproval(func(o *ApprovalOptions) { o.Agents = []string{"A"} }))

	done, _ := s.Evaluate(context.Background(), []core.Message{msg("B", "approve")}, 1)
	assert.False(t, done)
	done, _ = s.Evaluate(context.Background(), nil, 5)
	assert.True(t, done)
	done, _ = s.Evaluate(context.Background(), []core.Message{msg("A", "approve")}, 1)
	assert.True(t, done)
}

func TestState_Monotone(t *testing.T) {
	st := NewState([]string{"A"})
	assert.Equal(t, 1, st.RecordTurn())
	assert.False(t, st.Observe(false))
	assert.True(t, st.Observe(true))
	assert.True(t, st.Observe(false), "completion never reverts")
	assert.True(t, st.IsComplete())
	assert.Equal(t, 1, st.TurnCount())
	assert.Equal(t, []string{"A"}, st.AllowedTerminators())
}
