package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentgroup/core"
)

var _ Store = (*InMemoryStore)(nil)

func TestInMemoryStore_AppendLoadDelete(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	_, err := s.Load(ctx, "s1")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Append(ctx, "s1", core.NewUserMessage("hello")))
	require.NoError(t, s.Append(ctx, "s1",
		core.NewAssistantMessage("ArtDirector", "draft"),
		core.NewAssistantMessage("CopyWriter", "final"),
	))

	msgs, err := s.Load(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "hello", msgs[0].Content)
	assert.Equal(t, "CopyWriter", msgs[2].Author)

	msgs[0].Content = "mutated"
	again, err := s.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "hello", again[0].Content)

	require.NoError(t, s.Delete(ctx, "s1"))
	_, err = s.Load(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, s.Sessions())
}

func TestInMemoryStore_EmptyAppendCreatesSession(t *testing.T) {
	s := NewInMemoryStore()
	require.NoError(t, s.Append(context.Background(), "empty"))

	msgs, err := s.Load(context.Background(), "empty")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestInMemoryStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewInMemoryStore()
	assert.ErrorIs(t, s.Append(ctx, "s1", core.NewUserMessage("x")), context.Canceled)
	assert.Equal(t, 0, s.Sessions())
}
