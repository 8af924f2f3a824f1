package demo

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentgroup/tool"
)

func TestGitHubDescriptors(t *testing.T) {
	reg, err := tool.NewRegistry(tool.FromProvider(GitHubDescriptors(), UnconfiguredGitHub)...)
	require.NoError(t, err)
	assert.Equal(t, GitHubToolNames, reg.Names())

	get, ok := reg.Get("get_issue")
	require.True(t, ok)
	assert.Equal(t, tool.KindRemote, get.Kind())

	_, err = get.Call(context.Background(), map[string]any{"number": 1})
	var toolErr *tool.ToolError
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, tool.CodeExecution, toolErr.Code)
	assert.Contains(t, toolErr.Message, "not configured")
}
