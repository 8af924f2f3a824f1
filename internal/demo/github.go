package demo

import (
	"context"

	"github.com/hupe1980/agentgroup/tool"
)

// GitHubToolNames lists the tools a GitHub MCP server exposes to the
// coder team, in registration order.
var GitHubToolNames = []string{
	"get_issue", "list_issues",
	"get_file_contents", "create_branch", "create_or_update_file", "list_branches",
	"create_pull_request", "create_pull_request_review",
}

// GitHubDescriptors returns provider descriptors for GitHubToolNames.
func GitHubDescriptors() []tool.Descriptor {
	descs := make([]tool.Descriptor, 0, len(GitHubToolNames))
	for _, n := range GitHubToolNames {
		descs = append(descs, tool.Descriptor{Name: n, Description: "GitHub " + n})
	}
	return descs
}

// UnconfiguredGitHub is the invoke function used when no GitHub provider is
// wired in. Every call fails with an execution error.
func UnconfiguredGitHub(_ context.Context, name string, _ map[string]any) (any, error) {
	return nil, tool.NewToolError(name, "GitHub tool provider not configured", tool.CodeExecution)
}
