package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/hupe1980/agentgroup/internal/demo"
	"github.com/hupe1980/agentgroup/tool"
)

// GitHubToolNames lists the tools of the GitHub-shaped test registry.
var GitHubToolNames = demo.GitHubToolNames

// CallLog records which remote tools were invoked.
type CallLog struct {
	mu    sync.Mutex
	calls []string
}

// Calls returns invoked tool names in order.
func (l *CallLog) Calls() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.calls))
	copy(out, l.calls)
	return out
}

func (l *CallLog) add(name string) {
	l.mu.Lock()
	l.calls = append(l.calls, name)
	l.mu.Unlock()
}

// GitHubRegistry builds a registry of remote tools named like a GitHub MCP
// server. Each call answers "<name> ok" and is recorded in the returned log.
func GitHubRegistry(t testing.TB) (*tool.Registry, *CallLog) {
	t.Helper()

	log := &CallLog{}
	reg, err := tool.NewRegistry(tool.FromProvider(demo.GitHubDescriptors(), func(_ context.Context, name string, _ map[string]any) (any, error) {
		log.add(name)
		return name + " ok", nil
	})...)
	if err != nil {
		t.Fatalf("failed to build registry: %v", err)
	}
	return reg, log
}

// MustSubset wraps Registry.Subset for test setup.
func MustSubset(t testing.TB, reg *tool.Registry, name string, tools ...string) *tool.CapabilitySet {
	t.Helper()

	cs, err := reg.Subset(name, tools...)
	if err != nil {
		t.Fatalf("failed to build capability set %s: %v", name, err)
	}
	return cs
}
