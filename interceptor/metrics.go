package interceptor

import (
	"context"
	"time"

	"github.com/hupe1980/agentgroup/metrics"
)

// Metrics records invocation counts and latency.
type Metrics struct {
	collectors *metrics.Collectors
}

// NewMetrics creates a metrics interceptor.
func NewMetrics(c *metrics.Collectors) *Metrics {
	return &Metrics{collectors: c}
}

// Before always proceeds.
func (m *Metrics) Before(context.Context, *Invocation) Decision { return Proceed() }

// After records the invocation.
func (m *Metrics) After(_ context.Context, inv *Invocation, res Result) Result {
	m.collectors.RecordToolInvocation(inv.Agent, inv.Tool, Status(res), time.Since(inv.StartedAt))
	return res
}
