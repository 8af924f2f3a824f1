// Package metrics exposes Prometheus collectors for group chat sessions:
// tool invocations, turns, session outcomes and capability violations.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collectors groups every metric the orchestrator and interceptors record.
// A nil *Collectors is valid and records nothing.
type Collectors struct {
	ToolInvocations      *prometheus.CounterVec
	ToolLatency          *prometheus.HistogramVec
	Turns                *prometheus.CounterVec
	TurnLatency          *prometheus.HistogramVec
	Sessions             *prometheus.CounterVec
	CapabilityViolations *prometheus.CounterVec
}

// NewCollectors creates the collectors and registers them with reg. A nil
// reg leaves them unregistered, which suits tests.
func NewCollectors(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		ToolInvocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentgroup_tool_invocations_total",
				Help: "Total number of tool invocations",
			},
			[]string{"agent", "tool", "status"}, // status: success|error|aborted
		),
		ToolLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agentgroup_tool_latency_seconds",
				Help:    "Tool execution latency in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
			},
			[]string{"tool"},
		),
		Turns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentgroup_turns_total",
				Help: "Total number of agent turns",
			},
			[]string{"agent", "status"}, // status: success|fatal|cancelled
		),
		TurnLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agentgroup_turn_latency_seconds",
				Help:    "Agent turn latency in seconds",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
			},
			[]string{"agent"},
		),
		Sessions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentgroup_sessions_total",
				Help: "Sessions that reached a terminal status",
			},
			[]string{"status"}, // status: completed|aborted
		),
		CapabilityViolations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentgroup_capability_violations_total",
				Help: "Tool requests rejected because the tool is outside the agent's capability set",
			},
			[]string{"agent", "tool"},
		),
	}

	if reg != nil {
		reg.MustRegister(
			c.ToolInvocations,
			c.ToolLatency,
			c.Turns,
			c.TurnLatency,
			c.Sessions,
			c.CapabilityViolations,
		)
	}

	return c
}

// Handler returns the Prometheus HTTP handler for g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// RecordToolInvocation records one tool invocation.
func (c *Collectors) RecordToolInvocation(agent, tool, status string, latency time.Duration) {
	if c == nil {
		return
	}
	c.ToolInvocations.WithLabelValues(agent, tool, status).Inc()
	c.ToolLatency.WithLabelValues(tool).Observe(latency.Seconds())
}

// RecordTurn records one agent turn.
func (c *Collectors) RecordTurn(agent, status string, latency time.Duration) {
	if c == nil {
		return
	}
	c.Turns.WithLabelValues(agent, status).Inc()
	c.TurnLatency.WithLabelValues(agent).Observe(latency.Seconds())
}

// RecordSession records a session reaching a terminal status.
func (c *Collectors) RecordSession(status string) {
	if c == nil {
		return
	}
	c.Sessions.WithLabelValues(status).Inc()
}

// RecordCapabilityViolation records a rejected tool request.
func (c *Collectors) RecordCapabilityViolation(agent, tool string) {
	if c == nil {
		return
	}
	c.CapabilityViolations.WithLabelValues(agent, tool).Inc()
}
