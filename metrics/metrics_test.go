package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectors_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollectors(reg)

	c.RecordToolInvocation("codeWriter", "create_branch", "success", 20*time.Millisecond)
	c.RecordToolInvocation("codeWriter", "create_branch", "success", 30*time.Millisecond)
	c.RecordTurn("reviewer", "success", time.Second)
	c.RecordSession("completed")
	c.RecordCapabilityViolation("issueReader", "create_branch")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.ToolInvocations.WithLabelValues("codeWriter", "create_branch", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Turns.WithLabelValues("reviewer", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Sessions.WithLabelValues("completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.CapabilityViolations.WithLabelValues("issueReader", "create_branch")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.ToolLatency))
}

func TestCollectors_NilIsNoOp(t *testing.T) {
	var c *Collectors
	assert.NotPanics(t, func() {
		c.RecordToolInvocation("a", "t", "success", time.Millisecond)
		c.RecordTurn("a", "success", time.Millisecond)
		c.RecordSession("aborted")
		c.RecordCapabilityViolation("a", "t")
	})
}

func TestHandler_ServesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollectors(reg)
	c.RecordSession("aborted")

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `agentgroup_sessions_total{status="aborted"} 1`))
}
