package interceptor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/agentgroup/logging"
	"github.com/hupe1980/agentgroup/tool"
)

// AuditRecord is produced once per tool invocation.
type AuditRecord struct {
	CallID        string         `json:"call_id"`
	Agent         string         `json:"agent"`
	CapabilitySet string         `json:"capability_set"`
	Tool          string         `json:"tool"`
	Description   string         `json:"description"`
	Kind          tool.Kind      `json:"kind"`
	Arguments     map[string]any `json:"arguments,omitempty"`
	StartedAt     time.Time      `json:"started_at"`
	Duration      time.Duration  `json:"duration"`
	Status        string         `json:"status"`
	Error         string         `json:"error,omitempty"`
}

// Line renders the classic one-line audit form.
func (r AuditRecord) Line() string {
	return AuditLine(r.Tool, r.Description, r.CapabilitySet)
}

// AuditLine formats "Invoke: name - description - (capability set)".
func AuditLine(name, description, capabilitySet string) string {
	return fmt.Sprintf("Invoke: %s - %s - (%s)", name, description, capabilitySet)
}

// AuditSink receives audit records.
type AuditSink interface {
	Record(ctx context.Context, rec AuditRecord)
}

// AuditOptions configures the Audit interceptor.
type AuditOptions struct {
	Logger logging.Logger
	Sink   AuditSink
}

// Audit logs every invocation and forwards a record to an optional sink.
type Audit struct {
	logger logging.Logger
	sink   AuditSink
}

// NewAudit creates an audit interceptor.
func NewAudit(optFns ...func(o *AuditOptions)) *Audit {
	opts := AuditOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Audit{logger: logging.OrNoOp(opts.Logger), sink: opts.Sink}
}

// Before logs the invocation.
func (a *Audit) Before(_ context.Context, inv *Invocation) Decision {
	a.logger.Info(AuditLine(inv.Tool, inv.Description, inv.CapabilitySet),
		"agent", inv.Agent, "fc_id", inv.CallID, "kind", string(inv.Kind))
	return Proceed()
}

// After emits the audit record.
func (a *Audit) After(ctx context.Context, inv *Invocation, res Result) Result {
	rec := AuditRecord{
		CallID:        inv.CallID,
		Agent:         inv.Agent,
		CapabilitySet: inv.CapabilitySet,
		Tool:          inv.Tool,
		Description:   inv.Description,
		Kind:          inv.Kind,
		Arguments:     inv.Arguments,
		StartedAt:     inv.StartedAt,
		Duration:      time.Since(inv.StartedAt),
		Status:        Status(res),
	}
	if res.Err != nil {
		rec.Error = res.Err.Error()
		a.logger.Warn("tool.audit.failed", "tool", inv.Tool, "agent", inv.Agent, "status", rec.Status, "error", rec.Error)
	} else {
		a.logger.Debug("tool.audit.completed", "tool", inv.Tool, "agent", inv.Agent, "duration_ms", rec.Duration.Milliseconds())
	}

	if a.sink != nil {
		a.sink.Record(ctx, rec)
	}
	return res
}

// AuditLog is an in-memory AuditSink safe for concurrent use.
type AuditLog struct {
	mu      sync.RWMutex
	records []AuditRecord
}

// NewAuditLog creates an empty log.
func NewAuditLog() *AuditLog { return &AuditLog{} }

// Record appends rec.
func (l *AuditLog) Record(_ context.Context, rec AuditRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, rec)
}

// Records returns a copy of the recorded entries.
func (l *AuditLog) Records() []AuditRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]AuditRecord, len(l.records))
	copy(out, l.records)
	return out
}
