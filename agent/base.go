package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/agentgroup/core"
	"github.com/hupe1980/agentgroup/tool"
)

// Agent is a bounded unit of conversational behavior with fixed
// instructions and a restricted tool capability set.
type Agent interface {
	// ID returns the agent's unique identifier; it is the Author of every
	// message the agent produces.
	ID() string

	// Description is a short summary used when the agent is exposed as a
	// tool or offered to a router.
	Description() string

	// Instructions returns the static system prompt.
	Instructions() string

	// Capabilities returns the tools the agent may invoke.
	Capabilities() *tool.CapabilitySet

	// Act produces the agent's next turn. Implementations must not mutate
	// history. A context error means the turn was cancelled and nothing
	// should be recorded; any other error is fatal for the session.
	Act(ctx context.Context, history []core.Message) (*Turn, error)
}

// ToolInvocationRecord describes one tool call made during a turn.
type ToolInvocationRecord struct {
	Call      core.ToolCall   `json:"call"`
	Result    core.ToolResult `json:"result"`
	Message   core.Message    `json:"message"`
	Duration  time.Duration   `json:"duration"`
	Violation bool            `json:"violation,omitempty"`
}

// Turn is the output of one Act call.
type Turn struct {
	Messages  []core.Message         `json:"messages"`
	ToolCalls []ToolInvocationRecord `json:"tool_calls,omitempty"`
}

// Say appends an assistant text message.
func (t *Turn) Say(author, text string) {
	t.Messages = append(t.Messages, core.NewAssistantMessage(author, text))
}

// Record appends a tool invocation and its result message.
func (t *Turn) Record(rec ToolInvocationRecord) {
	t.ToolCalls = append(t.ToolCalls, rec)
	t.Messages = append(t.Messages, rec.Message)
}

// Text returns the content of the last assistant text message of the turn.
func (t *Turn) Text() string {
	if t == nil {
		return ""
	}
	for i := len(t.Messages) - 1; i >= 0; i-- {
		m := t.Messages[i]
		if m.Role == core.RoleAssistant && m.Content != "" {
			return m.Content
		}
	}
	return ""
}

// BaseAgent bundles the identity shared by all agent implementations.
// Embed it and supply Act to satisfy Agent. All fields are fixed after
// construction.
type BaseAgent struct {
	id           string
	description  string
	instructions string
	capabilities *tool.CapabilitySet
}

// NewBaseAgent constructs a BaseAgent. A nil capability set becomes an
// empty one.
func NewBaseAgent(id, description, instructions string, caps *tool.CapabilitySet) BaseAgent {
	if description == "" {
		description = fmt.Sprintf("Agent %s", id)
	}
	if caps == nil {
		caps = tool.EmptyCapabilitySet(id)
	}
	return BaseAgent{
		id:           id,
		description:  description,
		instructions: instructions,
		capabilities: caps,
	}
}

// ID returns the agent id.
func (b *BaseAgent) ID() string { return b.id }

// Description returns a summary of the agent's purpose.
func (b *BaseAgent) Description() string { return b.description }

// Instructions returns the static system prompt.
func (b *BaseAgent) Instructions() string { return b.instructions }

// Capabilities returns the agent's capability set.
func (b *BaseAgent) Capabilities() *tool.CapabilitySet { return b.capabilities }
