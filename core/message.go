package core

import (
	"time"

	"github.com/google/uuid"
)

// Role is the conversational role of a Message.
type Role string

const (
	// RoleUser marks input supplied by the human caller.
	RoleUser Role = "user"
	// RoleAssistant marks output produced by an agent.
	RoleAssistant Role = "assistant"
	// RoleTool marks the result of a tool invocation.
	RoleTool Role = "tool"
)

// UserAuthor is the Author value of messages submitted by the caller.
const UserAuthor = "user"

// ToolCall describes a tool invocation requested by an agent's backend.
type ToolCall struct {
	ID        string `json:"id"`                  // Correlates the call with its result
	Name      string `json:"name"`                // Tool name
	Arguments string `json:"arguments,omitempty"` // JSON encoded argument object
}

// ToolResult records the outcome of one ToolCall. Content carries the
// serialized result on success; Error and Code are set on failure.
type ToolResult struct {
	CallID  string `json:"call_id"`
	Name    string `json:"name"`
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

// Failed reports whether the result carries an error.
func (r ToolResult) Failed() bool { return r.Error != "" }

// Message is the unit appended to a History. After construction it should be
// treated as immutable; History never hands out references to its own
// storage.
//
// A message is one of:
//   - plain text (user or assistant) with Content set
//   - an assistant tool request with ToolCalls set (Content optional)
//   - a tool result with Role tool and ToolResult set
type Message struct {
	ID         string      `json:"id"`
	Author     string      `json:"author"`
	Role       Role        `json:"role"`
	Content    string      `json:"content,omitempty"`
	ToolCalls  []ToolCall  `json:"tool_calls,omitempty"`
	ToolResult *ToolResult `json:"tool_result,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
}

// NewID generates a new unique identifier for messages and tool calls.
func NewID() string { return uuid.NewString() }

func newMessage(author string, role Role) Message {
	return Message{
		ID:        NewID(),
		Author:    author,
		Role:      role,
		Timestamp: time.Now().UTC(),
	}
}

// NewUserMessage creates a caller-authored text message.
func NewUserMessage(text string) Message {
	m := newMessage(UserAuthor, RoleUser)
	m.Content = text
	return m
}

// NewAssistantMessage creates an agent-authored text message.
func NewAssistantMessage(author, text string) Message {
	m := newMessage(author, RoleAssistant)
	m.Content = text
	return m
}

// NewToolCallMessage records the tool calls an agent requested. Calls
// without an ID get one assigned so results can be correlated.
func NewToolCallMessage(author, text string, calls []ToolCall) Message {
	m := newMessage(author, RoleAssistant)
	m.Content = text
	m.ToolCalls = make([]ToolCall, len(calls))
	for i, c := range calls {
		if c.ID == "" {
			c.ID = NewID()
		}
		m.ToolCalls[i] = c
	}
	return m
}

// NewToolResultMessage records the outcome of a tool call on behalf of the
// agent that requested it.
func NewToolResultMessage(author string, result ToolResult) Message {
	m := newMessage(author, RoleTool)
	r := result
	m.ToolResult = &r
	return m
}

// IsText reports whether the message is a plain text message (no tool
// traffic attached).
func (m Message) IsText() bool {
	return len(m.ToolCalls) == 0 && m.ToolResult == nil
}

// Clone returns a deep copy of the message.
func (m Message) Clone() Message {
	c := m
	if m.ToolCalls != nil {
		c.ToolCalls = make([]ToolCall, len(m.ToolCalls))
		copy(c.ToolCalls, m.ToolCalls)
	}
	if m.ToolResult != nil {
		r := *m.ToolResult
		c.ToolResult = &r
	}
	return c
}
