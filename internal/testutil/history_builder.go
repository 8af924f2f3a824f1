package testutil

import (
	"encoding/json"

	"github.com/hupe1980/agentgroup/core"
)

// HistoryBuilder provides a fluent helper for constructing conversations.
//
//	h := testutil.NewHistoryBuilder().
//	    User("design a poster").
//	    Assistant("CopyWriter", "draft one").
//	    Assistant("ArtDirector", "approved").
//	    Build()
type HistoryBuilder struct {
	msgs []core.Message
}

// NewHistoryBuilder creates an empty builder.
func NewHistoryBuilder() *HistoryBuilder { return &HistoryBuilder{} }

// User appends a caller message (chainable).
func (b *HistoryBuilder) User(text string) *HistoryBuilder {
	b.msgs = append(b.msgs, core.NewUserMessage(text))
	return b
}

// Assistant appends an agent text message (chainable).
func (b *HistoryBuilder) Assistant(author, text string) *HistoryBuilder {
	b.msgs = append(b.msgs, core.NewAssistantMessage(author, text))
	return b
}

// ToolCall appends an agent tool request followed by its successful result
// (chainable). args is JSON encoded; nil means no arguments.
func (b *HistoryBuilder) ToolCall(author, name string, args any, result string) *HistoryBuilder {
	raw := ""
	if args != nil {
		data, _ := json.Marshal(args)
		raw = string(data)
	}
	call := core.NewToolCallMessage(author, "", []core.ToolCall{{Name: name, Arguments: raw}})
	b.msgs = append(b.msgs, call, core.NewToolResultMessage(author, core.ToolResult{
		CallID:  call.ToolCalls[0].ID,
		Name:    name,
		Content: result,
	}))
	return b
}

// Add appends arbitrary messages (chainable).
func (b *HistoryBuilder) Add(msgs ...core.Message) *HistoryBuilder {
	b.msgs = append(b.msgs, msgs...)
	return b
}

// Build returns a copy of the accumulated messages.
func (b *HistoryBuilder) Build() []core.Message {
	out := make([]core.Message, len(b.msgs))
	copy(out, b.msgs)
	return out
}

// History returns the messages wrapped in a core.History.
func (b *HistoryBuilder) History() *core.History { return core.NewHistory(b.msgs...) }
