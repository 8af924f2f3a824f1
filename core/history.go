package core

import (
	"encoding/json"
	"sync"
)

// History is the ordered, append-only conversation log shared by every agent
// of one session. It is safe for concurrent readers; writes are expected to
// come from a single scheduler.
//
// Contract:
//   - Append adds messages atomically (all or nothing visible to readers)
//   - Messages returns a deep copy, callers can never edit stored entries
//   - Nothing is ever removed or rewritten
type History struct {
	mu       sync.RWMutex
	messages []Message
}

// NewHistory creates a history seeded with the given messages.
func NewHistory(msgs ...Message) *History {
	h := &History{}
	h.Append(msgs...)
	return h
}

// Append adds messages to the end of the log in one step.
func (h *History) Append(msgs ...Message) {
	if len(msgs) == 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, m := range msgs {
		h.messages = append(h.messages, m.Clone())
	}
}

// Len returns the number of stored messages.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.messages)
}

// Messages returns a defensive copy of the full log.
func (h *History) Messages() []Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return cloneMessages(h.messages)
}

// Since returns a copy of the messages stored at index i and after.
func (h *History) Since(i int) []Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if i < 0 {
		i = 0
	}
	if i >= len(h.messages) {
		return nil
	}
	return cloneMessages(h.messages[i:])
}

// Last returns the most recent message.
func (h *History) Last() (Message, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.messages) == 0 {
		return Message{}, false
	}
	return h.messages[len(h.messages)-1].Clone(), true
}

// LastFrom returns the most recent assistant message whose author satisfies
// accept.
func (h *History) LastFrom(accept func(author string) bool) (Message, bool) {
	return LastFrom(h.Messages(), accept)
}

// MarshalJSON encodes the history as a JSON array of messages.
func (h *History) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.Messages())
}

// UnmarshalJSON replaces the content of an empty history with the decoded
// messages. Decoding into a non-empty history appends, keeping the log
// monotonic.
func (h *History) UnmarshalJSON(data []byte) error {
	var msgs []Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return err
	}
	h.Append(msgs...)
	return nil
}

// LastFrom scans msgs backwards for the newest assistant message whose
// author satisfies accept.
func LastFrom(msgs []Message, accept func(author string) bool) (Message, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		if m.Role != RoleAssistant {
			continue
		}
		if accept == nil || accept(m.Author) {
			return m, true
		}
	}
	return Message{}, false
}

func cloneMessages(in []Message) []Message {
	out := make([]Message, len(in))
	for i, m := range in {
		out[i] = m.Clone()
	}
	return out
}
