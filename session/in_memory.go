package session

import (
	"context"
	"sync"

	"github.com/hupe1980/agentgroup/core"
)

// InMemoryStore is a volatile Store keeping histories in a process local
// map. It is safe for concurrent access. Stored and returned messages are
// cloned so callers never share slices with the store.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]core.Message
}

// NewInMemoryStore constructs an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string][]core.Message)}
}

// Append adds msgs to the session's log, creating it lazily.
func (s *InMemoryStore) Append(ctx context.Context, sessionID string, msgs ...core.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range msgs {
		s.sessions[sessionID] = append(s.sessions[sessionID], m.Clone())
	}
	if _, ok := s.sessions[sessionID]; !ok {
		s.sessions[sessionID] = []core.Message{}
	}
	return nil
}

// Load returns a copy of the session's log.
func (s *InMemoryStore) Load(ctx context.Context, sessionID string) ([]core.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]core.Message, len(msgs))
	for i, m := range msgs {
		out[i] = m.Clone()
	}
	return out, nil
}

// Delete removes the session. Deleting an unknown id is not an error.
func (s *InMemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// Sessions returns the number of stored sessions.
func (s *InMemoryStore) Sessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
