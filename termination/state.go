package termination

import "sync"

// State tracks a session's progress toward termination. It only moves
// forward: the turn count never decreases and completion never reverts.
type State struct {
	mu                 sync.RWMutex
	turnCount          int
	isComplete         bool
	allowedTerminators []string
}

// NewState creates a fresh state.
func NewState(allowedTerminators []string) *State {
	allowed := make([]string, len(allowedTerminators))
	copy(allowed, allowedTerminators)
	return &State{allowedTerminators: allowed}
}

// RecordTurn advances the turn count by one and returns the new count.
func (s *State) RecordTurn() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turnCount++
	return s.turnCount
}

// Observe folds an evaluation result into the state. Once complete, the
// state stays complete.
func (s *State) Observe(complete bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isComplete = s.isComplete || complete
	return s.isComplete
}

// TurnCount returns the number of completed turns.
func (s *State) TurnCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.turnCount
}

// IsComplete reports whether termination was reached.
func (s *State) IsComplete() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isComplete
}

// AllowedTerminators returns the agents allowed to end the session by content.
func (s *State) AllowedTerminators() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.allowedTerminators))
	copy(out, s.allowedTerminators)
	return out
}
