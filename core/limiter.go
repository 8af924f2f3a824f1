package core

import (
	"fmt"
	"sync"
)

// CallBudget caps the number of backend calls an agent may make while
// producing a single turn. A zero max means unlimited.
type CallBudget struct {
	max   int
	count int
	mu    sync.Mutex
}

// NewCallBudget creates a budget allowing max calls.
func NewCallBudget(max int) *CallBudget {
	return &CallBudget{max: max}
}

// Spend records one call and returns an error once the budget is exceeded.
func (b *CallBudget) Spend() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.count++
	if b.max > 0 && b.count > b.max {
		return fmt.Errorf("exceeded call budget: %d", b.max)
	}

	return nil
}

// Count returns the number of calls spent.
func (b *CallBudget) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.count
}

// Remaining returns how many calls are left, or -1 when unlimited.
func (b *CallBudget) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.max == 0 {
		return -1
	}

	return b.max - b.count
}
