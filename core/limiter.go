package core

import "sync"

// CallBudget enforces a maximum number of oracle calls per request so that a
// traversal terminates regardless of oracle behaviour.
type CallBudget struct {
	max   int
	count int
	mu    sync.Mutex
}

// NewCallBudget creates a new budget with a max number of calls.
// If max == 0, unlimited calls are allowed.
func NewCallBudget(max int) *CallBudget {
	return &CallBudget{max: max}
}

// Acquire consumes one call and returns an error if the budget is exceeded.
func (b *CallBudget) Acquire() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.count++
	if b.max > 0 && b.count > b.max {
		return &BudgetExceededError{Max: b.max}
	}

	return nil
}

// Count returns the current number of calls made.
func (b *CallBudget) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.count
}

// Remaining returns how many calls are left before hitting the limit.
// Returns -1 for an unlimited budget.
func (b *CallBudget) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.max == 0 {
		return -1
	}

	return b.max - b.count
}
