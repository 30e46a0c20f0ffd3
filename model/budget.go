package model

import (
	"errors"
	"fmt"
	"sync"
)

// ErrBudgetExceeded is returned once a CallBudget is used up.
var ErrBudgetExceeded = errors.New("completion budget exceeded")

// CallBudget caps the number of completer calls a model may issue.
type CallBudget struct {
	max   int
	count int
	mu    sync.Mutex
}

// NewCallBudget creates a budget of max calls. If max == 0, calls are unlimited.
func NewCallBudget(max int) *CallBudget {
	return &CallBudget{max: max}
}

// Increment records one call and fails when the budget is exceeded.
func (b *CallBudget) Increment() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.max > 0 && b.count >= b.max {
		return fmt.Errorf("%w: %d calls", ErrBudgetExceeded, b.max)
	}
	b.count++

	return nil
}

// Count returns the number of calls made.
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
