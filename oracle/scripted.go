package oracle

import (
	"context"
	"fmt"
	"sync"

	"github.com/deskmesh/deskmesh/core"
)

type scriptedEntry struct {
	decision core.Decision
	err      error
}

// Scripted is a deterministic in-memory Oracle useful for tests and
// examples. Decisions are queued per worker name and consumed in order; an
// empty queue yields an error so unscripted calls fail loudly.
type Scripted struct {
	mu      sync.Mutex
	queues  map[string][]scriptedEntry
	prompts []Prompt
}

// NewScripted constructs an empty scripted oracle.
func NewScripted() *Scripted {
	return &Scripted{queues: make(map[string][]scriptedEntry)}
}

// Add queues a decision for the named worker's next call.
func (s *Scripted) Add(worker string, d core.Decision) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queues[worker] = append(s.queues[worker], scriptedEntry{decision: d})
	return s
}

// FailWith queues an error for the named worker's next call.
func (s *Scripted) FailWith(worker string, err error) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queues[worker] = append(s.queues[worker], scriptedEntry{err: err})
	return s
}

// Decide pops the next queued entry for the prompt's worker and records the
// prompt for later inspection.
func (s *Scripted) Decide(_ context.Context, prompt Prompt) (core.Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prompts = append(s.prompts, prompt)

	queue := s.queues[prompt.Worker]
	if len(queue) == 0 {
		return nil, fmt.Errorf("scripted oracle: no decision queued for worker %q", prompt.Worker)
	}
	entry := queue[0]
	s.queues[prompt.Worker] = queue[1:]

	if entry.err != nil {
		return nil, entry.err
	}
	return entry.decision, nil
}

// Prompts returns a copy of every prompt seen so far, in call order.
func (s *Scripted) Prompts() []Prompt {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Prompt, len(s.prompts))
	copy(out, s.prompts)
	return out
}

// Calls returns the number of Decide calls made.
func (s *Scripted) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}
