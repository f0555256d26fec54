package conversation

import (
	"context"
	"sync"

	"github.com/deskmesh/deskmesh/core"
)

type logKey struct {
	workerID  string
	sessionID string
}

// InMemoryStore is a volatile Store implementation keeping logs in a process
// local map. It is safe for concurrent access and best suited for tests or
// ephemeral demo setups; it does not survive process restart.
type InMemoryStore struct {
	mu   sync.RWMutex
	logs map[logKey][]core.Message
}

// NewInMemoryStore constructs an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{logs: make(map[logKey][]core.Message)}
}

// Append adds a message to the (worker, session) log and trims it to the
// window from the front.
func (s *InMemoryStore) Append(_ context.Context, workerID, sessionID string, msg core.Message, window int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := logKey{workerID: workerID, sessionID: sessionID}
	log := append(s.logs[key], msg)
	if window > 0 && len(log) > window {
		trimmed := make([]core.Message, window)
		copy(trimmed, log[len(log)-window:])
		log = trimmed
	}
	s.logs[key] = log

	return nil
}

// Read returns a copy of the most recent window messages, oldest first. An
// unknown pair yields an empty slice.
func (s *InMemoryStore) Read(_ context.Context, workerID, sessionID string, window int) ([]core.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log := s.logs[logKey{workerID: workerID, sessionID: sessionID}]
	if window > 0 && len(log) > window {
		log = log[len(log)-window:]
	}
	out := make([]core.Message, len(log))
	copy(out, log)

	return out, nil
}

// Len reports the stored (post-trim) length of a log. Test helper.
func (s *InMemoryStore) Len(workerID, sessionID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.logs[logKey{workerID: workerID, sessionID: sessionID}])
}
