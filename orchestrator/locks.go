package orchestrator

import (
	"context"
	"sync"
	"time"
)

// sessionLocks provides one execution slot per session so that at most one
// traversal mutates a session's conversation logs at a time. Slots are
// channel-based mutexes, which allows acquisition to race a timeout and the
// caller's context.
type sessionLocks struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{slots: make(map[string]chan struct{})}
}

func (l *sessionLocks) slot(sessionID string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.slots[sessionID]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[sessionID] = ch
	}
	return ch
}

// acquire takes the session's slot, failing with SessionBusyError once the
// timeout elapses or with the context's error if the caller gives up first.
// The returned release function must be called exactly once.
func (l *sessionLocks) acquire(ctx context.Context, sessionID string, timeout time.Duration) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ch := l.slot(sessionID)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, &SessionBusyError{SessionID: sessionID}
	}
}
