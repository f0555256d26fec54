// Package conversation implements the per-(worker, session) message log with
// a sliding retention window. The window is enforced on append, not just at
// read time, so storage never grows beyond each worker's configured size.
package conversation

import (
	"context"

	"github.com/deskmesh/deskmesh/core"
)

// Store persists ordered messages keyed by (worker identity, session
// identity).
//
// Contract:
//   - Append persists the message and drops the oldest entries once the log
//     exceeds window (window <= 0 disables trimming)
//   - Read returns at most window most-recent messages, oldest first
//   - Reading an unknown (worker, session) pair yields an empty slice, not
//     an error
//
// Entries for a given pair are mutated only by the worker that owns it; the
// orchestrator's per-session lock guarantees at most one writer per session
// at a time, but implementations must still be safe for concurrent use
// across sessions.
type Store interface {
	Append(ctx context.Context, workerID, sessionID string, msg core.Message, window int) error
	Read(ctx context.Context, workerID, sessionID string, window int) ([]core.Message, error)
}
