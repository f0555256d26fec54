package router

import (
	"github.com/deskmesh/deskmesh/core"
)

// Traversal is the state of a single request's walk through the worker
// hierarchy: the visited-worker set backing the cycle guard, the oracle call
// budget, and the request-scoped context. It is owned by one request and
// never shared across concurrent requests, so no locking is needed.
type Traversal struct {
	// Context carries the request/session identity and date framing shared
	// by every worker this request reaches.
	Context core.RequestContext

	visited map[string]bool
	budget  *core.CallBudget
}

// NewTraversal initializes traversal state for a fresh request.
// maxOracleCalls == 0 leaves the oracle budget unlimited.
func NewTraversal(rc core.RequestContext, maxOracleCalls int) *Traversal {
	return &Traversal{
		Context: rc,
		visited: make(map[string]bool),
		budget:  core.NewCallBudget(maxOracleCalls),
	}
}

// Visited reports whether the named worker is already on this request's
// delegation path.
func (t *Traversal) Visited(name string) bool { return t.visited[name] }

// Path returns the visited worker names (unordered).
func (t *Traversal) Path() []string {
	out := make([]string, 0, len(t.visited))
	for name := range t.visited {
		out = append(out, name)
	}
	return out
}

// OracleCalls returns the number of oracle calls consumed so far.
func (t *Traversal) OracleCalls() int { return t.budget.Count() }

// visit marks the worker as part of the delegation path, rejecting revisits.
func (t *Traversal) visit(name string) error {
	if t.visited[name] {
		return &core.CycleError{Worker: name}
	}
	t.visited[name] = true
	return nil
}
