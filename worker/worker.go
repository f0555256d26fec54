// Package worker defines the configured delegation node: a named entity with
// a role, bound capabilities, an ordered team of child workers, a history
// window and a retry budget. Workers are created at process configuration
// time and treated as read-only for the process lifetime; the configured team
// relation is a directed graph that may contain cycles, which the per-request
// cycle guard rejects at traversal time rather than at construction.
package worker

import (
	"fmt"

	"github.com/deskmesh/deskmesh/capability"
)

const (
	// DefaultHistoryWindow is the per-session message retention applied when
	// a worker does not configure its own.
	DefaultHistoryWindow = 10
	// DefaultRetryBudget is the capability invocation attempt budget applied
	// when a worker does not configure its own.
	DefaultRetryBudget = 3
)

// Options configures a Worker instance.
type Options struct {
	Role          string
	Description   string
	Instructions  []string
	Capabilities  []capability.Binding
	Children      []*Worker
	HistoryWindow int
	RetryBudget   int
}

// Worker is one node of the delegation hierarchy. All fields are fixed at
// configuration time except the child set, which SetChildren replaces so
// that hierarchies (including deliberately cyclic ones used in tests) can be
// wired after all workers exist. Once a process starts serving requests the
// tree must not be mutated.
type Worker struct {
	name          string
	role          string
	description   string
	instructions  []string
	capabilities  []capability.Binding
	children      []*Worker
	historyWindow int
	retryBudget   int
}

// New constructs a Worker with defaults applied.
func New(name string, optFns ...func(o *Options)) *Worker {
	opts := Options{
		HistoryWindow: DefaultHistoryWindow,
		RetryBudget:   DefaultRetryBudget,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Description == "" {
		opts.Description = fmt.Sprintf("Worker %s", name)
	}

	return &Worker{
		name:          name,
		role:          opts.Role,
		description:   opts.Description,
		instructions:  opts.Instructions,
		capabilities:  opts.Capabilities,
		children:      opts.Children,
		historyWindow: opts.HistoryWindow,
		retryBudget:   opts.RetryBudget,
	}
}

// Name returns the worker's unique identity.
func (w *Worker) Name() string { return w.name }

// Role returns the free-text role classification used for routing hints.
func (w *Worker) Role() string { return w.role }

// Description returns the worker's purpose description.
func (w *Worker) Description() string { return w.description }

// Instructions returns the worker's configured persona directives.
func (w *Worker) Instructions() []string { return w.instructions }

// HistoryWindow returns the max messages retained per session for this worker.
func (w *Worker) HistoryWindow() int { return w.historyWindow }

// RetryBudget returns the capability invocation attempt budget.
func (w *Worker) RetryBudget() int { return w.retryBudget }

// Capabilities returns the bound capability set in configuration order.
func (w *Worker) Capabilities() []capability.Binding {
	out := make([]capability.Binding, len(w.capabilities))
	copy(out, w.capabilities)
	return out
}

// Children returns the ordered team of child workers.
func (w *Worker) Children() []*Worker {
	out := make([]*Worker, len(w.children))
	copy(out, w.children)
	return out
}

// SetChildren replaces the worker's team. Configuration-time only; never
// call once requests are being served.
func (w *Worker) SetChildren(children ...*Worker) {
	w.children = append([]*Worker(nil), children...)
}

// Capability returns the bound binding with the given name.
func (w *Worker) Capability(name string) (capability.Binding, bool) {
	for _, b := range w.capabilities {
		if b.Name() == name {
			return b, true
		}
	}
	return nil, false
}

// Child returns the direct child with the given name.
func (w *Worker) Child(name string) (*Worker, bool) {
	for _, c := range w.children {
		if c.name == name {
			return c, true
		}
	}
	return nil, false
}

// Find performs a depth-first search over the subtree rooted at this worker
// (including itself) returning the first worker whose name matches, or nil.
// Safe on cyclic teams.
func (w *Worker) Find(name string) *Worker {
	return find(w, name, map[*Worker]bool{})
}

func find(w *Worker, name string, seen map[*Worker]bool) *Worker {
	if seen[w] {
		return nil
	}
	seen[w] = true
	if w.name == name {
		return w
	}
	for _, c := range w.children {
		if found := find(c, name, seen); found != nil {
			return found
		}
	}
	return nil
}

// Validate walks the graph reachable from root and rejects two distinct
// workers sharing one name. A single worker reachable along several paths
// (a shared specialist) is allowed; so are cyclic teams, which the runtime
// cycle guard handles per request.
func Validate(root *Worker) error {
	byName := map[string]*Worker{}
	var walk func(w *Worker) error
	walk = func(w *Worker) error {
		if existing, ok := byName[w.name]; ok {
			if existing != w {
				return fmt.Errorf("duplicate worker name %q", w.name)
			}
			return nil
		}
		byName[w.name] = w
		for _, c := range w.children {
			if err := walk(c); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(root)
}
