// Package capability implements the uniform invocation boundary between
// workers and external action surfaces (chat posting, meeting scheduling,
// document and spreadsheet editing, calendar mutation, mail sending). A
// Binding exposes a named set of actions with schema-described parameters;
// concrete provider adapters live outside this module and plug in behind the
// Binding interface.
package capability

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Action describes a single invocable action of a binding.
type Action struct {
	// Name is the action identifier (snake_case recommended).
	Name string
	// Description is shown to the reasoning oracle to guide selection.
	Description string
	// Parameters is a minimal JSON schema describing accepted arguments.
	Parameters map[string]any
}

// Binding is a named, invocable action surface bound to one or more workers.
//
// Implementations must be stateless with respect to invocation ordering: a
// binding may be shared by several workers and invoked concurrently for the
// same external resource, and no conflict resolution is performed here.
//
// Invoke errors must be classified with Transient or Permanent so the retry
// layer can decide whether another attempt is worthwhile. Unclassified
// errors are treated as permanent.
type Binding interface {
	// Name returns the unique identifier for this binding.
	Name() string

	// Description returns a human-readable description of the surface.
	Description() string

	// Actions returns the declared set of invocable actions.
	Actions() []Action

	// Invoke executes one action exactly once. Retrying is the caller's
	// concern; implementations should not retry internally.
	Invoke(ctx context.Context, action string, params map[string]any) (any, error)
}

// Registry holds the process-wide binding set. Bindings are registered once
// at configuration time and referenced by name from any number of workers;
// they are assumed stateless and invocation-order-independent.
type Registry struct {
	mu       sync.RWMutex
	bindings map[string]Binding
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{bindings: make(map[string]Binding)}
}

// Register adds a binding, rejecting duplicate names.
func (r *Registry) Register(b Binding) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bindings[b.Name()]; exists {
		return fmt.Errorf("capability %q already registered", b.Name())
	}
	r.bindings[b.Name()] = b

	return nil
}

// Get returns the binding with the given name.
func (r *Registry) Get(name string) (Binding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bindings[name]
	return b, ok
}

// Names returns the registered binding names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.bindings))
	for name := range r.bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
