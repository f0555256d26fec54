package capability

import (
	"context"
	"fmt"

	"github.com/deskmesh/deskmesh/internal/schema"
)

// HandlerFunc is the implementation behind a single Func action. Arguments
// have already been validated against the action's schema.
type HandlerFunc func(ctx context.Context, params map[string]any) (any, error)

// Func is a generic adapter that exposes plain Go functions as a Binding.
//
// Responsibilities:
//   - Holds a lightweight JSON-Schema-like parameter specification per action
//   - Validates supplied arguments against that schema before execution
//   - Normalizes error handling so callers receive classified errors:
//     validation failures and unknown actions are permanent, handler errors
//     keep whatever classification the handler applied
//
// A Func has no internal mutable state after construction and is safe for
// concurrent use by multiple goroutines.
type Func struct {
	name        string
	description string
	actions     []Action
	handlers    map[string]HandlerFunc
}

// NewFunc constructs an empty Func binding; attach actions with Handle.
func NewFunc(name, description string) *Func {
	return &Func{
		name:        name,
		description: description,
		handlers:    make(map[string]HandlerFunc),
	}
}

// Handle registers an action and its implementation, returning the Func for
// chaining. Registering the same action name twice panics: action sets are
// static configuration, and a duplicate is a programming error.
func (f *Func) Handle(action Action, fn HandlerFunc) *Func {
	if _, exists := f.handlers[action.Name]; exists {
		panic(fmt.Sprintf("capability %s: action %q registered twice", f.name, action.Name))
	}
	f.actions = append(f.actions, action)
	f.handlers[action.Name] = fn
	return f
}

// HandleStruct registers an action whose parameter schema is derived from a
// struct via reflection, equivalent to schema.FromStruct(structType).
func (f *Func) HandleStruct(name, description string, structType any, fn HandlerFunc) *Func {
	return f.Handle(Action{
		Name:        name,
		Description: description,
		Parameters:  schema.FromStruct(structType),
	}, fn)
}

// Name returns the unique binding name used in oracle prompts and routing.
func (f *Func) Name() string { return f.name }

// Description returns the short natural language description of the surface.
func (f *Func) Description() string { return f.description }

// Actions returns the declared action set in registration order.
func (f *Func) Actions() []Action {
	out := make([]Action, len(f.actions))
	copy(out, f.actions)
	return out
}

// Invoke validates params against the action's declared schema then calls the
// handler. Unknown actions and validation failures are permanent; handler
// errors pass through with their own classification.
func (f *Func) Invoke(ctx context.Context, action string, params map[string]any) (any, error) {
	fn, ok := f.handlers[action]
	if !ok {
		return nil, Permanentf("capability %s: unknown action %q", f.name, action)
	}

	var spec map[string]any
	for _, a := range f.actions {
		if a.Name == action {
			spec = a.Parameters
			break
		}
	}

	if spec != nil {
		if err := schema.Validate(params, spec); err != nil {
			return nil, Permanent(fmt.Errorf("capability %s: %s: %w", f.name, action, err))
		}
	}

	return fn(ctx, params)
}
