// Package oracle defines the reasoning-oracle boundary: the external,
// non-deterministic function that chooses among answering directly, invoking
// a bound capability, or delegating to a child worker. Adapters for hosted
// model providers live in subpackages; the router treats every returned
// decision as untrusted and re-validates it against the worker's declared
// capability and child sets.
package oracle

import (
	"context"
	"errors"
	"fmt"

	"github.com/deskmesh/deskmesh/capability"
	"github.com/deskmesh/deskmesh/core"
)

// CapabilitySpec describes one bound capability surface as presented to the
// oracle.
type CapabilitySpec struct {
	Name        string
	Description string
	Actions     []capability.Action
}

// ChildSpec describes one delegable child worker as presented to the oracle.
type ChildSpec struct {
	Name        string
	Role        string
	Description string
}

// Prompt is the full context handed to the oracle for a single decision.
type Prompt struct {
	// Worker names the deciding worker.
	Worker string
	// Role is the worker's free-text role classification.
	Role string
	// Instructions are the worker's configured persona directives.
	Instructions []string
	// Capabilities lists the worker's bound action surfaces.
	Capabilities []CapabilitySpec
	// Children lists the workers this worker may delegate to.
	Children []ChildSpec
	// History is the worker's recent conversation window, oldest first.
	History []core.Message
	// Request is the task text to route.
	Request string
	// RequestContext carries the request-scoped date/timezone framing.
	RequestContext core.RequestContext
	// Summarize asks for a plain-text summary of the latest capability
	// result instead of a fresh routing decision.
	Summarize bool
}

// Oracle turns a prompt into a routing decision. Implementations are treated
// as non-deterministic and side-effect-free; transport failures must be
// wrapped with Unavailable so the router can apply its own bounded retry.
type Oracle interface {
	Decide(ctx context.Context, prompt Prompt) (core.Decision, error)
}

// UnavailableError marks oracle transport failures (network errors, provider
// outages). The router retries these with a budget separate from capability
// retries.
type UnavailableError struct {
	Err error
}

func (e *UnavailableError) Error() string { return fmt.Sprintf("oracle unavailable: %v", e.Err) }

// Unwrap returns the underlying transport error.
func (e *UnavailableError) Unwrap() error { return e.Err }

// Unavailable wraps err as an oracle transport failure. Returns nil for nil
// input.
func Unavailable(err error) error {
	if err == nil {
		return nil
	}
	return &UnavailableError{Err: err}
}

// IsUnavailable reports whether err is a retryable oracle transport failure.
func IsUnavailable(err error) bool {
	var ue *UnavailableError
	return errors.As(err, &ue)
}
