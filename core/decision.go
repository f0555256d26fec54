package core

// Decision is the reasoning oracle's routing choice for one worker and one
// request. Concrete decision types implement the unexported isDecision marker
// enabling a closed set, so every consumer must handle all three cases
// explicitly.
type Decision interface{ isDecision() }

// Answer is a final natural-language reply with no further action.
type Answer struct {
	Text string
}

func (Answer) isDecision() {}

// InvokeCapability selects one bound capability action and supplies its
// parameters.
type InvokeCapability struct {
	Capability string
	Action     string
	Params     map[string]any
}

func (InvokeCapability) isDecision() {}

// Delegate forwards a restated sub-request to exactly one child worker.
type Delegate struct {
	Worker     string
	SubRequest string
}

func (Delegate) isDecision() {}

// Outcome tags the terminal state of one worker's share of a request.
type Outcome string

const (
	// OutcomeAnswered means the worker produced final reply text.
	OutcomeAnswered Outcome = "answered"
	// OutcomeDelegated means the result was produced by a child worker and
	// relayed unchanged.
	OutcomeDelegated Outcome = "delegated"
	// OutcomeInvoked means the result summarizes a capability invocation.
	OutcomeInvoked Outcome = "capability-invoked"
	// OutcomeFailed means the worker terminated with an error.
	OutcomeFailed Outcome = "failed"
)

// DelegationResult is the outcome a worker returns to its parent (or to the
// orchestrator at the root). Failures travel as ordinary results, never as
// panics, so a parent's oracle can decide how to react.
type DelegationResult struct {
	Outcome Outcome
	// Text is the reply payload for non-failed outcomes.
	Text string
	// Worker names the child that produced the result for delegated outcomes.
	Worker string
	// Err carries the failure detail for failed outcomes.
	Err error
}

// Answered builds an answered result.
func Answered(text string) DelegationResult {
	return DelegationResult{Outcome: OutcomeAnswered, Text: text}
}

// Invoked builds a capability-invoked result.
func Invoked(text string) DelegationResult {
	return DelegationResult{Outcome: OutcomeInvoked, Text: text}
}

// Relayed builds a delegated result carrying a child's reply.
func Relayed(child, text string) DelegationResult {
	return DelegationResult{Outcome: OutcomeDelegated, Worker: child, Text: text}
}

// Failed builds a failed result.
func Failed(err error) DelegationResult {
	return DelegationResult{Outcome: OutcomeFailed, Err: err}
}
