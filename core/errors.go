package core

import "fmt"

// CycleError reports that the oracle selected a worker already present in the
// current request's delegation path. The delegation is rejected before the
// worker is invoked again.
type CycleError struct {
	Worker string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("delegation cycle: worker %q already visited in this request", e.Worker)
}

// TargetKind distinguishes the two kinds of routing targets an oracle can
// name incorrectly.
type TargetKind string

const (
	// TargetCapability marks a capability binding target.
	TargetCapability TargetKind = "capability"
	// TargetWorker marks a child worker target.
	TargetWorker TargetKind = "worker"
)

// UnknownTargetError reports that the oracle named a capability or child
// worker not bound to the deciding worker: a configuration mismatch, not a
// retryable condition.
type UnknownTargetError struct {
	Kind   TargetKind
	Name   string
	Worker string
}

func (e *UnknownTargetError) Error() string {
	return fmt.Sprintf("unknown %s %q: not bound to worker %q", e.Kind, e.Name, e.Worker)
}

// BudgetExceededError reports that a request consumed its per-request oracle
// call budget before reaching a terminal answer.
type BudgetExceededError struct {
	Max int
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("oracle call budget exceeded: %d calls", e.Max)
}
