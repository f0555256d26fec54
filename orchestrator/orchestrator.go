// Package orchestrator exposes the sole public entry point of the delegation
// core: Handle resolves the configured root worker, serializes requests per
// session, drives the request through the worker tree and returns either the
// final answer text or a structured failure naming the error kind.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/deskmesh/deskmesh/capability"
	"github.com/deskmesh/deskmesh/core"
	"github.com/deskmesh/deskmesh/logging"
	"github.com/deskmesh/deskmesh/oracle"
	"github.com/deskmesh/deskmesh/retry"
	"github.com/deskmesh/deskmesh/router"
	"github.com/deskmesh/deskmesh/worker"
)

// ErrorKind classifies terminal failures in the user-visible response.
type ErrorKind string

const (
	// KindTransientCapability marks a capability failure that persisted
	// through the retry budget.
	KindTransientCapability ErrorKind = "transient_capability"
	// KindPermanentCapability marks a capability failure not worth retrying.
	KindPermanentCapability ErrorKind = "permanent_capability"
	// KindDelegationCycle marks a rejected revisit of a worker.
	KindDelegationCycle ErrorKind = "delegation_cycle"
	// KindUnknownTarget marks an oracle decision naming an unbound
	// capability or unknown child worker.
	KindUnknownTarget ErrorKind = "unknown_target"
	// KindOracleUnavailable marks exhausted oracle transport retries.
	KindOracleUnavailable ErrorKind = "oracle_unavailable"
	// KindSessionBusy marks a session lock that could not be acquired in
	// time.
	KindSessionBusy ErrorKind = "session_busy"
	// KindInternal covers everything else (budget exhaustion, storage
	// failures, cancelled contexts).
	KindInternal ErrorKind = "internal"
)

// Failure is the structured terminal failure returned to the caller. It
// names the error kind and the last underlying error text, never a raw
// stack trace.
type Failure struct {
	Kind   ErrorKind `json:"kind"`
	Detail string    `json:"detail"`
}

func (f *Failure) Error() string { return fmt.Sprintf("%s: %s", f.Kind, f.Detail) }

// SessionBusyError reports that the per-session execution lock could not be
// acquired within the configured bound. The caller may retry; the
// orchestrator does not retry automatically.
type SessionBusyError struct {
	SessionID string
}

func (e *SessionBusyError) Error() string {
	return fmt.Sprintf("session %q busy: another request is in flight", e.SessionID)
}

// Options configures an Orchestrator.
type Options struct {
	// LockTimeout bounds acquisition of the per-session execution lock.
	LockTimeout time.Duration
	// MaxOracleCalls bounds oracle calls per request (0 = unlimited).
	MaxOracleCalls int
	// Logger receives request lifecycle records.
	Logger logging.Logger
}

// Orchestrator serializes requests per session and drives each one through
// the root worker's delegation router. The worker tree is read-only after
// construction and safely shared across concurrent requests.
type Orchestrator struct {
	root   *worker.Worker
	router *router.Router
	locks  *sessionLocks

	lockTimeout    time.Duration
	maxOracleCalls int
	logger         logging.Logger
}

// New constructs an Orchestrator after validating the worker tree.
func New(root *worker.Worker, rt *router.Router, optFns ...func(o *Options)) (*Orchestrator, error) {
	if err := worker.Validate(root); err != nil {
		return nil, fmt.Errorf("invalid worker hierarchy: %w", err)
	}

	opts := Options{
		LockTimeout:    5 * time.Second,
		MaxOracleCalls: 16,
		Logger:         logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Orchestrator{
		root:           root,
		router:         rt,
		locks:          newSessionLocks(),
		lockTimeout:    opts.LockTimeout,
		maxOracleCalls: opts.MaxOracleCalls,
		logger:         opts.Logger,
	}, nil
}

// Root returns the configured root worker.
func (o *Orchestrator) Root() *worker.Worker { return o.root }

// Handle routes one request for one session and blocks until a terminal
// answer or terminal failure is produced. Requests for the same session are
// serialized; requests for different sessions run independently. On context
// cancellation the session lock is released and any partially built response
// discarded; in-flight capability attempts complete without forced external
// cancellation.
func (o *Orchestrator) Handle(ctx context.Context, sessionID, requestText string) (string, error) {
	release, err := o.locks.acquire(ctx, sessionID, o.lockTimeout)
	if err != nil {
		return "", o.failure(err)
	}
	defer release()

	t := router.NewTraversal(core.NewRequestContext(sessionID), o.maxOracleCalls)

	o.logger.Info("orchestrator.handle.start",
		"session_id", sessionID, "request_id", t.Context.RequestID, "root", o.root.Name())

	result := o.router.Route(ctx, o.root, t, requestText)

	if result.Outcome == core.OutcomeFailed {
		o.logger.Warn("orchestrator.handle.failed",
			"session_id", sessionID, "request_id", t.Context.RequestID,
			"oracle_calls", t.OracleCalls(), "error", result.Err.Error())
		return "", o.failure(result.Err)
	}

	o.logger.Info("orchestrator.handle.done",
		"session_id", sessionID, "request_id", t.Context.RequestID,
		"outcome", string(result.Outcome), "oracle_calls", t.OracleCalls())

	return result.Text, nil
}

// failure maps an internal error onto the user-visible taxonomy.
func (o *Orchestrator) failure(err error) error {
	return &Failure{Kind: classify(err), Detail: err.Error()}
}

func classify(err error) ErrorKind {
	var (
		busy      *SessionBusyError
		cycle     *core.CycleError
		unknown   *core.UnknownTargetError
		exhausted *retry.ExhaustedError
		permanent *capability.PermanentError
		transient *capability.TransientError
		oracleErr *oracle.UnavailableError
	)

	switch {
	case errors.As(err, &busy):
		return KindSessionBusy
	case errors.As(err, &cycle):
		return KindDelegationCycle
	case errors.As(err, &unknown):
		return KindUnknownTarget
	case errors.As(err, &exhausted):
		return KindTransientCapability
	case errors.As(err, &permanent):
		return KindPermanentCapability
	case errors.As(err, &transient):
		return KindTransientCapability
	case errors.As(err, &oracleErr):
		return KindOracleUnavailable
	default:
		return KindInternal
	}
}
