// Package retry wraps single capability invocations with a bounded retry
// policy: transient failures are attempted up to a budget with a capped,
// monotonically non-decreasing backoff; permanent failures surface after
// exactly one attempt.
//
// Exactly-once side-effect semantics are NOT guaranteed when retrying
// non-idempotent actions (e.g. sending a message): a retried attempt whose
// predecessor partially succeeded may cause duplicate external effects. This
// is an accepted property of the boundary, surfaced to callers rather than
// hidden.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/deskmesh/deskmesh/capability"
	"github.com/deskmesh/deskmesh/logging"
)

// DefaultMaxAttempts is the attempt budget applied when a worker does not
// configure its own.
const DefaultMaxAttempts = 3

// ExhaustedError is the terminal failure produced when the attempt budget is
// consumed by transient failures. It names the last underlying error and the
// number of attempts made.
type ExhaustedError struct {
	Binding  string
	Action   string
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("capability %s.%s: %d attempts exhausted: %v", e.Binding, e.Action, e.Attempts, e.Last)
}

// Unwrap returns the last underlying error.
func (e *ExhaustedError) Unwrap() error { return e.Last }

// Options configures an Executor.
type Options struct {
	// MaxAttempts is the default attempt budget for invocations that do not
	// supply their own.
	MaxAttempts int
	// InitialInterval seeds the backoff curve.
	InitialInterval time.Duration
	// MaxInterval caps the backoff curve from above.
	MaxInterval time.Duration
	// AttemptTimeout bounds each individual attempt; expiry counts as a
	// transient failure. Zero disables the per-attempt bound.
	AttemptTimeout time.Duration
	// Logger receives per-attempt records.
	Logger logging.Logger
}

// Executor performs bounded, classified retries around Binding.Invoke. It has
// no mutable state after construction and is safe for concurrent use.
type Executor struct {
	maxAttempts     int
	initialInterval time.Duration
	maxInterval     time.Duration
	attemptTimeout  time.Duration
	logger          logging.Logger
}

// New constructs an Executor with optional overrides.
func New(optFns ...func(o *Options)) *Executor {
	opts := Options{
		MaxAttempts:     DefaultMaxAttempts,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		AttemptTimeout:  30 * time.Second,
		Logger:          logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Executor{
		maxAttempts:     opts.MaxAttempts,
		initialInterval: opts.InitialInterval,
		maxInterval:     opts.MaxInterval,
		attemptTimeout:  opts.AttemptTimeout,
		logger:          opts.Logger,
	}
}

// Invoke calls the binding's action once per attempt, up to maxAttempts
// (0 selects the executor default). It returns the invocation result and the
// number of attempts made. Permanent failures return after the first
// attempt; exhausting the budget returns an *ExhaustedError.
func (e *Executor) Invoke(
	ctx context.Context,
	binding capability.Binding,
	action string,
	params map[string]any,
	maxAttempts int,
) (any, int, error) {
	if maxAttempts <= 0 {
		maxAttempts = e.maxAttempts
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = e.initialInterval
	bo.MaxInterval = e.maxInterval
	// Zero jitter keeps the delay sequence monotonically non-decreasing.
	bo.RandomizationFactor = 0
	bo.Reset()

	var last error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err := e.attempt(ctx, binding, action, params)
		if err == nil {
			e.logger.Debug("capability.invoke.success",
				"capability", binding.Name(), "action", action, "attempt", attempt)
			return result, attempt, nil
		}

		if ctx.Err() != nil {
			// Caller gave up; the in-flight attempt already completed, make
			// no further ones.
			return nil, attempt, ctx.Err()
		}

		if !capability.IsTransient(err) {
			e.logger.Warn("capability.invoke.permanent",
				"capability", binding.Name(), "action", action, "error", err.Error())
			return nil, attempt, err
		}

		last = err
		e.logger.Warn("capability.invoke.transient",
			"capability", binding.Name(), "action", action, "attempt", attempt, "error", err.Error())

		if attempt == maxAttempts {
			break
		}
		if err := sleep(ctx, bo.NextBackOff()); err != nil {
			return nil, attempt, err
		}
	}

	return nil, maxAttempts, &ExhaustedError{
		Binding:  binding.Name(),
		Action:   action,
		Attempts: maxAttempts,
		Last:     last,
	}
}

// attempt runs a single invocation under the per-attempt timeout. A deadline
// expiry raised by the attempt context is reported as transient.
func (e *Executor) attempt(
	ctx context.Context,
	binding capability.Binding,
	action string,
	params map[string]any,
) (any, error) {
	actx := ctx
	if e.attemptTimeout > 0 {
		var cancel context.CancelFunc
		actx, cancel = context.WithTimeout(ctx, e.attemptTimeout)
		defer cancel()
	}

	result, err := binding.Invoke(actx, action, params)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return nil, capability.Transient(err)
	}

	return result, err
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
