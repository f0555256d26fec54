// Package router implements the per-request delegation state machine. For
// each worker a request reaches, the router presents the reasoning oracle
// with the worker's framing plus its recent session history and acts on the
// returned decision: answer directly, invoke a bound capability through the
// retry executor, or delegate to exactly one child worker and recurse.
//
// Every oracle decision is validated against the worker's declared capability
// and child sets before it is followed; the per-request visited set rejects
// delegation cycles before the target worker is invoked again. Termination is
// guaranteed by the visited set, the bounded decision loop and the
// per-request oracle call budget, independent of oracle behaviour.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/deskmesh/deskmesh/conversation"
	"github.com/deskmesh/deskmesh/core"
	"github.com/deskmesh/deskmesh/logging"
	"github.com/deskmesh/deskmesh/oracle"
	"github.com/deskmesh/deskmesh/retry"
	"github.com/deskmesh/deskmesh/worker"
)

// ErrNoTerminalDecision is returned when a worker's decision loop ends
// without reaching an answer or a failure.
var ErrNoTerminalDecision = errors.New("no terminal decision within step limit")

// Options configures a Router.
type Options struct {
	// MaxDecisionSteps bounds how many times one worker may re-enter the
	// awaiting-decision state within a single request (multi-step
	// coordination after failed delegations).
	MaxDecisionSteps int
	// OracleAttempts bounds retries of unavailable-oracle failures. This
	// budget is separate from capability retry budgets.
	OracleAttempts int
	// OracleRetryDelay seeds the linear, bounded delay between oracle
	// attempts.
	OracleRetryDelay time.Duration
	// MaxOracleRetryDelay caps that delay from above.
	MaxOracleRetryDelay time.Duration
	// Logger receives routing records.
	Logger logging.Logger
}

// Router drives one worker's share of a request. It is stateless across
// requests and safe for concurrent use; all per-request state lives in the
// Traversal.
type Router struct {
	store  conversation.Store
	oracle oracle.Oracle
	exec   *retry.Executor

	maxSteps            int
	oracleAttempts      int
	oracleRetryDelay    time.Duration
	maxOracleRetryDelay time.Duration
	logger              logging.Logger
}

// New constructs a Router with optional overrides.
func New(store conversation.Store, orc oracle.Oracle, exec *retry.Executor, optFns ...func(o *Options)) *Router {
	opts := Options{
		MaxDecisionSteps:    4,
		OracleAttempts:      2,
		OracleRetryDelay:    time.Second,
		MaxOracleRetryDelay: 10 * time.Second,
		Logger:              logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Router{
		store:               store,
		oracle:              orc,
		exec:                exec,
		maxSteps:            opts.MaxDecisionSteps,
		oracleAttempts:      opts.OracleAttempts,
		oracleRetryDelay:    opts.OracleRetryDelay,
		maxOracleRetryDelay: opts.MaxOracleRetryDelay,
		logger:              opts.Logger,
	}
}

// Route runs the delegation state machine for one worker. The worker is
// added to the traversal's visited set before any work happens, so a later
// attempt to delegate back to it fails with a cycle error.
func (r *Router) Route(ctx context.Context, w *worker.Worker, t *Traversal, request string) core.DelegationResult {
	if err := t.visit(w.Name()); err != nil {
		return core.Failed(err)
	}

	r.logger.Debug("router.enter",
		"worker", w.Name(), "session_id", t.Context.SessionID, "request_id", t.Context.RequestID)

	if err := r.append(ctx, w, t, core.NewMessage(core.RoleRequester, request)); err != nil {
		return core.Failed(err)
	}

	for step := 0; step < r.maxSteps; step++ {
		prompt, err := r.buildPrompt(ctx, w, t, request, false)
		if err != nil {
			return core.Failed(err)
		}

		decision, err := r.decide(ctx, t, prompt)
		if err != nil {
			return core.Failed(err)
		}

		switch d := decision.(type) {
		case core.Answer:
			if err := r.append(ctx, w, t, core.NewMessage(core.RoleWorker, d.Text)); err != nil {
				return core.Failed(err)
			}
			return core.Answered(d.Text)

		case core.InvokeCapability:
			return r.invoke(ctx, w, t, request, d)

		case core.Delegate:
			child, ok := w.Child(d.Worker)
			if !ok {
				return core.Failed(&core.UnknownTargetError{
					Kind: core.TargetWorker, Name: d.Worker, Worker: w.Name(),
				})
			}
			if t.Visited(child.Name()) {
				return core.Failed(&core.CycleError{Worker: child.Name()})
			}

			r.logger.Info("router.delegate",
				"worker", w.Name(), "child", child.Name(), "session_id", t.Context.SessionID)

			childResult := r.Route(ctx, child, t, d.SubRequest)
			if childResult.Outcome == core.OutcomeFailed {
				note := fmt.Sprintf("worker %s failed: %v", child.Name(), childResult.Err)
				if err := r.append(ctx, w, t, core.NewMessage(core.RoleSystem, note)); err != nil {
					return core.Failed(err)
				}
				// Re-enter the decision loop so this worker's oracle can
				// pick a different approach; the failed child stays in the
				// visited set and cannot be chosen again.
				continue
			}

			if err := r.append(ctx, w, t, core.NewMessage(core.RoleWorker, childResult.Text)); err != nil {
				return core.Failed(err)
			}
			return core.Relayed(child.Name(), childResult.Text)

		default:
			return core.Failed(fmt.Errorf("unhandled decision type %T", decision))
		}
	}

	return core.Failed(fmt.Errorf("worker %s: %w", w.Name(), ErrNoTerminalDecision))
}

// invoke runs one capability invocation through the retry executor and, on
// success, asks the oracle for a final natural-language summary (a single
// call, itself not retried; if it fails the rendered result stands in).
func (r *Router) invoke(ctx context.Context, w *worker.Worker, t *Traversal, request string, d core.InvokeCapability) core.DelegationResult {
	binding, ok := w.Capability(d.Capability)
	if !ok {
		return core.Failed(&core.UnknownTargetError{
			Kind: core.TargetCapability, Name: d.Capability, Worker: w.Name(),
		})
	}

	result, attempts, err := r.exec.Invoke(ctx, binding, d.Action, d.Params, w.RetryBudget())
	ref := core.InvocationRef{Capability: d.Capability, Action: d.Action, Attempts: attempts}

	if err != nil {
		ref.Error = err.Error()
		note := fmt.Sprintf("capability %s.%s failed after %d attempt(s): %v", d.Capability, d.Action, attempts, err)
		if aerr := r.append(ctx, w, t, core.NewInvocationMessage(note, ref)); aerr != nil {
			return core.Failed(aerr)
		}
		return core.Failed(err)
	}

	rendered := renderResult(result)
	note := fmt.Sprintf("capability %s.%s returned: %s", d.Capability, d.Action, rendered)
	if aerr := r.append(ctx, w, t, core.NewInvocationMessage(note, ref)); aerr != nil {
		return core.Failed(aerr)
	}

	summary := r.summarize(ctx, w, t, request, rendered)
	if aerr := r.append(ctx, w, t, core.NewMessage(core.RoleWorker, summary)); aerr != nil {
		return core.Failed(aerr)
	}

	return core.Invoked(summary)
}

// summarize makes the single post-invocation oracle call. Any failure falls
// back to the rendered raw result so a successful side effect is never
// reported as a failed request.
func (r *Router) summarize(ctx context.Context, w *worker.Worker, t *Traversal, request, rendered string) string {
	prompt, err := r.buildPrompt(ctx, w, t, request, true)
	if err != nil {
		return rendered
	}
	if err := t.budget.Acquire(); err != nil {
		return rendered
	}

	decision, err := r.oracle.Decide(ctx, prompt)
	if err != nil {
		r.logger.Warn("router.summarize.failed", "worker", w.Name(), "error", err.Error())
		return rendered
	}
	if answer, ok := decision.(core.Answer); ok && answer.Text != "" {
		return answer.Text
	}
	return rendered
}

// decide asks the oracle with a small bounded retry for transport failures.
// Every attempt consumes one unit of the traversal's oracle call budget.
func (r *Router) decide(ctx context.Context, t *Traversal, prompt oracle.Prompt) (core.Decision, error) {
	var last error
	for attempt := 1; attempt <= r.oracleAttempts; attempt++ {
		if err := t.budget.Acquire(); err != nil {
			return nil, err
		}

		decision, err := r.oracle.Decide(ctx, prompt)
		if err == nil {
			return decision, nil
		}
		if !oracle.IsUnavailable(err) {
			return nil, err
		}

		last = err
		r.logger.Warn("router.decide.unavailable",
			"worker", prompt.Worker, "attempt", attempt, "error", err.Error())

		if attempt == r.oracleAttempts {
			break
		}

		delay := time.Duration(attempt) * r.oracleRetryDelay
		if delay > r.maxOracleRetryDelay {
			delay = r.maxOracleRetryDelay
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, last
}

// buildPrompt reads the worker's history window and assembles the oracle
// prompt. The request message appended on entry is moved from the history
// into the prompt's request slot to avoid presenting it twice.
func (r *Router) buildPrompt(ctx context.Context, w *worker.Worker, t *Traversal, request string, summarize bool) (oracle.Prompt, error) {
	history, err := r.store.Read(ctx, w.Name(), t.Context.SessionID, w.HistoryWindow())
	if err != nil {
		return oracle.Prompt{}, fmt.Errorf("read history for worker %s: %w", w.Name(), err)
	}

	if !summarize {
		for i := len(history) - 1; i >= 0; i-- {
			if history[i].Role == core.RoleRequester && history[i].Content == request {
				history = append(history[:i], history[i+1:]...)
				break
			}
		}
	}

	capabilities := make([]oracle.CapabilitySpec, 0, len(w.Capabilities()))
	for _, b := range w.Capabilities() {
		capabilities = append(capabilities, oracle.CapabilitySpec{
			Name:        b.Name(),
			Description: b.Description(),
			Actions:     b.Actions(),
		})
	}

	children := make([]oracle.ChildSpec, 0, len(w.Children()))
	for _, c := range w.Children() {
		children = append(children, oracle.ChildSpec{
			Name:        c.Name(),
			Role:        c.Role(),
			Description: c.Description(),
		})
	}

	return oracle.Prompt{
		Worker:         w.Name(),
		Role:           w.Role(),
		Instructions:   w.Instructions(),
		Capabilities:   capabilities,
		Children:       children,
		History:        history,
		Request:        request,
		RequestContext: t.Context,
		Summarize:      summarize,
	}, nil
}

func (r *Router) append(ctx context.Context, w *worker.Worker, t *Traversal, msg core.Message) error {
	if err := r.store.Append(ctx, w.Name(), t.Context.SessionID, msg, w.HistoryWindow()); err != nil {
		return fmt.Errorf("append history for worker %s: %w", w.Name(), err)
	}
	return nil
}

// renderResult flattens an invocation result into text for history entries
// and summary fallbacks.
func renderResult(result any) string {
	switch v := result.(type) {
	case nil:
		return "ok"
	case string:
		return v
	default:
		if data, err := json.Marshal(v); err == nil {
			return string(data)
		}
		return fmt.Sprintf("%v", v)
	}
}
