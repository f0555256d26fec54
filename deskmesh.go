// Package deskmesh provides a high-level façade over the delegation
// orchestrator and its supporting services (conversation storage, oracle,
// capability retry & logging) enabling rapid construction of hierarchical
// task-delegation systems. Most applications interact with this package by:
//  1. Building a worker hierarchy (worker.New + SetChildren, or config.BuildTree)
//  2. Creating a Mesh via New() with an oracle (optionally overriding the
//     default in-memory conversation store)
//  3. Submitting natural-language requests with Handle()
//
// The façade delegates per-request routing to router.Router and per-session
// serialization to orchestrator.Orchestrator while keeping setup concise.
// Defaults are safe for local development and testing; production deployments
// typically supply a SQLite-backed store and a structured logger.
package deskmesh

import (
	"context"

	"github.com/deskmesh/deskmesh/conversation"
	"github.com/deskmesh/deskmesh/logging"
	"github.com/deskmesh/deskmesh/oracle"
	"github.com/deskmesh/deskmesh/orchestrator"
	"github.com/deskmesh/deskmesh/retry"
	"github.com/deskmesh/deskmesh/router"
	"github.com/deskmesh/deskmesh/worker"
)

// Options configures the Mesh instance.
type Options struct {
	// Store holds per-worker, per-session conversation history. Defaults to
	// an in-memory store if nil.
	Store conversation.Store

	// RetryOptions tunes capability invocation retry (attempt budget default,
	// delays, per-attempt timeout).
	RetryOptions []func(o *retry.Options)

	// RouterOptions tunes per-worker decision routing (step limit, oracle
	// retry policy).
	RouterOptions []func(o *router.Options)

	// OrchestratorOptions tunes session locking and the per-request oracle
	// call budget.
	OrchestratorOptions []func(o *orchestrator.Options)

	// Logger (defaults to NoOp logger if nil).
	Logger logging.Logger
}

// Mesh is the high-level façade aggregating the orchestrator and services.
type Mesh struct {
	opts         Options
	orchestrator *orchestrator.Orchestrator
}

// New creates a Mesh serving the given worker hierarchy with decisions from
// the given oracle. It fails if the hierarchy contains two distinct workers
// sharing one name.
func New(root *worker.Worker, orc oracle.Oracle, optFns ...func(o *Options)) (*Mesh, error) {
	opts := Options{
		Store:  conversation.NewInMemoryStore(),
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	exec := retry.New(append([]func(o *retry.Options){
		func(o *retry.Options) { o.Logger = logging.WithComponent(opts.Logger, "retry") },
	}, opts.RetryOptions...)...)

	rt := router.New(opts.Store, orc, exec, append([]func(o *router.Options){
		func(o *router.Options) { o.Logger = logging.WithComponent(opts.Logger, "router") },
	}, opts.RouterOptions...)...)

	orch, err := orchestrator.New(root, rt, append([]func(o *orchestrator.Options){
		func(o *orchestrator.Options) { o.Logger = logging.WithComponent(opts.Logger, "orchestrator") },
	}, opts.OrchestratorOptions...)...)
	if err != nil {
		return nil, err
	}

	return &Mesh{opts: opts, orchestrator: orch}, nil
}

// Root returns the configured root worker.
func (m *Mesh) Root() *worker.Worker { return m.orchestrator.Root() }

// Handle submits one request for one session and blocks until a terminal
// answer or a terminal failure. Requests sharing a session ID are serialized;
// other sessions proceed concurrently.
func (m *Mesh) Handle(ctx context.Context, sessionID, request string) (string, error) {
	return m.orchestrator.Handle(ctx, sessionID, request)
}
