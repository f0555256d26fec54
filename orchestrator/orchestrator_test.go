package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskmesh/deskmesh/capability"
	"github.com/deskmesh/deskmesh/conversation"
	"github.com/deskmesh/deskmesh/core"
	"github.com/deskmesh/deskmesh/oracle"
	"github.com/deskmesh/deskmesh/retry"
	"github.com/deskmesh/deskmesh/router"
	"github.com/deskmesh/deskmesh/worker"
)

func newOrchestrator(t *testing.T, root *worker.Worker, orc oracle.Oracle, optFns ...func(o *Options)) *Orchestrator {
	t.Helper()
	rt := router.New(conversation.NewInMemoryStore(), orc, retry.New())
	o, err := New(root, rt, optFns...)
	require.NoError(t, err)
	return o
}

func TestHandle_Answer(t *testing.T) {
	orc := oracle.NewScripted().Add("root", core.Answer{Text: "hello"})
	o := newOrchestrator(t, worker.New("root"), orc)

	answer, err := o.Handle(context.Background(), "sess", "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello", answer)
}

func TestHandle_FailureIsClassified(t *testing.T) {
	orc := oracle.NewScripted().
		Add("root", core.Delegate{Worker: "ghost", SubRequest: "boo"})
	o := newOrchestrator(t, worker.New("root"), orc)

	_, err := o.Handle(context.Background(), "sess", "hi")
	require.Error(t, err)

	var failure *Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, KindUnknownTarget, failure.Kind)
	assert.Contains(t, failure.Detail, "ghost")
}

func TestHandle_RejectsInvalidTree(t *testing.T) {
	left := worker.New("dup")
	right := worker.New("dup")
	root := worker.New("root", func(o *worker.Options) {
		o.Children = []*worker.Worker{left, right}
	})

	rt := router.New(conversation.NewInMemoryStore(), oracle.NewScripted(), retry.New())
	_, err := New(root, rt)
	assert.Error(t, err)
}

// blockingOracle holds every Decide call until released.
type blockingOracle struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newBlockingOracle() *blockingOracle {
	return &blockingOracle{started: make(chan struct{}), release: make(chan struct{})}
}

func (b *blockingOracle) Decide(ctx context.Context, _ oracle.Prompt) (core.Decision, error) {
	b.once.Do(func() { close(b.started) })
	select {
	case <-b.release:
		return core.Answer{Text: "done"}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestHandle_SameSessionSerialized(t *testing.T) {
	orc := newBlockingOracle()
	o := newOrchestrator(t, worker.New("root"), orc, func(opt *Options) {
		opt.LockTimeout = 50 * time.Millisecond
	})

	firstDone := make(chan error, 1)
	go func() {
		_, err := o.Handle(context.Background(), "sess", "first")
		firstDone <- err
	}()

	// Wait until the first request holds the session lock.
	select {
	case <-orc.started:
	case <-time.After(5 * time.Second):
		t.Fatal("first request never reached the oracle")
	}

	_, err := o.Handle(context.Background(), "sess", "second")
	require.Error(t, err)

	var failure *Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, KindSessionBusy, failure.Kind)

	close(orc.release)
	require.NoError(t, <-firstDone)
}

func TestHandle_DifferentSessionsIndependent(t *testing.T) {
	orc := newBlockingOracle()
	o := newOrchestrator(t, worker.New("root"), orc, func(opt *Options) {
		opt.LockTimeout = 50 * time.Millisecond
	})

	firstDone := make(chan error, 1)
	go func() {
		_, err := o.Handle(context.Background(), "sess-a", "first")
		firstDone <- err
	}()

	select {
	case <-orc.started:
	case <-time.After(5 * time.Second):
		t.Fatal("first request never reached the oracle")
	}

	secondDone := make(chan error, 1)
	go func() {
		_, err := o.Handle(context.Background(), "sess-b", "second")
		secondDone <- err
	}()

	// A different session is not blocked by sess-a's lock; releasing the
	// oracle lets both complete.
	close(orc.release)
	require.NoError(t, <-firstDone)
	require.NoError(t, <-secondDone)
}

func TestHandle_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	orc := oracle.NewScripted().Add("root", core.Answer{Text: "unused"})
	o := newOrchestrator(t, worker.New("root"), orc)

	_, err := o.Handle(ctx, "sess", "hi")
	require.Error(t, err)

	var failure *Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, KindInternal, failure.Kind)
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"session busy", &SessionBusyError{SessionID: "s"}, KindSessionBusy},
		{"cycle", &core.CycleError{Worker: "w"}, KindDelegationCycle},
		{"unknown target", &core.UnknownTargetError{Kind: core.TargetWorker, Name: "x"}, KindUnknownTarget},
		{"retry exhausted", &retry.ExhaustedError{Binding: "b", Action: "a", Attempts: 3}, KindTransientCapability},
		{"permanent", capability.Permanentf("bad"), KindPermanentCapability},
		{"transient", capability.Transientf("blip"), KindTransientCapability},
		{"oracle unavailable", oracle.Unavailable(errors.New("503")), KindOracleUnavailable},
		{"budget", &core.BudgetExceededError{Max: 4}, KindInternal},
		{"plain", errors.New("anything"), KindInternal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, classify(tc.err))
		})
	}
}
