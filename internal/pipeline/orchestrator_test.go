package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/linkpost/internal/newsletter"
)

type fakeGenerator struct {
	mu    sync.Mutex
	calls int
	errs  []error
	block chan struct{}
}

func (g *fakeGenerator) Generate(ctx context.Context, instruction string) (*newsletter.Newsletter, error) {
	g.mu.Lock()
	i := g.calls
	g.calls++
	g.mu.Unlock()

	if g.block != nil {
		select {
		case <-g.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if i < len(g.errs) && g.errs[i] != nil {
		return nil, g.errs[i]
	}
	return &newsletter.Newsletter{Markdown: "# " + instruction}, nil
}

func (g *fakeGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestOrchestrator(gen Generator, opts Options) *Orchestrator {
	o := NewOrchestrator(gen, opts, discardLogger())
	o.worker.backoff = func(int) time.Duration { return 0 }
	return o
}

func waitTerminal(t *testing.T, job *Job) JobSnapshot {
	t.Helper()
	var snap JobSnapshot
	require.Eventually(t, func() bool {
		snap = job.Snapshot()
		return snap.Status.Terminal()
	}, 2*time.Second, 5*time.Millisecond)
	return snap
}

func TestOrchestratorRunsJob(t *testing.T) {
	gen := &fakeGenerator{}
	o := newTestOrchestrator(gen, Options{WorkerCount: 2, MaxQueueSize: 4})
	o.Start(context.Background())
	defer o.Stop()

	job := NewJob("weekly", "member-1")
	require.NoError(t, o.Submit(job))
	require.Same(t, job, o.GetJob(job.ID))

	snap := waitTerminal(t, job)
	assert.Equal(t, StatusCompleted, snap.Status)
	assert.Equal(t, 1, snap.Attempts)
	require.NotNil(t, snap.Result)
	assert.Equal(t, "# weekly", snap.Result.Markdown)
}

func TestOrchestratorRetriesRetryable(t *testing.T) {
	retryable := &newsletter.RetryableError{StatusCode: 503, Message: "overloaded"}
	gen := &fakeGenerator{errs: []error{retryable, retryable}}
	o := newTestOrchestrator(gen, Options{WorkerCount: 1, MaxQueueSize: 1})
	o.Start(context.Background())
	defer o.Stop()

	job := NewJob("x", "api")
	require.NoError(t, o.Submit(job))
	snap := waitTerminal(t, job)
	assert.Equal(t, StatusCompleted, snap.Status)
	assert.Equal(t, 3, snap.Attempts)
	assert.Len(t, snap.Errors, 2)
}

func TestOrchestratorGivesUpAfterMaxRetries(t *testing.T) {
	retryable := &newsletter.RetryableError{StatusCode: 429}
	gen := &fakeGenerator{errs: []error{retryable, retryable, retryable, nil}}
	o := newTestOrchestrator(gen, Options{WorkerCount: 1, MaxQueueSize: 1})
	o.Start(context.Background())
	defer o.Stop()

	job := NewJob("x", "api")
	require.NoError(t, o.Submit(job))
	snap := waitTerminal(t, job)
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Equal(t, MaxRetries, snap.Attempts)
	assert.Equal(t, MaxRetries, gen.callCount())
}

func TestOrchestratorNoRetryOnPermanentError(t *testing.T) {
	gen := &fakeGenerator{errs: []error{errors.New("gemini: invalid argument")}}
	o := newTestOrchestrator(gen, Options{WorkerCount: 1, MaxQueueSize: 1})
	o.Start(context.Background())
	defer o.Stop()

	job := NewJob("x", "api")
	require.NoError(t, o.Submit(job))
	snap := waitTerminal(t, job)
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Equal(t, 1, gen.callCount())
	assert.Equal(t, []string{"gemini: invalid argument"}, snap.Errors)
}

func TestOrchestratorQueueFull(t *testing.T) {
	gen := &fakeGenerator{}
	// Not started: nothing drains the queue.
	o := newTestOrchestrator(gen, Options{WorkerCount: 1, MaxQueueSize: 1})

	require.NoError(t, o.Submit(NewJob("a", "api")))
	assert.Equal(t, 1, o.QueueDepth())

	second := NewJob("b", "api")
	err := o.Submit(second)
	require.ErrorIs(t, err, ErrQueueFull)
	assert.Equal(t, StatusFailed, second.Snapshot().Status)
}

func TestOrchestratorStopCancelsInFlight(t *testing.T) {
	gen := &fakeGenerator{block: make(chan struct{})}
	o := newTestOrchestrator(gen, Options{WorkerCount: 1, MaxQueueSize: 1})
	o.Start(context.Background())

	job := NewJob("x", "api")
	require.NoError(t, o.Submit(job))
	require.Eventually(t, func() bool { return gen.callCount() == 1 }, time.Second, time.Millisecond)

	o.Stop()
	assert.Equal(t, StatusFailed, job.Snapshot().Status)
}

func TestGenerateSync(t *testing.T) {
	gen := &fakeGenerator{errs: []error{&newsletter.RetryableError{StatusCode: 500}}}
	o := newTestOrchestrator(gen, Options{})

	nl, err := o.Generate(context.Background(), "sync")
	require.NoError(t, err)
	assert.Equal(t, "# sync", nl.Markdown)
	assert.Equal(t, 2, gen.callCount())
}

func TestGenerateSyncHonorsContext(t *testing.T) {
	gen := &fakeGenerator{errs: []error{&newsletter.RetryableError{StatusCode: 500}}}
	o := NewOrchestrator(gen, Options{}, discardLogger())
	o.worker.backoff = func(int) time.Duration { return time.Hour }

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := o.Generate(ctx, "x")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
