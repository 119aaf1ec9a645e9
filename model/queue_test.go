package model

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentgraph/core"
)

// blockingCompleter releases completions only when told to, recording the
// thread tag of every call in service order.
type blockingCompleter struct {
	mu      sync.Mutex
	served  []string
	release chan struct{}
}

func newBlockingCompleter() *blockingCompleter {
	return &blockingCompleter{release: make(chan struct{})}
}

func (b *blockingCompleter) Complete(ctx context.Context, msgs []core.Message) (string, error) {
	b.mu.Lock()
	b.served = append(b.served, ThreadFromContext(ctx))
	b.mu.Unlock()

	select {
	case <-b.release:
		return "done", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (b *blockingCompleter) Info() Info { return Info{Name: "blocking", Provider: "mock"} }

func (b *blockingCompleter) servedThreads() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.served))
	copy(out, b.served)
	return out
}

func TestFairQueue_PassesThrough(t *testing.T) {
	mock := NewMockCompleter()
	mock.Enqueue("hello")

	fq := NewFairQueue(mock)
	defer fq.Close()

	ctx := WithThread(context.Background(), "t1")
	text, err := fq.Complete(ctx, []core.Message{core.NewHumanMessage("hi")})
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
	assert.Equal(t, "mock", fq.Info().Name)
}

func TestFairQueue_RoundRobinAcrossThreads(t *testing.T) {
	backend := newBlockingCompleter()
	fq := NewFairQueue(backend) // single worker
	defer fq.Close()

	var wg sync.WaitGroup
	start := func(thread string, n int) {
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ctx := WithThread(context.Background(), thread)
				_, _ = fq.Complete(ctx, []core.Message{core.NewHumanMessage("x")})
			}()
			// Stagger so the chatty thread queues first
			time.Sleep(10 * time.Millisecond)
		}
	}

	// Thread a floods the queue, then b submits one request.
	start("a", 4)
	start("b", 1)

	// Let the dispatcher pick up all pending work, then drain.
	time.Sleep(50 * time.Millisecond)
	close(backend.release)
	wg.Wait()

	served := backend.servedThreads()
	require.Len(t, served, 5)

	// With a single worker, b must be served before a's queue is drained.
	posB := -1
	for i, thread := range served {
		if thread == "b" {
			posB = i
			break
		}
	}
	require.NotEqual(t, -1, posB)
	assert.Less(t, posB, 4, "thread b should not wait behind all of thread a's backlog")
}

func TestFairQueue_FIFOWithinThread(t *testing.T) {
	mock := NewMockCompleter()
	mock.Enqueue("one", "two", "three")

	fq := NewFairQueue(mock)
	defer fq.Close()

	ctx := WithThread(context.Background(), "t1")
	for _, want := range []string{"one", "two", "three"} {
		text, err := fq.Complete(ctx, []core.Message{core.NewHumanMessage("x")})
		require.NoError(t, err)
		assert.Equal(t, want, text)
	}
}

func TestFairQueue_ContextCancellation(t *testing.T) {
	backend := newBlockingCompleter()
	fq := NewFairQueue(backend)
	defer fq.Close()
	defer close(backend.release)

	ctx, cancel := context.WithCancel(WithThread(context.Background(), "t1"))
	cancel()

	_, err := fq.Complete(ctx, []core.Message{core.NewHumanMessage("x")})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFairQueue_Close(t *testing.T) {
	fq := NewFairQueue(NewMockCompleter())
	fq.Close()
	// Close is idempotent
	fq.Close()

	_, err := fq.Complete(WithThread(context.Background(), "t1"), []core.Message{core.NewHumanMessage("x")})
	assert.Error(t, err)
}
