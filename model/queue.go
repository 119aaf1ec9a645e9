package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/agentgraph/core"
)

// FairQueueOptions configures a FairQueue.
type FairQueueOptions struct {
	// Workers bounds how many completions run against the backend at once.
	// The typical backend is a single GPU-bound service, so the default is 1.
	Workers int
}

// FairQueue wraps a shared Completer with a per-thread round-robin scheduler.
// Requests are grouped by the thread tag from WithThread and dispatched one
// thread at a time in rotation, so a chatty session cannot starve the others.
// Order across threads is not guaranteed; requests within one thread are
// served FIFO.
type FairQueue struct {
	backend Completer
	workers chan struct{}

	mu     sync.Mutex
	queues map[string][]*pendingCall
	ring   []string // threads with pending work, rotation order

	notify    chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

type pendingCall struct {
	ctx    context.Context
	msgs   []core.Message
	result chan callResult
}

type callResult struct {
	text string
	err  error
}

// NewFairQueue creates a FairQueue around the given backend and starts its
// dispatcher. Call Close when the queue is no longer needed.
func NewFairQueue(backend Completer, optFns ...func(o *FairQueueOptions)) *FairQueue {
	opts := FairQueueOptions{Workers: 1}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}

	fq := &FairQueue{
		backend: backend,
		workers: make(chan struct{}, opts.Workers),
		queues:  make(map[string][]*pendingCall),
		notify:  make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go fq.dispatch()
	return fq
}

// Close stops the dispatcher. Pending calls receive a queue closed error.
func (fq *FairQueue) Close() {
	fq.closeOnce.Do(func() { close(fq.done) })
}

// Complete implements Completer by enqueueing the request under its thread
// tag and blocking until the dispatcher has run it against the backend.
func (fq *FairQueue) Complete(ctx context.Context, msgs []core.Message) (string, error) {
	call := &pendingCall{ctx: ctx, msgs: msgs, result: make(chan callResult, 1)}

	key := ThreadFromContext(ctx)
	fq.mu.Lock()
	if _, waiting := fq.queues[key]; !waiting {
		fq.ring = append(fq.ring, key)
	}
	fq.queues[key] = append(fq.queues[key], call)
	fq.mu.Unlock()

	select {
	case fq.notify <- struct{}{}:
	default:
	}

	select {
	case res := <-call.result:
		return res.text, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	case <-fq.done:
		return "", fmt.Errorf("completion queue closed")
	}
}

// Info implements Completer.
func (fq *FairQueue) Info() Info { return fq.backend.Info() }

// dispatch pulls calls in round-robin thread order and runs them on the
// bounded worker pool.
func (fq *FairQueue) dispatch() {
	for {
		call, ok := fq.next()
		if !ok {
			select {
			case <-fq.notify:
				continue
			case <-fq.done:
				return
			}
		}

		select {
		case fq.workers <- struct{}{}:
		case <-fq.done:
			return
		}

		go func(c *pendingCall) {
			defer func() { <-fq.workers }()
			if err := c.ctx.Err(); err != nil {
				c.result <- callResult{err: err}
				return
			}
			text, err := fq.backend.Complete(c.ctx, c.msgs)
			c.result <- callResult{text: text, err: err}
		}(call)
	}
}

// next pops the head call of the next thread in rotation. Threads with
// remaining work are moved to the back of the ring.
func (fq *FairQueue) next() (*pendingCall, bool) {
	fq.mu.Lock()
	defer fq.mu.Unlock()

	if len(fq.ring) == 0 {
		return nil, false
	}

	key := fq.ring[0]
	fq.ring = fq.ring[1:]

	queue := fq.queues[key]
	call := queue[0]
	queue = queue[1:]

	if len(queue) > 0 {
		fq.queues[key] = queue
		fq.ring = append(fq.ring, key)
	} else {
		delete(fq.queues, key)
	}

	return call, true
}
