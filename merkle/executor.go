// Copyright 2024 The blockmerkle Authors
// This file is part of the blockmerkle library.

package merkle

import "golang.org/x/sync/errgroup"

// Executor is the "submit a unit of work that returns a value
// asynchronously" capability the core consumes. It is deliberately the
// only way this package reaches CPU-bound work out to a thread pool; the
// pool's provisioning is the caller's concern, not this package's.
type Executor interface {
	// Submit runs fn on the executor and returns a Future for its result.
	// Submit never waits for fn to complete; an implementation may block
	// until it has capacity to start fn (see Pool.Submit).
	Submit(fn func() ([]Digest, error)) *Future
}

// Future is the result of one Submit call.
type Future struct {
	done chan struct{}
	val  []Digest
	err  error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func (f *Future) resolve(v []Digest, err error) {
	f.val, f.err = v, err
	close(f.done)
}

// Await blocks until the submitted task has completed.
func (f *Future) Await() ([]Digest, error) {
	<-f.done
	return f.val, f.err
}

// Pool is the default Executor: a worker pool bounded to run at most
// Parallelism tasks at a time, built on golang.org/x/sync/errgroup so the
// whole set of outstanding tasks can be drained with a single Wait call
// and the first worker error surfaced once.
type Pool struct {
	group *errgroup.Group
}

// NewPool returns an Executor that runs submitted work on at most
// parallelism goroutines at a time. A parallelism <= 0 means unbounded.
func NewPool(parallelism int) *Pool {
	g := new(errgroup.Group)
	if parallelism > 0 {
		g.SetLimit(parallelism)
	}
	return &Pool{group: g}
}

// Submit implements Executor. When the pool has a positive parallelism
// and that many tasks are already running, Submit blocks until one of them
// finishes.
func (p *Pool) Submit(fn func() ([]Digest, error)) *Future {
	fut := newFuture()
	p.group.Go(func() error {
		v, err := fn()
		fut.resolve(v, err)
		return err
	})
	return fut
}

// Wait blocks until every task ever submitted through this pool has
// completed, returning the first error encountered, if any. Hasher does
// not call this itself (its own sequencers already await every future in
// order); it is exposed for callers that want to shut a pool down cleanly
// between blocks.
func (p *Pool) Wait() error {
	return p.group.Wait()
}
