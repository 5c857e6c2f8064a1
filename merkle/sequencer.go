// Copyright 2024 The blockmerkle Authors
// This file is part of the blockmerkle library.

package merkle

// sequencer is the pipeline's chain-of-completions primitive: it lets a
// single producer push futures as it dispatches work, while a single
// background goroutine awaits and applies their results strictly in push
// order, regardless of the order the underlying executor actually finishes
// them in. This is what lets leaf/node dispatch run in parallel while the
// digests that result stay in leaf-stream order.
type sequencer struct {
	mu     chan struct{} // 1-buffered mutex, never blocks a push
	queue  []*Future
	notify chan struct{}
	closed bool

	drained chan error
}

// newSequencer starts the background consumer. apply is called once per
// queued future, in push order, with that future's resolved digests; the
// first error returned by apply (or produced by the future itself) is
// sticky and stops further application, though the queue still drains.
func newSequencer(apply func([]Digest) error) *sequencer {
	s := &sequencer{
		mu:      make(chan struct{}, 1),
		notify:  make(chan struct{}, 1),
		drained: make(chan error, 1),
	}
	s.mu <- struct{}{}
	go s.run(apply)
	return s
}

func (s *sequencer) lock()   { <-s.mu }
func (s *sequencer) unlock() { s.mu <- struct{}{} }

func (s *sequencer) wake() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// push enqueues a future whose digests will be applied, in submission
// order, relative to every other future pushed to this sequencer. push
// never suspends the caller.
func (s *sequencer) push(f *Future) {
	s.lock()
	s.queue = append(s.queue, f)
	s.unlock()
	s.wake()
}

// close marks the sequencer as having no further pushes coming; drain
// uses this to know when the queue can be considered fully applied.
func (s *sequencer) close() {
	s.lock()
	s.closed = true
	s.unlock()
	s.wake()
}

func (s *sequencer) run(apply func([]Digest) error) {
	var failed error
	for {
		s.lock()
		if len(s.queue) == 0 {
			if s.closed {
				s.unlock()
				s.drained <- failed
				return
			}
			s.unlock()
			<-s.notify
			continue
		}
		f := s.queue[0]
		s.queue = s.queue[1:]
		s.unlock()

		if failed != nil {
			continue // keep draining without applying once something has failed
		}
		digests, err := f.Await()
		if err != nil {
			failed = err
			continue
		}
		if err := apply(digests); err != nil {
			failed = err
		}
	}
}

// drain closes the sequencer to further pushes and blocks until every
// previously pushed future has resolved and been applied in order,
// returning the first error encountered, if any. Safe to call once per
// sequencer lifetime (the finalizer calls it exactly once per level).
func (s *sequencer) drain() error {
	s.close()
	return <-s.drained
}
