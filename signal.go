package threadpool

import (
	"context"
	"sync"
	"time"
)

// CountingSignal is a non-negative counting semaphore with closure
// semantics. It is the reference implementation the pool's other
// primitives build on: a mutex and condition variable guard a plain
// integer count and a "closed" flag.
//
// Once closed, Post is accepted but effectively lost — a post after
// closure increments nothing a future Wait can observe — and every
// current and future Wait returns false once the count reaches zero.
type CountingSignal struct {
	mu     sync.Mutex
	cond   *sync.Cond
	count  int
	closed bool
}

// NewCountingSignal creates a CountingSignal with the given initial count.
func NewCountingSignal(initial int) *CountingSignal {
	s := &CountingSignal{count: initial}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Post increments the count and wakes exactly one waiter.
//
// A Post that arrives after Close is accepted but ignored: the count is
// not incremented, so no Wait can consume it and the post is effectively
// lost.
func (s *CountingSignal) Post() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.count++
	s.mu.Unlock()
	s.cond.Signal()
}

// Wait blocks until the count is positive or the signal is closed. It
// returns true if a unit was consumed, false if the signal was (or became)
// closed while empty.
func (s *CountingSignal) Wait() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.count == 0 && !s.closed {
		s.cond.Wait()
	}
	if s.count > 0 {
		s.count--
		return true
	}
	return false
}

// TryWait attempts to consume a unit without blocking. It returns false
// immediately if the count is zero, regardless of closed state, and never
// decrements the count on failure.
func (s *CountingSignal) TryWait() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.count > 0 {
		s.count--
		return true
	}
	return false
}

// WaitFor blocks until the count is positive, the signal closes, or d
// elapses. It returns true iff a unit was consumed.
func (s *CountingSignal) WaitFor(d time.Duration) bool {
	if d <= 0 {
		return s.TryWait()
	}
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return s.WaitContext(ctx)
}

// WaitContext blocks until the count is positive, the signal closes, or
// ctx is done. It returns true iff a unit was consumed. This is the
// Go-native analogue of wait_until(deadline): callers pass
// context.WithDeadline(ctx, t) to wait until an absolute time.
func (s *CountingSignal) WaitContext(ctx context.Context) bool {
	// A condition variable has no native context wakeup, so a watcher
	// goroutine nudges every waiter once ctx is done.
	stop := context.AfterFunc(ctx, func() {
		s.cond.Broadcast()
	})
	defer stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	for s.count == 0 && !s.closed {
		if ctx.Err() != nil {
			return false
		}
		s.cond.Wait()
	}
	if s.count > 0 {
		s.count--
		return true
	}
	return false
}

// Close marks the signal closed and wakes every waiter. Once closed, the
// signal stays closed; subsequent Wait calls on an empty count return
// false immediately.
func (s *CountingSignal) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cond.Broadcast()
}

// Count returns a snapshot of the current count. Intended for diagnostics
// and tests; the value may be stale immediately under concurrent use.
func (s *CountingSignal) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Closed reports whether Close has been called.
func (s *CountingSignal) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
