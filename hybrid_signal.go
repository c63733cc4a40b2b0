package threadpool

import (
	"context"
	"sync/atomic"
	"time"
)

// HybridCountingSignal is a counting signal tuned for the case where posts
// and waits are usually close together in time: it spins briefly on an
// atomic counter before falling back to parking on an inner CountingSignal.
//
// The counter is signed and may go negative: a negative value records the
// number of waiters currently parked (or about to park) on the inner
// signal. This mirrors the fast_semaphore design it is grounded on, where
// a negative count is the inner semaphore's debt.
type HybridCountingSignal struct {
	count int64 // atomic
	inner *CountingSignal
	spin  int
}

// NewHybridCountingSignal creates a HybridCountingSignal with the given
// initial count and spin budget. A spin budget of zero disables spinning
// entirely and every Wait parks immediately on the inner signal.
func NewHybridCountingSignal(initial int, spinBudget int) *HybridCountingSignal {
	return &HybridCountingSignal{
		count: int64(initial),
		inner: NewCountingSignal(0),
		spin:  spinBudget,
	}
}

// Post increments the count with release ordering and, if the prior count
// was negative (meaning at least one waiter had already committed to
// parking), wakes one parked waiter via the inner signal.
func (h *HybridCountingSignal) Post() {
	old := atomic.AddInt64(&h.count, 1) - 1
	if old < 0 {
		h.inner.Post()
	}
}

// TryWait attempts to consume a unit without blocking or spinning. It
// succeeds only if the count is strictly positive at the moment of the
// CAS.
func (h *HybridCountingSignal) TryWait() bool {
	for {
		cur := atomic.LoadInt64(&h.count)
		if cur <= 0 {
			return false
		}
		if atomic.CompareAndSwapInt64(&h.count, cur, cur-1) {
			return true
		}
	}
}

// Wait consumes a unit, spinning for up to the configured spin budget
// before committing to a park on the inner signal. It blocks indefinitely
// until a unit is available or the signal is closed.
func (h *HybridCountingSignal) Wait() bool {
	if h.TryWait() {
		return true
	}
	for i := 0; i < h.spin; i++ {
		if h.TryWait() {
			return true
		}
	}
	old := atomic.AddInt64(&h.count, -1) + 1
	if old > 0 {
		return true
	}
	return h.inner.Wait()
}

// WaitFor blocks until a unit is available, the signal closes, or d
// elapses, whichever comes first. It returns true iff a unit was consumed.
//
// The original fast_semaphore this type is grounded on has a wait_for that
// ignores its timeout argument entirely and degrades to a non-blocking
// try_wait; this implementation honours the timeout by delegating to
// WaitContext with a deadline, which is the fix called for where this
// behaviour is flagged for reconsideration.
func (h *HybridCountingSignal) WaitFor(d time.Duration) bool {
	if d <= 0 {
		return h.TryWait()
	}
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return h.WaitContext(ctx)
}

// WaitContext blocks until a unit is available, the signal closes, or ctx
// is done. It returns true iff a unit was consumed.
func (h *HybridCountingSignal) WaitContext(ctx context.Context) bool {
	if h.TryWait() {
		return true
	}
	for i := 0; i < h.spin; i++ {
		if h.TryWait() {
			return true
		}
		if ctx.Err() != nil {
			return false
		}
	}
	old := atomic.AddInt64(&h.count, -1) + 1
	if old > 0 {
		return true
	}
	ok := h.inner.WaitContext(ctx)
	if !ok {
		// We committed to the decrement above but didn't actually
		// consume a posted unit; undo it.
		atomic.AddInt64(&h.count, 1)
	}
	return ok
}

// Close marks the signal closed and wakes every parked waiter. Waiters
// currently spinning do not check for closure while spinning; they
// observe it once they exhaust their spin budget and reach the inner
// signal.
func (h *HybridCountingSignal) Close() {
	h.inner.Close()
}

// Count returns a snapshot of the current signed count. A negative value
// is the number of waiters parked on the inner signal. Intended for
// diagnostics and tests.
func (h *HybridCountingSignal) Count() int64 {
	return atomic.LoadInt64(&h.count)
}
