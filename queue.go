package threadpool

import "context"

// Task is a unit of work submitted to a ThreadPool. A nil Task is reserved
// as the internal "no task" sentinel some backends return from Pop/TryPop
// on shutdown; callers never observe it directly through Submit.
type Task func()

// Queue is the contract every queue backend satisfies. It is intentionally
// narrow: push/pop pairs in blocking and non-blocking form, closure, and
// the two size queries a caller needs to make scheduling decisions without
// reaching into backend internals.
//
// Implementations: [BlockingQueue] (unbounded), [FixedBlockingQueue]
// (bounded, semaphore-gated), [TicketQueue] (bounded, lock-free, the
// pool's default backend) and a RingQueue-backed facade (bounded,
// lock-free, per-caller reservation slots).
type Queue[T any] interface {
	// Push blocks until a slot is available or the queue is closed, then
	// enqueues v. It returns ErrQueueClosed if the queue closed before a
	// slot became available.
	Push(v T) error

	// TryPush enqueues v without blocking. It returns ErrQueueFull if no
	// slot is immediately available, or ErrQueueClosed if the queue is
	// closed.
	TryPush(v T) error

	// Pop blocks until an item is available or the queue is closed and
	// drained, then returns it. ok is false only once the queue is closed
	// and empty.
	Pop() (v T, ok bool)

	// TryPop returns an item without blocking. ok is false if none is
	// immediately available.
	TryPop() (v T, ok bool)

	// PopContext blocks until an item is available, the queue is closed
	// and drained, or ctx is done. ok is false in the latter two cases.
	PopContext(ctx context.Context) (v T, ok bool)

	// Close marks the queue closed. Pending and future Push calls fail
	// with ErrQueueClosed; Pop calls continue to drain whatever remains
	// before also failing.
	Close()

	// Closed reports whether Close has been called.
	Closed() bool

	// Empty reports whether the queue currently holds no items.
	Empty() bool

	// Size returns the approximate number of items currently queued.
	Size() int
}
