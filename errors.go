package threadpool

import "fmt"

// ThreadPoolError represents an error raised by the pool or one of its
// underlying queues. It wraps an underlying error, if any, and supports
// errors.Is / errors.As via Unwrap.
type ThreadPoolError struct {
	msg string
	err error
}

// Error implements the error interface.
func (e *ThreadPoolError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("threadpool: %s: %v", e.msg, e.err)
	}
	return fmt.Sprintf("threadpool: %s", e.msg)
}

// Unwrap returns the underlying error, if any.
func (e *ThreadPoolError) Unwrap() error {
	return e.err
}

// Sentinel errors returned by the pool and its queues.
var (
	// ErrPoolClosed is returned when Submit or SubmitFuture is called after
	// Close has started.
	ErrPoolClosed = &ThreadPoolError{msg: "pool is closed"}

	// ErrNilTask is returned when a nil Task is submitted. Nil is reserved
	// internally as the "no task" sentinel returned by Pop/TryPop.
	ErrNilTask = &ThreadPoolError{msg: "task is nil"}

	// ErrQueueClosed is returned by a queue's Push/TryPush once Close has
	// been called and no more items can be produced. Pop and TryPop report
	// a closed, drained queue with ok=false instead.
	ErrQueueClosed = &ThreadPoolError{msg: "queue is closed"}

	// ErrQueueFull is returned by TryPush when the queue has no open slots.
	ErrQueueFull = &ThreadPoolError{msg: "queue is full"}
)

// errInvalidConfig builds a construction-time configuration error.
func errInvalidConfig(msg string) error {
	return &ThreadPoolError{msg: "invalid config: " + msg}
}

// PanicError wraps a value recovered from a panicking task along with a
// captured stack trace. Futures resolve with a PanicError as their error
// when the underlying callable panics.
type PanicError struct {
	Value any
	Stack string
}

// Error implements the error interface.
func (p *PanicError) Error() string {
	return fmt.Sprintf("threadpool: task panicked: %v", p.Value)
}
