package threadpool

import (
	"runtime"
)

// Backend selects which Queue[Task] implementation the pool builds its
// queues from. TicketQueue is the default — it is, per design, "the queue
// actually used by the pool" — but any conforming backend may be selected.
type Backend int

const (
	// TicketBackend uses TicketQueue: bounded, atomic-ticketed, gated by
	// two HybridCountingSignals. This is the default.
	TicketBackend Backend = iota
	// RingBackend uses RingQueue wrapped behind an internal slot lease so
	// it satisfies the generic Queue[T] contract.
	RingBackend
	// BlockingBackend uses the simple mutex+condvar BlockingQueue.
	BlockingBackend
	// FixedBlockingBackend uses the semaphore-gated FixedBlockingQueue.
	FixedBlockingBackend
)

// Config holds all configuration for constructing a ThreadPool.
type Config struct {
	// Workers is the number of worker goroutines. Must be >= Queues.
	// Defaults to runtime.GOMAXPROCS(0).
	Workers int

	// Queues is the number of independent queues submissions rotate over.
	// Defaults to runtime.GOMAXPROCS(0).
	Queues int

	// QueueCapacity is the capacity of each queue. Must be a power of two.
	// Defaults to 256.
	QueueCapacity int

	// Backend selects the queue implementation. Defaults to TicketBackend.
	Backend Backend

	// StealFanout is K in spec terms: submitters and workers probe up to
	// K*Queues queues before falling back to a blocking operation on their
	// own queue. Defaults to 2.
	StealFanout int

	// SpinBudget is the number of spin iterations a HybridCountingSignal
	// performs before parking on its inner CountingSignal. Zero means pure
	// mutex/condvar; a very large value approximates pure spinning.
	// Defaults to 10000.
	SpinBudget int

	// PanicHandler, if set, is invoked with the recovered value whenever a
	// task submitted via Submit panics. If nil, the panic is logged via the
	// standard library log package.
	PanicHandler func(any)

	// OnWorkerStart, if set, is called once from within each worker
	// goroutine before it enters its run loop.
	OnWorkerStart func(workerID int)

	// OnWorkerStop, if set, is called once from within each worker
	// goroutine after it has drained its queue and is about to exit.
	OnWorkerStop func(workerID int)
}

// Option configures a Config.
type Option func(*Config)

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	n := runtime.GOMAXPROCS(0)
	return Config{
		Workers:       n,
		Queues:        n,
		QueueCapacity: 256,
		Backend:       TicketBackend,
		StealFanout:   2,
		SpinBudget:    10000,
	}
}

// WithWorkers sets the number of worker goroutines.
func WithWorkers(n int) Option {
	return func(c *Config) { c.Workers = n }
}

// WithQueues sets the number of independent submission queues.
func WithQueues(n int) Option {
	return func(c *Config) { c.Queues = n }
}

// WithQueueCapacity sets the per-queue capacity. Must be a power of two.
func WithQueueCapacity(n int) Option {
	return func(c *Config) { c.QueueCapacity = n }
}

// WithBackend selects the queue implementation backing the pool.
func WithBackend(b Backend) Option {
	return func(c *Config) { c.Backend = b }
}

// WithStealFanout sets K, the number of queues probed before falling back
// to a blocking operation.
func WithStealFanout(k int) Option {
	return func(c *Config) { c.StealFanout = k }
}

// WithSpinBudget sets the spin iteration budget for HybridCountingSignal.
func WithSpinBudget(n int) Option {
	return func(c *Config) { c.SpinBudget = n }
}

// WithPanicHandler sets a callback invoked when a task panics.
func WithPanicHandler(f func(any)) Option {
	return func(c *Config) { c.PanicHandler = f }
}

// WithWorkerHooks sets lifecycle hooks invoked on worker start and stop.
func WithWorkerHooks(onStart, onStop func(workerID int)) Option {
	return func(c *Config) {
		c.OnWorkerStart = onStart
		c.OnWorkerStop = onStop
	}
}

// validate checks the configuration for construction-time invariants.
func (c *Config) validate() error {
	if c.Workers <= 0 {
		return errInvalidConfig("Workers must be > 0")
	}
	if c.Queues <= 0 {
		return errInvalidConfig("Queues must be > 0")
	}
	if c.Workers < c.Queues {
		return errInvalidConfig("Workers must be >= Queues")
	}
	if !isPowerOfTwo(c.QueueCapacity) {
		return errInvalidConfig("QueueCapacity must be a power of two")
	}
	if c.StealFanout <= 0 {
		return errInvalidConfig("StealFanout must be > 0")
	}
	if c.SpinBudget < 0 {
		return errInvalidConfig("SpinBudget must be >= 0")
	}
	return nil
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
