package threadpool

import (
	"sync"
	"sync/atomic"
)

// ThreadPool is a fixed-size work-stealing thread pool. It owns Queues
// independent queues and Workers worker goroutines; submissions rotate
// across queues round-robin, and a worker that finds its own queue empty
// probes up to StealFanout*Queues neighbouring queues before falling back
// to a blocking pop on its home queue.
type ThreadPool struct {
	cfg    Config
	queues []Queue[Task]

	nextIndex atomic.Uint64
	submitted atomic.Uint64

	counters []workerCounters

	wg     sync.WaitGroup
	closed atomic.Bool
}

// NewThreadPool constructs a ThreadPool from the given options, applied on
// top of [DefaultConfig]. It returns an error if the resulting
// configuration is invalid, e.g. Workers < Queues or QueueCapacity is not
// a power of two.
func NewThreadPool(opts ...Option) (*ThreadPool, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	queues := make([]Queue[Task], cfg.Queues)
	for i := range queues {
		q, err := newTaskQueue(cfg)
		if err != nil {
			return nil, err
		}
		queues[i] = q
	}

	p := &ThreadPool{
		cfg:      cfg,
		queues:   queues,
		counters: make([]workerCounters, cfg.Workers),
	}

	p.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go p.workerLoop(i)
	}
	return p, nil
}

func newTaskQueue(cfg Config) (Queue[Task], error) {
	switch cfg.Backend {
	case TicketBackend:
		return NewTicketQueue[Task](cfg.QueueCapacity, cfg.SpinBudget), nil
	case RingBackend:
		leases := cfg.Workers + cfg.Queues
		return NewRingQueue[Task](cfg.QueueCapacity, leases).NewQueue(), nil
	case BlockingBackend:
		return NewBlockingQueue[Task](), nil
	case FixedBlockingBackend:
		return NewFixedBlockingQueue[Task](cfg.QueueCapacity), nil
	default:
		return nil, errInvalidConfig("unknown backend")
	}
}

// Submit enqueues task for execution. It rotates the submission index
// across queues, probes up to StealFanout*Queues of them non-blocking,
// and falls back to a blocking push on the rotated queue if every probe
// found its target full. It returns ErrPoolClosed if Close has been
// called, or ErrNilTask if task is nil.
func (p *ThreadPool) Submit(task Task) error {
	if task == nil {
		return ErrNilTask
	}
	if p.closed.Load() {
		return ErrPoolClosed
	}

	n := len(p.queues)
	start := int(p.nextIndex.Add(1)-1) % n
	limit := p.cfg.StealFanout * n

	for i := 0; i < limit; i++ {
		idx := (start + i) % n
		if err := p.queues[idx].TryPush(task); err == nil {
			p.submitted.Add(1)
			return nil
		}
	}

	if err := p.queues[start].Push(task); err != nil {
		return err
	}
	p.submitted.Add(1)
	return nil
}

// SubmitFuture submits fn for execution and returns a Future that
// resolves with fn's result, or a *PanicError if fn panics. It is a free
// function rather than a method because Go methods cannot introduce new
// type parameters.
func SubmitFuture[R any](p *ThreadPool, fn func() (R, error)) (*Future[R], error) {
	fut := newFuture[R]()
	if err := p.Submit(wrapFuture(fn, fut)); err != nil {
		return nil, err
	}
	return fut, nil
}

// Close marks every queue closed and blocks until every worker has
// drained its queue and exited. It is idempotent: calling Close more than
// once has no effect beyond the first call.
func (p *ThreadPool) Close() {
	if !p.closed.CompareAndSwap(false, true) {
		return
	}
	for _, q := range p.queues {
		q.Close()
	}
	p.wg.Wait()
}

// IsClosed reports whether Close has been called.
func (p *ThreadPool) IsClosed() bool {
	return p.closed.Load()
}

// NumWorkers returns the number of worker goroutines.
func (p *ThreadPool) NumWorkers() int {
	return p.cfg.Workers
}

// NumQueues returns the number of queues.
func (p *ThreadPool) NumQueues() int {
	return len(p.queues)
}

// Stats returns a point-in-time snapshot of the pool's activity.
func (p *ThreadPool) Stats() Stats {
	s := Stats{
		Workers:        p.cfg.Workers,
		Queues:         len(p.queues),
		TasksSubmitted: p.submitted.Load(),
		PerWorker:      make([]WorkerStats, len(p.counters)),
	}
	for i := range p.counters {
		ws := p.counters[i].snapshot(i, i%len(p.queues))
		s.PerWorker[i] = ws
		s.TasksExecuted += ws.TasksExecuted
		s.TasksPanicked += ws.TasksPanicked
	}
	return s
}
