package threadpool

import "sync/atomic"

// WorkerStats is a snapshot of one worker goroutine's counters.
type WorkerStats struct {
	// ID is the worker's index in [0, Workers).
	ID int
	// HomeQueue is the index of the queue this worker drains by default
	// before falling back to blocking.
	HomeQueue int
	// TasksExecuted is the number of tasks this worker has run to
	// completion, including ones that panicked.
	TasksExecuted uint64
	// TasksStolen is the number of tasks this worker picked up from a
	// queue other than its home queue.
	TasksStolen uint64
	// TasksPanicked is the number of tasks this worker ran that panicked.
	TasksPanicked uint64
}

// Stats is a point-in-time snapshot of a ThreadPool's activity. Every
// field is a snapshot taken without a global lock, so counters from
// different workers may reflect slightly different instants.
type Stats struct {
	Workers        int
	Queues         int
	TasksSubmitted uint64
	TasksExecuted  uint64
	TasksPanicked  uint64
	PerWorker      []WorkerStats
}

// workerCounters holds one worker's live counters, cache-line padded so
// adjacent workers incrementing their own counters don't contend over the
// same cache line.
type workerCounters struct {
	executed uint64
	stolen   uint64
	panicked uint64
	_        [40]byte // pad struct to 64 bytes
}

func (c *workerCounters) incExecuted() { atomic.AddUint64(&c.executed, 1) }
func (c *workerCounters) incStolen()   { atomic.AddUint64(&c.stolen, 1) }
func (c *workerCounters) incPanicked() { atomic.AddUint64(&c.panicked, 1) }

func (c *workerCounters) snapshot(id, home int) WorkerStats {
	return WorkerStats{
		ID:            id,
		HomeQueue:     home,
		TasksExecuted: atomic.LoadUint64(&c.executed),
		TasksStolen:   atomic.LoadUint64(&c.stolen),
		TasksPanicked: atomic.LoadUint64(&c.panicked),
	}
}
