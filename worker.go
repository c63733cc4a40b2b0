package threadpool

import (
	"log"
	"runtime/debug"

	"github.com/valyala/fastrand"
)

// workerLoop is the body every worker goroutine runs: pull a task via
// findTask, execute it, repeat until findTask reports the pool is closed
// and drained.
func (p *ThreadPool) workerLoop(id int) {
	defer p.wg.Done()

	home := id % len(p.queues)
	if p.cfg.OnWorkerStart != nil {
		p.cfg.OnWorkerStart(id)
	}

	for {
		task, ok := p.findTask(id, home)
		if !ok {
			break
		}
		p.execute(id, task)
	}

	if p.cfg.OnWorkerStop != nil {
		p.cfg.OnWorkerStop(id)
	}
}

// findTask looks for work in home's queue first, then probes up to
// StealFanout*Queues neighbouring queues starting at a randomised offset
// so that many idle workers don't all re-check the same neighbour first,
// and finally falls back to a blocking pop on home. It returns ok=false
// only once home's queue is closed and every probe also came up empty on
// a closed queue.
func (p *ThreadPool) findTask(id, home int) (Task, bool) {
	n := len(p.queues)

	if t, ok := p.queues[home].TryPop(); ok {
		return t, true
	}

	limit := p.cfg.StealFanout * n
	if limit > n-1 {
		limit = n - 1
	}
	if limit > 0 {
		start := int(fastrand.Uint32n(uint32(n)))
		for i := 0; i < limit; i++ {
			idx := (start + i) % n
			if idx == home {
				continue
			}
			if t, ok := p.queues[idx].TryPop(); ok {
				p.counters[id].incStolen()
				return t, true
			}
		}
	}

	return p.queues[home].Pop()
}

// execute runs task, recovering a panic through the configured
// PanicHandler or, absent one, the standard logger. Panics never
// propagate out of a worker goroutine.
func (p *ThreadPool) execute(id int, task Task) {
	defer func() {
		if r := recover(); r != nil {
			p.counters[id].incPanicked()
			if p.cfg.PanicHandler != nil {
				p.cfg.PanicHandler(r)
			} else {
				log.Printf("threadpool: worker %d: task panicked: %v\n%s", id, r, debug.Stack())
			}
		}
		p.counters[id].incExecuted()
	}()
	task()
}
