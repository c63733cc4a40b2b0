// Package threadpool provides a work-stealing thread pool built over
// lock-free bounded queues synchronised by a hybrid spin/kernel counting
// signal.
//
// Three subsystems compose the pool:
//
//   - [CountingSignal] and [HybridCountingSignal]: a non-negative counting
//     semaphore and a signed fast-path variant that avoids kernel blocking
//     transitions when producers and consumers are balanced.
//   - [RingQueue] and [TicketQueue]: bounded multi-producer/multi-consumer
//     queues. RingQueue coordinates via a per-caller reservation side table;
//     TicketQueue coordinates via monotonic ticket/commit counters gated by
//     two HybridCountingSignals.
//   - [ThreadPool]: owns a fixed set of queues and workers, distributes
//     submissions round-robin, and has workers attempt work-stealing from
//     neighbouring queues before blocking on their own.
//
// # Quick start
//
//	pool, err := threadpool.NewThreadPool(
//	    threadpool.WithWorkers(8),
//	    threadpool.WithQueues(4),
//	    threadpool.WithQueueCapacity(256),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer pool.Close()
//
//	pool.Submit(func() {
//	    fmt.Println("task executed")
//	})
//
//	future, err := threadpool.SubmitFuture(pool, func() (int, error) {
//	    return 42, nil
//	})
//	result, err := future.Get()
//
// # Shutdown
//
// [ThreadPool.Close] closes every queue and joins every worker. Tasks
// already committed to a slot run to completion; a task in flight to a
// queue via the blocking fallback path may observe the queue closing first
// and is dropped, in which case Submit returns ErrQueueClosed, per the
// queue contract (see [Queue]).
//
// # Thread safety
//
// All exported methods are safe for concurrent use unless documented
// otherwise.
package threadpool
