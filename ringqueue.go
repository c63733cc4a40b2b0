package threadpool

import (
	"context"
	"runtime"
	"sync/atomic"
)

// ringSentinel marks a reservation row as having no in-flight operation,
// the same role ULONG_MAX plays as the "no thread id registered here"
// marker in the ring queue this type is grounded on.
const ringSentinel = ^uint64(0)

// ringSlot is one element of the backing ring together with a sequence
// number a producer or consumer spins on to know when its ticket's slot
// has actually been published or freed.
type ringSlot[T any] struct {
	seq atomic.Uint64
	val T
}

// ringPos is one row of the reservation side table: the head and tail
// tickets a single lease currently has reserved, or ringSentinel if it has
// no operation in flight. Producers scan every row's tail to find the
// slowest active consumer before reserving a new head ticket, and
// consumers rely on the head/tail counters symmetrically, which is how
// the original avoids ever reserving past a slot that is still live.
type ringPos struct {
	head atomic.Uint64
	tail atomic.Uint64
}

// RingQueue is a bounded multi-producer/multi-consumer ring queue whose
// original form coordinates producers and consumers through a
// thread-local id populated once per thread. Go has no equivalent of
// automatic per-thread storage that a generic library can rely on, so
// this port makes that registration explicit: callers acquire a lease
// with [RingQueue.AcquireLease], use it across a sequence of operations,
// and release it with [RingQueue.ReleaseLease] when done. The lease is
// the thread id.
//
// Push and pop exist only in leased form ([RingQueue.PushLease],
// [RingQueue.PopLease] and their variants); a caller that just wants the ordinary [Queue] contract
// without managing leases should use the queue this type's NewQueue
// constructor returns, which leases and releases automatically around
// every call. The pool itself never needs to reach for the leased API
// directly since [TicketQueue] is its default backend.
type RingQueue[T any] struct {
	buf      []ringSlot[T]
	mask     uint64
	capacity uint64
	head     atomic.Uint64
	tail     atomic.Uint64
	pos      []ringPos
	leases   *slotPool
	closed   atomic.Bool
}

// NewRingQueue creates a RingQueue with the given capacity (must be a
// power of two) and the given maximum number of concurrent leases —
// the combined number of producers and consumers the queue must support
// at once, analogous to max(n_consumers, n_producers) sizing the
// reservation table in the original.
func NewRingQueue[T any](capacity int, maxLeases int) *RingQueue[T] {
	if capacity <= 0 || capacity&(capacity-1) != 0 {
		panic("threadpool: RingQueue capacity must be a power of two")
	}
	q := &RingQueue[T]{
		buf:      make([]ringSlot[T], capacity),
		mask:     uint64(capacity - 1),
		capacity: uint64(capacity),
		pos:      make([]ringPos, maxLeases),
		leases:   newSlotPool(maxLeases),
	}
	for i := range q.buf {
		q.buf[i].seq.Store(uint64(i))
	}
	for i := range q.pos {
		q.pos[i].head.Store(ringSentinel)
		q.pos[i].tail.Store(ringSentinel)
	}
	return q
}

// AcquireLease blocks until a reservation row is free and returns its id.
func (q *RingQueue[T]) AcquireLease() int {
	return q.leases.acquire()
}

// TryAcquireLease returns a free reservation row's id without blocking,
// or ok=false if every row is currently leased.
func (q *RingQueue[T]) TryAcquireLease() (id int, ok bool) {
	return q.leases.tryAcquire()
}

// ReleaseLease returns a lease acquired from AcquireLease/TryAcquireLease.
func (q *RingQueue[T]) ReleaseLease(id int) {
	q.leases.release(id)
}

func (q *RingQueue[T]) minTail() uint64 {
	m := q.tail.Load()
	for i := range q.pos {
		if t := q.pos[i].tail.Load(); t != ringSentinel && t < m {
			m = t
		}
	}
	return m
}

func (q *RingQueue[T]) minHead() uint64 {
	m := q.head.Load()
	for i := range q.pos {
		if h := q.pos[i].head.Load(); h != ringSentinel && h < m {
			m = h
		}
	}
	return m
}

func (q *RingQueue[T]) tryReserveHead(id int) (uint64, bool) {
	if q.closed.Load() {
		return 0, false
	}
	h := q.head.Load()
	if h-q.minTail() >= q.capacity {
		return 0, false
	}
	q.pos[id].head.Store(h)
	if !q.head.CompareAndSwap(h, h+1) {
		q.pos[id].head.Store(ringSentinel)
		return 0, false
	}
	return h, true
}

func (q *RingQueue[T]) reserveHead(id int) (uint64, bool) {
	for {
		if h, ok := q.tryReserveHead(id); ok {
			return h, true
		}
		if q.closed.Load() && q.head.Load()-q.minTail() < q.capacity {
			// tryReserveHead refuses every reservation once the
			// queue is closed, so this retry also fails and the
			// push reports closure below.
			if h, ok := q.tryReserveHead(id); ok {
				return h, true
			}
		}
		if q.closed.Load() {
			return 0, false
		}
		runtime.Gosched()
	}
}

func (q *RingQueue[T]) tryReserveTail(id int) (uint64, bool) {
	t := q.tail.Load()
	if t >= q.minHead() {
		return 0, false
	}
	q.pos[id].tail.Store(t)
	if !q.tail.CompareAndSwap(t, t+1) {
		q.pos[id].tail.Store(ringSentinel)
		return 0, false
	}
	return t, true
}

// PushLease enqueues v under the given lease, blocking until a slot frees
// up or the queue closes.
func (q *RingQueue[T]) PushLease(id int, v T) error {
	h, ok := q.reserveHead(id)
	if !ok {
		return ErrQueueClosed
	}
	q.publishPush(id, h, v)
	return nil
}

// TryPushLease enqueues v under the given lease without blocking.
func (q *RingQueue[T]) TryPushLease(id int, v T) error {
	if q.closed.Load() {
		return ErrQueueClosed
	}
	h, ok := q.tryReserveHead(id)
	if !ok {
		return ErrQueueFull
	}
	q.publishPush(id, h, v)
	return nil
}

func (q *RingQueue[T]) publishPush(id int, h uint64, v T) {
	slot := &q.buf[h&q.mask]
	for slot.seq.Load() != h {
		runtime.Gosched()
	}
	slot.val = v
	slot.seq.Store(h + 1)
	q.pos[id].head.Store(ringSentinel)
}

// PopLease dequeues under the given lease, blocking until an item is
// available or the queue closes and drains.
func (q *RingQueue[T]) PopLease(id int) (v T, ok bool) {
	for {
		if t, ok := q.tryReserveTail(id); ok {
			return q.publishPop(id, t), true
		}
		if q.closed.Load() && q.tail.Load() >= q.minHead() {
			var zero T
			return zero, false
		}
		runtime.Gosched()
	}
}

// TryPopLease dequeues under the given lease without blocking.
func (q *RingQueue[T]) TryPopLease(id int) (v T, ok bool) {
	t, ok := q.tryReserveTail(id)
	if !ok {
		var zero T
		return zero, false
	}
	return q.publishPop(id, t), true
}

// PopLeaseContext dequeues under the given lease, blocking until an item
// is available, the queue closes and drains, or ctx is done.
func (q *RingQueue[T]) PopLeaseContext(ctx context.Context, id int) (v T, ok bool) {
	for {
		if t, ok := q.tryReserveTail(id); ok {
			return q.publishPop(id, t), true
		}
		if q.closed.Load() && q.tail.Load() >= q.minHead() {
			var zero T
			return zero, false
		}
		if ctx.Err() != nil {
			var zero T
			return zero, false
		}
		runtime.Gosched()
	}
}

func (q *RingQueue[T]) publishPop(id int, t uint64) T {
	slot := &q.buf[t&q.mask]
	for slot.seq.Load() != t+1 {
		runtime.Gosched()
	}
	v := slot.val
	var zero T
	slot.val = zero
	slot.seq.Store(t + q.capacity)
	q.pos[id].tail.Store(ringSentinel)
	return v
}

// Close marks the queue closed, releasing every spinning Push and, once
// drained, every spinning Pop.
func (q *RingQueue[T]) Close() {
	q.closed.Store(true)
}

// Closed reports whether Close has been called.
func (q *RingQueue[T]) Closed() bool {
	return q.closed.Load()
}

// Empty reports whether the queue currently holds no items.
func (q *RingQueue[T]) Empty() bool {
	return q.Size() == 0
}

// Size returns the approximate number of items currently queued.
func (q *RingQueue[T]) Size() int {
	h := q.head.Load()
	t := q.tail.Load()
	if h < t {
		return 0
	}
	return int(h - t)
}

// NewQueue wraps the RingQueue in a facade that satisfies [Queue] by
// leasing and releasing automatically around every call, for callers that
// want RingQueue's lock-free ring without managing thread ids themselves.
func (q *RingQueue[T]) NewQueue() Queue[T] {
	return &ringQueueFacade[T]{ring: q}
}

// ringQueueFacade adapts RingQueue's leased API to the ordinary Queue[T]
// contract. Every call acquires a lease, performs one operation, and
// releases the lease — simpler than caching a lease per goroutine, at the
// cost of a channel round trip per call.
type ringQueueFacade[T any] struct {
	ring *RingQueue[T]
}

func (f *ringQueueFacade[T]) Push(v T) error {
	id := f.ring.AcquireLease()
	defer f.ring.ReleaseLease(id)
	return f.ring.PushLease(id, v)
}

func (f *ringQueueFacade[T]) TryPush(v T) error {
	id, ok := f.ring.TryAcquireLease()
	if !ok {
		return ErrQueueFull
	}
	defer f.ring.ReleaseLease(id)
	return f.ring.TryPushLease(id, v)
}

func (f *ringQueueFacade[T]) Pop() (v T, ok bool) {
	id := f.ring.AcquireLease()
	defer f.ring.ReleaseLease(id)
	return f.ring.PopLease(id)
}

func (f *ringQueueFacade[T]) TryPop() (v T, ok bool) {
	id, ok := f.ring.TryAcquireLease()
	if !ok {
		var zero T
		return zero, false
	}
	defer f.ring.ReleaseLease(id)
	return f.ring.TryPopLease(id)
}

func (f *ringQueueFacade[T]) PopContext(ctx context.Context) (v T, ok bool) {
	id := f.ring.AcquireLease()
	defer f.ring.ReleaseLease(id)
	return f.ring.PopLeaseContext(ctx, id)
}

func (f *ringQueueFacade[T]) Close()       { f.ring.Close() }
func (f *ringQueueFacade[T]) Closed() bool { return f.ring.Closed() }
func (f *ringQueueFacade[T]) Empty() bool  { return f.ring.Empty() }
func (f *ringQueueFacade[T]) Size() int    { return f.ring.Size() }

// slotPool is a bounded pool of integer lease ids, handed out via a
// buffered channel acting as a free list.
type slotPool struct {
	free chan int
}

func newSlotPool(n int) *slotPool {
	p := &slotPool{free: make(chan int, n)}
	for i := 0; i < n; i++ {
		p.free <- i
	}
	return p
}

func (p *slotPool) acquire() int {
	return <-p.free
}

func (p *slotPool) tryAcquire() (int, bool) {
	select {
	case id := <-p.free:
		return id, true
	default:
		return 0, false
	}
}

func (p *slotPool) release(id int) {
	p.free <- id
}
