package threadpool

import (
	"sync"
	"testing"
)

func TestRingQueueLeasedPushPop(t *testing.T) {
	q := NewRingQueue[int](8, 2)
	id := q.AcquireLease()
	defer q.ReleaseLease(id)

	for i := 0; i < 8; i++ {
		if err := q.PushLease(id, i); err != nil {
			t.Fatalf("PushLease(%d): %v", i, err)
		}
	}
	for i := 0; i < 8; i++ {
		v, ok := q.PopLease(id)
		if !ok || v != i {
			t.Fatalf("PopLease() = %d, %v, want %d, true", v, ok, i)
		}
	}
}

func TestRingQueueTryPushFullWithSingleLease(t *testing.T) {
	q := NewRingQueue[int](2, 1)
	id := q.AcquireLease()
	defer q.ReleaseLease(id)

	if err := q.TryPushLease(id, 1); err != nil {
		t.Fatalf("TryPushLease(1): %v", err)
	}
	if err := q.TryPushLease(id, 2); err != nil {
		t.Fatalf("TryPushLease(2): %v", err)
	}
	if err := q.TryPushLease(id, 3); err != ErrQueueFull {
		t.Fatalf("TryPushLease(3) = %v, want ErrQueueFull", err)
	}
}

func TestRingQueueAcquireLeaseBoundedByMaxLeases(t *testing.T) {
	q := NewRingQueue[int](4, 2)
	a, ok := q.TryAcquireLease()
	if !ok {
		t.Fatal("first TryAcquireLease failed")
	}
	b, ok := q.TryAcquireLease()
	if !ok {
		t.Fatal("second TryAcquireLease failed")
	}
	if _, ok := q.TryAcquireLease(); ok {
		t.Fatal("third TryAcquireLease succeeded past the lease bound")
	}
	q.ReleaseLease(a)
	if _, ok := q.TryAcquireLease(); !ok {
		t.Fatal("TryAcquireLease failed after a lease was released")
	}
	q.ReleaseLease(b)
}

func TestRingQueueFacadeSatisfiesQueueContract(t *testing.T) {
	ring := NewRingQueue[int](16, 8)
	var q Queue[int] = ring.NewQueue()

	const n = 200
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			if err := q.Push(i); err != nil {
				t.Errorf("Push(%d): %v", i, err)
			}
		}(i)
	}

	var mu sync.Mutex
	seen := make(map[int]bool, n)
	var cwg sync.WaitGroup
	cwg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer cwg.Done()
			v, ok := q.Pop()
			if !ok {
				t.Error("Pop returned ok=false before Close")
				return
			}
			mu.Lock()
			if seen[v] {
				t.Errorf("value %d popped twice", v)
			}
			seen[v] = true
			mu.Unlock()
		}()
	}

	wg.Wait()
	cwg.Wait()

	if len(seen) != n {
		t.Fatalf("saw %d distinct values, want %d", len(seen), n)
	}
}

func TestRingQueueCloseUnblocksPop(t *testing.T) {
	ring := NewRingQueue[int](4, 2)
	q := ring.NewQueue()

	done := make(chan struct{})
	go func() {
		_, ok := q.Pop()
		if ok {
			t.Error("Pop on an empty, closed queue returned ok=true")
		}
		close(done)
	}()

	q.Close()
	<-done
}
