package threadpool

import (
	"sync"
	"testing"
)

func TestTicketQueueFIFOSingleProducer(t *testing.T) {
	q := NewTicketQueue[int](8, 32)
	for i := 0; i < 8; i++ {
		if err := q.Push(i); err != nil {
			t.Fatalf("Push(%d): %v", i, err)
		}
	}
	for i := 0; i < 8; i++ {
		v, ok := q.Pop()
		if !ok || v != i {
			t.Fatalf("Pop() = %d, %v, want %d, true", v, ok, i)
		}
	}
}

func TestTicketQueueTryPushFull(t *testing.T) {
	q := NewTicketQueue[int](2, 0)
	if err := q.TryPush(1); err != nil {
		t.Fatalf("TryPush(1): %v", err)
	}
	if err := q.TryPush(2); err != nil {
		t.Fatalf("TryPush(2): %v", err)
	}
	if err := q.TryPush(3); err != ErrQueueFull {
		t.Fatalf("TryPush(3) = %v, want ErrQueueFull", err)
	}
}

func TestTicketQueueConservationUnderContention(t *testing.T) {
	q := NewTicketQueue[int](64, 16)
	const n = 5000
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

func TestTicketQueueCloseDrainsThenFails(t *testing.T) {
	q := NewTicketQueue[int](4, 0)
	q.TryPush(1)
	q.TryPush(2)
	q.Close()

	if v, ok := q.TryPop(); !ok || v != 1 {
		t.Fatalf("TryPop() = %d, %v, want 1, true", v, ok)
	}
	if v, ok := q.Pop(); !ok || v != 2 {
		t.Fatalf("Pop() = %d, %v, want 2, true", v, ok)
	}
	if _, ok := q.Pop(); ok {
		t.Fatal("Pop() on drained closed queue returned ok=true")
	}
	if err := q.Push(3); err != ErrQueueClosed {
		t.Fatalf("Push() after close = %v, want ErrQueueClosed", err)
	}
}

func TestTicketQueueSizeTracksOccupancy(t *testing.T) {
	q := NewTicketQueue[int](8, 0)
	if q.Size() != 0 || !q.Empty() {
		t.Fatal("new queue should be empty")
	}
	q.TryPush(1)
	q.TryPush(2)
	if q.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", q.Size())
	}
	q.TryPop()
	if q.Size() != 1 {
		t.Fatalf("Size() = %d, want 1", q.Size())
	}
}
