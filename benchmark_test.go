package threadpool

import (
	"sync"
	"testing"
)

func BenchmarkThreadPoolSubmit(b *testing.B) {
	p, err := NewThreadPool(WithWorkers(8), WithQueues(4), WithQueueCapacity(1024))
	if err != nil {
		b.Fatalf("NewThreadPool: %v", err)
	}
	defer p.Close()

	var wg sync.WaitGroup
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		wg.Add(1)
		p.Submit(func() { wg.Done() })
	}
	wg.Wait()
}

func BenchmarkThreadPoolSubmitParallel(b *testing.B) {
	p, err := NewThreadPool(WithWorkers(8), WithQueues(4), WithQueueCapacity(1024))
	if err != nil {
		b.Fatalf("NewThreadPool: %v", err)
	}
	defer p.Close()

	var wg sync.WaitGroup
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			wg.Add(1)
			p.Submit(func() { wg.Done() })
		}
	})
	wg.Wait()
}

func BenchmarkTicketQueuePushPop(b *testing.B) {
	q := NewTicketQueue[int](1024, 100)
	b.ResetTimer()
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < b.N; i++ {
			q.Push(i)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < b.N; i++ {
			q.Pop()
		}
	}()
	wg.Wait()
}

func BenchmarkHybridCountingSignalPostWait(b *testing.B) {
	h := NewHybridCountingSignal(0, 100)
	b.ResetTimer()
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < b.N; i++ {
			h.Post()
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < b.N; i++ {
			h.Wait()
		}
	}()
	wg.Wait()
}
