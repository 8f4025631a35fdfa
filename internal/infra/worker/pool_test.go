//go:build !integration

package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestPool_RunsEveryQueuedTask(t *testing.T) {
	ctx := context.Background()
	p := NewPool(2, 10, nil)
	p.Start(ctx)

	var ran int32
	for i := 0; i < 10; i++ {
		if err := p.Submit(ctx, func(ctx context.Context) error {
			atomic.AddInt32(&ran, 1)
			return nil
		}); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	p.Stop()

	if got := atomic.LoadInt32(&ran); got != 10 {
		t.Fatalf("ran %d tasks, want 10", got)
	}
}

func TestPool_SubmitAfterClose(t *testing.T) {
	p := NewPool(1, 1, nil)
	p.Start(context.Background())
	p.Stop()

	err := p.Submit(context.Background(), func(ctx context.Context) error { return nil })
	if !errors.Is(err, ErrPoolClosed) {
		t.Fatalf("want ErrPoolClosed, got %v", err)
	}
}

func TestPool_SubmitNilTask(t *testing.T) {
	p := NewPool(1, 1, nil)
	if err := p.Submit(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil task")
	}
}

func TestPool_SubmitBlocksUntilContextDone(t *testing.T) {
	// no workers started and no queue capacity: Submit can only return via ctx
	p := NewPool(1, 0, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := p.Submit(ctx, func(ctx context.Context) error { return nil })
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want DeadlineExceeded, got %v", err)
	}
}

func TestPool_BoundsConcurrency(t *testing.T) {
	ctx := context.Background()
	const workers = 3
	p := NewPool(workers, 20, nil)
	p.Start(ctx)

	var cur, peak int32
	for i := 0; i < 20; i++ {
		_ = p.Submit(ctx, func(ctx context.Context) error {
			n := atomic.AddInt32(&cur, 1)
			for {
				old := atomic.LoadInt32(&peak)
				if n <= old || atomic.CompareAndSwapInt32(&peak, old, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&cur, -1)
			return nil
		})
	}
	p.Stop()

	if peak > workers {
		t.Fatalf("peak concurrency %d exceeds %d workers", peak, workers)
	}
}
