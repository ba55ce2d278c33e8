package pool_test

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"clipforge/internal/pool"
	"clipforge/internal/services"
)

func TestConcurrencyNeverExceedsWorkerCount(t *testing.T) {
	const workers = 3
	p := pool.New(workers, 0, nil)

	var active, peak int64
	var handles []*pool.Handle
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 40; i++ {
		h, err := p.Submit(func(ctx context.Context) error {
			n := atomic.AddInt64(&active, 1)
			for {
				old := atomic.LoadInt64(&peak)
				if n <= old || atomic.CompareAndSwapInt64(&peak, old, n) {
					break
				}
			}
			time.Sleep(time.Duration(rng.Intn(5)+1) * time.Millisecond)
			atomic.AddInt64(&active, -1)
			return nil
		})
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		handles = append(handles, h)
		if i%7 == 3 {
			handles[rng.Intn(len(handles))].Cancel()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p.Shutdown(ctx, false)

	if got := atomic.LoadInt64(&peak); got > workers {
		t.Fatalf("peak concurrency %d exceeds worker count %d", got, workers)
	}
	if p.Active() != 0 {
		t.Fatalf("active set not empty after shutdown: %d", p.Active())
	}
}

func TestQueuedJobsStartInSubmissionOrder(t *testing.T) {
	p := pool.New(1, 0, nil)

	var mu sync.Mutex
	var order []int
	gate := make(chan struct{})

	first, err := p.Submit(func(ctx context.Context) error {
		<-gate
		return nil
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	for i := 0; i < 5; i++ {
		i := i
		if _, err := p.Submit(func(ctx context.Context) error {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		}); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	close(gate)
	if err := first.Wait(context.Background()); err != nil {
		t.Fatalf("first job: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p.Shutdown(ctx, false)

	for i, got := range order {
		if got != i {
			t.Fatalf("jobs ran out of order: %v", order)
		}
	}
	if len(order) != 5 {
		t.Fatalf("expected 5 jobs to run, got %d", len(order))
	}
}

func TestSubmitAfterShutdownFails(t *testing.T) {
	p := pool.New(2, 0, nil)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	p.Shutdown(ctx, false)

	_, err := p.Submit(func(ctx context.Context) error { return nil })
	if !errors.Is(err, services.ErrShuttingDown) {
		t.Fatalf("expected ErrShuttingDown, got %v", err)
	}
}

func TestShutdownDrainsQueuedJobs(t *testing.T) {
	p := pool.New(1, 0, nil)
	var ran int64
	for i := 0; i < 4; i++ {
		if _, err := p.Submit(func(ctx context.Context) error {
			atomic.AddInt64(&ran, 1)
			return nil
		}); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p.Shutdown(ctx, false)

	if got := atomic.LoadInt64(&ran); got != 4 {
		t.Fatalf("expected all 4 queued jobs to run, got %d", got)
	}
}

func TestImmediateShutdownCancelsQueuedJobs(t *testing.T) {
	p := pool.New(1, 0, nil)
	release := make(chan struct{})

	running, err := p.Submit(func(ctx context.Context) error {
		<-release
		return nil
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	var queuedRan int64
	queued, err := p.Submit(func(ctx context.Context) error {
		atomic.AddInt64(&queuedRan, 1)
		return nil
	})
	if err != nil {
		t.Fatalf("submit queued: %v", err)
	}

	done := make(chan struct{})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		p.Shutdown(ctx, true)
		close(done)
	}()

	if err := queued.Wait(context.Background()); !errors.Is(err, services.ErrCancelled) {
		t.Fatalf("queued job should be cancelled, got %v", err)
	}
	close(release)
	<-done

	if err := running.Err(); err != nil {
		t.Fatalf("running job should finish naturally, got %v", err)
	}
	if atomic.LoadInt64(&queuedRan) != 0 {
		t.Fatal("queued job ran despite immediate shutdown")
	}
}

func TestShutdownGraceCancelsStuckJobs(t *testing.T) {
	p := pool.New(1, 0, nil)

	h, err := p.Submit(func(ctx context.Context) error {
		<-ctx.Done()
		return services.Wrap(services.ErrCancelled, "test", "job", "stuck", ctx.Err())
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	started := time.Now()
	p.Shutdown(ctx, false)

	if elapsed := time.Since(started); elapsed > 3*time.Second {
		t.Fatalf("shutdown took %s", elapsed)
	}
	if err := h.Err(); !errors.Is(err, services.ErrCancelled) {
		t.Fatalf("stuck job should surface cancellation, got %v", err)
	}
	if p.Active() != 0 {
		t.Fatalf("active set not empty: %d", p.Active())
	}
}

func TestCancelQueuedJobRemovesIt(t *testing.T) {
	p := pool.New(1, 0, nil)
	release := make(chan struct{})

	if _, err := p.Submit(func(ctx context.Context) error {
		<-release
		return nil
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	queued, err := p.Submit(func(ctx context.Context) error { return nil })
	if err != nil {
		t.Fatalf("submit queued: %v", err)
	}
	if queued.State() != pool.StateQueued {
		t.Fatalf("state = %s", queued.State())
	}
	queued.Cancel()

	if err := queued.Wait(context.Background()); !errors.Is(err, services.ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if p.Queued() != 0 {
		t.Fatalf("queue not empty: %d", p.Queued())
	}
	close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p.Shutdown(ctx, false)
}

func TestQueueCapacityRejectsOverflow(t *testing.T) {
	p := pool.New(1, 1, nil)
	release := make(chan struct{})
	defer close(release)

	if _, err := p.Submit(func(ctx context.Context) error {
		<-release
		return nil
	}); err != nil {
		t.Fatalf("submit running: %v", err)
	}
	if _, err := p.Submit(func(ctx context.Context) error { return nil }); err != nil {
		t.Fatalf("submit queued: %v", err)
	}
	_, err := p.Submit(func(ctx context.Context) error { return nil })
	if !errors.Is(err, services.ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
}

func TestJobErrorPropagatesUnchanged(t *testing.T) {
	p := pool.New(1, 0, nil)
	boom := services.Wrap(services.ErrProcessFailed, "executor", "run", "exit 1", nil)

	h, err := p.Submit(func(ctx context.Context) error { return boom })
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got := h.Wait(context.Background()); !errors.Is(got, services.ErrProcessFailed) {
		t.Fatalf("expected the job's own error, got %v", got)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	p.Shutdown(ctx, false)
}
