package pool_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/oshelot/burstgen/internal/metrics"
	"github.com/oshelot/burstgen/internal/pool"
)

func sleeper(d time.Duration, code int) pool.Task {
	return func(ctx context.Context) metrics.Outcome {
		select {
		case <-time.After(d):
		case <-ctx.Done():
		}
		return metrics.Outcome{Success: true, StatusCode: code, Latency: d}
	}
}

// mustSubmit retries ErrFull until the task is accepted or the deadline hits.
func mustSubmit(t *testing.T, p *pool.Pool, task pool.Task) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for {
		err := p.Submit(task)
		if err == nil {
			return
		}
		if !errors.Is(err, pool.ErrFull) {
			t.Fatalf("submit failed: %v", err)
		}
		if time.Now().After(deadline) {
			t.Fatal("submit kept hitting a full queue")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestHarvestWithinBudget(t *testing.T) {
	p := pool.New(4, 0)
	p.Start(context.Background())

	for i := 0; i < 4; i++ {
		mustSubmit(t, p, sleeper(5*time.Millisecond, 200))
	}

	deadline := time.Now().Add(time.Second)
	var done []metrics.Outcome
	for len(done) < 4 && time.Now().Before(deadline) {
		done = append(done, p.Harvest(time.Until(deadline))...)
	}
	if len(done) != 4 {
		t.Fatalf("expected 4 completions, got %d", len(done))
	}

	p.CloseSubmit()
	p.Wait()
}

func TestHarvestReturnsEmptyWhenNothingCompletes(t *testing.T) {
	p := pool.New(1, 0)
	p.Start(context.Background())

	mustSubmit(t, p, sleeper(200*time.Millisecond, 200))

	start := time.Now()
	done := p.Harvest(20 * time.Millisecond)
	if len(done) != 0 {
		t.Fatalf("expected empty harvest, got %d outcomes", len(done))
	}
	if elapsed := time.Since(start); elapsed > 150*time.Millisecond {
		t.Errorf("harvest overshot its budget: %s", elapsed)
	}

	p.CloseSubmit()
	if got := p.Drain(1); len(got) != 1 {
		t.Fatalf("expected drained outcome, got %d", len(got))
	}
	p.Wait()
}

func TestDrainCollectsEveryPendingOutcome(t *testing.T) {
	p := pool.New(2, 0)
	p.Start(context.Background())

	const n = 10
	for i := 0; i < n; i++ {
		mustSubmit(t, p, sleeper(time.Duration(i%3)*time.Millisecond, 200+i))
	}

	p.CloseSubmit()
	done := p.Drain(n)
	if len(done) != n {
		t.Fatalf("expected %d drained outcomes, got %d", n, len(done))
	}
	// Every submission surfaces exactly once.
	seen := map[int]int{}
	for _, o := range done {
		seen[o.StatusCode]++
	}
	for i := 0; i < n; i++ {
		if seen[200+i] != 1 {
			t.Errorf("outcome for submission %d seen %d times", i, seen[200+i])
		}
	}
	p.Wait()
}

func TestSubmitAfterCloseFails(t *testing.T) {
	p := pool.New(1, 0)
	p.Start(context.Background())
	p.CloseSubmit()

	if err := p.Submit(sleeper(0, 200)); err != pool.ErrClosed {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	p.Wait()
}

func TestSubmitFullQueueReturnsErrFull(t *testing.T) {
	// Single worker, queue depth 1: one running, one queued, third rejected.
	p := pool.New(1, 1)
	p.Start(context.Background())

	for i := 0; i < 2; i++ {
		mustSubmit(t, p, sleeper(300*time.Millisecond, 200))
	}

	if err := p.Submit(sleeper(0, 200)); !errors.Is(err, pool.ErrFull) {
		t.Fatalf("expected ErrFull, got %v", err)
	}

	p.CloseSubmit()
	p.Drain(2)
	p.Wait()
}

func TestSubmitRacingCloseNeverPanics(t *testing.T) {
	for round := 0; round < 50; round++ {
		p := pool.New(2, 4)
		p.Start(context.Background())

		var wg sync.WaitGroup
		// Nothing harvests while the submitters run, so at most
		// queue+workers+results tasks are ever accepted.
		accepted := make(chan int, 16)
		for g := 0; g < 4; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for {
					err := p.Submit(sleeper(0, 200))
					if err == nil {
						accepted <- 1
						continue
					}
					if errors.Is(err, pool.ErrFull) {
						continue
					}
					if err != pool.ErrClosed {
						t.Errorf("unexpected submit error: %v", err)
					}
					return
				}
			}()
		}

		time.Sleep(time.Millisecond)
		p.CloseSubmit()
		wg.Wait()

		close(accepted)
		n := 0
		for range accepted {
			n++
		}
		p.Drain(n)
		p.Wait()
	}
}
