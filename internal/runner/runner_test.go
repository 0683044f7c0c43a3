package runner_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/oshelot/burstgen/internal/metrics"
	"github.com/oshelot/burstgen/internal/runner"
)

type fakeRequester struct {
	calls   atomic.Int64
	delay   time.Duration
	outcome func(n int64) metrics.Outcome
}

func (f *fakeRequester) Do(ctx context.Context) metrics.Outcome {
	n := f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.outcome != nil {
		return f.outcome(n)
	}
	return metrics.Outcome{Success: true, StatusCode: 200, Latency: time.Millisecond}
}

// stepPacer admits a fixed number of intervals and then stops the run,
// making batch counts deterministic.
type stepPacer struct {
	remaining atomic.Int64
}

func newStepPacer(steps int64) *stepPacer {
	p := &stepPacer{}
	p.remaining.Store(steps)
	return p
}

func (p *stepPacer) Wait(ctx context.Context) error {
	if p.remaining.Add(-1) < 0 {
		return context.Canceled
	}
	return nil
}

func stepFactory(steps int64) func(time.Duration) runner.Pacer {
	return func(time.Duration) runner.Pacer { return newStepPacer(steps) }
}

func TestRunAccountsForEverySubmission(t *testing.T) {
	req := &fakeRequester{}
	collector := metrics.NewCollector()

	result, err := runner.Run(context.Background(), runner.Options{
		MaxRate:      5,
		Concurrency:  4,
		Duration:     time.Minute,
		Interval:     10 * time.Millisecond,
		RandomSeed:   1,
		Requester:    req,
		Collector:    collector,
		PacerFactory: stepFactory(8),
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	stats := collector.Stats(result.Duration)
	if stats.Attempts != result.Submitted {
		t.Errorf("Attempts = %d, want %d submitted", stats.Attempts, result.Submitted)
	}
	if stats.Attempts != stats.Successes+stats.Failures {
		t.Errorf("Attempts = %d, Successes+Failures = %d", stats.Attempts, stats.Successes+stats.Failures)
	}
	if got := req.calls.Load(); got != result.Submitted {
		t.Errorf("requester calls = %d, want %d", got, result.Submitted)
	}
}

func TestMaxRateOneSubmitsOnePerInterval(t *testing.T) {
	req := &fakeRequester{}
	collector := metrics.NewCollector()

	result, err := runner.Run(context.Background(), runner.Options{
		MaxRate:      1,
		Concurrency:  2,
		Duration:     time.Minute,
		Interval:     5 * time.Millisecond,
		RandomSeed:   99,
		Requester:    req,
		Collector:    collector,
		PacerFactory: stepFactory(6),
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.Submitted != 6 {
		t.Errorf("Submitted = %d, want exactly one request per interval", result.Submitted)
	}
}

func TestSlowRequestsAreDrainedBeforeReturn(t *testing.T) {
	// Each request outlives several intervals, so most of them are still
	// in flight when the loop stops.
	req := &fakeRequester{delay: 60 * time.Millisecond}
	collector := metrics.NewCollector()

	result, err := runner.Run(context.Background(), runner.Options{
		MaxRate:      3,
		Concurrency:  4,
		Duration:     time.Minute,
		Interval:     10 * time.Millisecond,
		RandomSeed:   7,
		Requester:    req,
		Collector:    collector,
		PacerFactory: stepFactory(4),
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	stats := collector.Stats(result.Duration)
	if stats.Attempts != result.Submitted {
		t.Errorf("Attempts = %d, want all %d submissions drained", stats.Attempts, result.Submitted)
	}
}

func TestCancellationDrainsInFlightRequests(t *testing.T) {
	req := &fakeRequester{delay: 20 * time.Millisecond}
	collector := metrics.NewCollector()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	result, err := runner.Run(ctx, runner.Options{
		MaxRate:     4,
		Concurrency: 2,
		Duration:    time.Minute,
		Interval:    10 * time.Millisecond,
		RandomSeed:  3,
		Requester:   req,
		Collector:   collector,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	stats := collector.Stats(result.Duration)
	if stats.Attempts != result.Submitted {
		t.Errorf("Attempts = %d, want all %d submissions accounted for after cancel", stats.Attempts, result.Submitted)
	}
}

func TestFailedOutcomesAreCounted(t *testing.T) {
	req := &fakeRequester{
		outcome: func(n int64) metrics.Outcome {
			if n%2 == 0 {
				return metrics.Outcome{ErrorKind: "connection refused"}
			}
			return metrics.Outcome{Success: true, StatusCode: 200, Latency: time.Millisecond}
		},
	}
	collector := metrics.NewCollector()

	result, err := runner.Run(context.Background(), runner.Options{
		MaxRate:      4,
		Concurrency:  2,
		Duration:     time.Minute,
		Interval:     5 * time.Millisecond,
		RandomSeed:   11,
		Requester:    req,
		Collector:    collector,
		PacerFactory: stepFactory(5),
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	stats := collector.Stats(result.Duration)
	if stats.Failures == 0 {
		t.Error("Failures = 0, want some failed outcomes")
	}
	if stats.Attempts != stats.Successes+stats.Failures {
		t.Errorf("Attempts = %d, Successes+Failures = %d", stats.Attempts, stats.Successes+stats.Failures)
	}
	if stats.Attempts != result.Submitted {
		t.Errorf("Attempts = %d, want %d", stats.Attempts, result.Submitted)
	}
}

func TestTinyQueueDoesNotStallSubmission(t *testing.T) {
	// A queue far smaller than a worst-case batch forces the loop to
	// harvest completions mid-batch instead of wedging on a full queue.
	req := &fakeRequester{delay: 5 * time.Millisecond}
	collector := metrics.NewCollector()

	type runResult struct {
		result runner.Result
		err    error
	}
	done := make(chan runResult, 1)
	go func() {
		result, err := runner.Run(context.Background(), runner.Options{
			MaxRate:      64,
			Concurrency:  1,
			QueueDepth:   2,
			Duration:     time.Minute,
			Interval:     10 * time.Millisecond,
			RandomSeed:   21,
			Requester:    req,
			Collector:    collector,
			PacerFactory: stepFactory(2),
		})
		done <- runResult{result, err}
	}()

	var got runResult
	select {
	case got = <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("Run() did not return; submission wedged on a full queue")
	}
	if got.err != nil {
		t.Fatalf("Run() error = %v", got.err)
	}

	stats := collector.Stats(got.result.Duration)
	if stats.Attempts != got.result.Submitted {
		t.Errorf("Attempts = %d, want %d submitted", stats.Attempts, got.result.Submitted)
	}
}

func TestRunRequiresRequesterAndCollector(t *testing.T) {
	if _, err := runner.Run(context.Background(), runner.Options{Collector: metrics.NewCollector()}); err == nil {
		t.Error("Run() without requester error = nil, want error")
	}
	if _, err := runner.Run(context.Background(), runner.Options{Requester: &fakeRequester{}}); err == nil {
		t.Error("Run() without collector error = nil, want error")
	}
}
