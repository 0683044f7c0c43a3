package runner

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/oshelot/burstgen/internal/metrics"
	"github.com/oshelot/burstgen/internal/pool"
)

// backpressureWait bounds each harvest attempt while the submission queue
// is full, keeping the loop responsive to cancellation.
const backpressureWait = 5 * time.Millisecond

// Result summarizes a finished run.
type Result struct {
	// Submitted is the total number of requests handed to the pool.
	Submitted int64

	// Duration is the elapsed wall-clock time including the final drain.
	Duration time.Duration
}

// Run drives the randomized-rate dispatch loop until opts.Duration elapses
// or ctx is canceled. Every submitted request is accounted for in the
// collector before Run returns: in-flight work is drained, never dropped.
func Run(ctx context.Context, opts Options) (Result, error) {
	opts = opts.normalize()
	if opts.Requester == nil {
		return Result{}, errors.New("runner: requester is required")
	}
	if opts.Collector == nil {
		return Result{}, errors.New("runner: collector is required")
	}

	rng := rand.New(rand.NewSource(opts.RandomSeed))
	pacer := opts.PacerFactory(opts.Interval)

	workers := pool.New(opts.Concurrency, opts.QueueDepth)
	// Workers get an uncancelable context so an interrupt still lets
	// in-flight requests finish and report real outcomes. Per-request
	// timeouts come from the HTTP client itself.
	workers.Start(context.WithoutCancel(ctx))

	start := time.Now()
	deadline := start.Add(opts.Duration)

	var submitted int64
	var pending int

	fold := func(outcomes []metrics.Outcome) {
		for _, outcome := range outcomes {
			opts.Collector.Fold(outcome)
			pending--
		}
	}

loop:
	for {
		if err := pacer.Wait(ctx); err != nil {
			break
		}
		batchStart := time.Now()
		if !batchStart.Before(deadline) {
			break
		}

		n := 1 + rng.Intn(opts.MaxRate)
		for i := 0; i < n; i++ {
			for {
				err := workers.Submit(func(taskCtx context.Context) metrics.Outcome {
					return opts.Requester.Do(taskCtx)
				})
				if err == nil {
					submitted++
					pending++
					break
				}
				if !errors.Is(err, pool.ErrFull) || ctx.Err() != nil {
					break loop
				}
				// Queue full: free a slot by collecting a completion, so
				// submission and harvesting can never wedge each other.
				fold(workers.Harvest(backpressureWait))
			}
		}

		// Harvest completions for the rest of the interval so the next
		// batch starts on cadence.
		for pending > 0 {
			budget := opts.Interval - time.Since(batchStart)
			if budget <= 0 {
				break
			}
			outcomes := workers.Harvest(budget)
			if len(outcomes) == 0 {
				break
			}
			fold(outcomes)
		}
	}

	workers.CloseSubmit()
	fold(workers.Drain(pending))
	workers.Wait()

	return Result{
		Submitted: submitted,
		Duration:  time.Since(start),
	}, nil
}
