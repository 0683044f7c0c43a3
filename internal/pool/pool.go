package pool

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/oshelot/burstgen/internal/metrics"
)

// Task executes one unit of work and returns its outcome.
type Task func(ctx context.Context) metrics.Outcome

// ErrClosed is returned by Submit after submission has been closed.
var ErrClosed = errors.New("pool: submission closed")

// ErrFull is returned by Submit when the queue has no free slot. Callers
// make room by harvesting completions and retrying.
var ErrFull = errors.New("pool: queue full")

// Pool is a fixed-size worker pool with a buffered submission queue and a
// completion channel. Workers pull tasks in submission order but completions
// surface in whatever order tasks finish; callers collect them through
// Harvest and Drain and are responsible for tracking how many submissions
// are still outstanding.
type Pool struct {
	workers int
	tasks   chan Task
	results chan metrics.Outcome
	wg      sync.WaitGroup
	closed  bool
	mu      sync.Mutex
}

// New creates a pool with the given worker count and submission queue depth.
func New(workers, queueDepth int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queueDepth <= 0 {
		queueDepth = 64 * workers
	}
	return &Pool{
		workers: workers,
		tasks:   make(chan Task, queueDepth),
		results: make(chan metrics.Outcome, queueDepth),
	}
}

// Start launches the worker goroutines. Every task runs with ctx; pass a
// context detached from run cancellation when in-flight work must survive
// an operator interrupt.
func (p *Pool) Start(ctx context.Context) {
	p.wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go func() {
			defer p.wg.Done()
			for task := range p.tasks {
				p.results <- task(ctx)
			}
		}()
	}
}

// Submit enqueues one task without blocking: ErrFull when the queue has no
// free slot, ErrClosed after CloseSubmit. The send happens under the same
// mutex as CloseSubmit, so a racing close can never hit an in-flight send.
func (p *Pool) Submit(task Task) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}

	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrFull
	}
}

// Harvest collects completed outcomes, blocking for at most budget until the
// first completion arrives and then greedily taking whatever else is already
// done. An empty slice means nothing completed within the budget.
func (p *Pool) Harvest(budget time.Duration) []metrics.Outcome {
	if budget < 0 {
		budget = 0
	}
	timer := time.NewTimer(budget)
	defer timer.Stop()

	var done []metrics.Outcome
	select {
	case o := <-p.results:
		done = append(done, o)
	case <-timer.C:
		return nil
	}
	for {
		select {
		case o := <-p.results:
			done = append(done, o)
		default:
			return done
		}
	}
}

// CloseSubmit stops accepting new tasks. Queued tasks still execute.
func (p *Pool) CloseSubmit() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.tasks)
	}
}

// Drain waits, with no time bound, for n outcomes. Call after CloseSubmit
// with the number of submissions not yet harvested.
func (p *Pool) Drain(n int) []metrics.Outcome {
	done := make([]metrics.Outcome, 0, n)
	for len(done) < n {
		done = append(done, <-p.results)
	}
	return done
}

// Wait blocks until all workers have exited. Submission must be closed first.
func (p *Pool) Wait() {
	p.wg.Wait()
}
