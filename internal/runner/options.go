package runner

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/oshelot/burstgen/internal/metrics"
)

// Requester performs one request attempt and reports its outcome. The
// returned Outcome must always be well formed: Do never panics the pool.
type Requester interface {
	Do(ctx context.Context) metrics.Outcome
}

// Pacer gates the start of each dispatch interval.
type Pacer interface {
	Wait(ctx context.Context) error
}

// Options configures a load run.
type Options struct {
	// MaxRate bounds the randomized per-interval request count. Each
	// interval submits between 1 and MaxRate requests.
	MaxRate int

	// Concurrency is the number of pool workers executing requests.
	Concurrency int

	// QueueDepth bounds pending submissions; zero picks a default
	// proportional to Concurrency.
	QueueDepth int

	// Duration is the total wall-clock run length.
	Duration time.Duration

	// Interval is the dispatch cadence. Zero means one second.
	Interval time.Duration

	// RandomSeed drives the per-interval rate draw. Zero seeds from the
	// current time.
	RandomSeed int64

	Requester Requester
	Collector *metrics.Collector

	// PacerFactory overrides the cadence source, used by tests.
	PacerFactory func(interval time.Duration) Pacer
}

func (o Options) normalize() Options {
	if o.MaxRate < 1 {
		o.MaxRate = 1
	}
	if o.Concurrency < 1 {
		o.Concurrency = 1
	}
	if o.QueueDepth <= 0 {
		o.QueueDepth = 64 * o.Concurrency
		// The queue must be able to absorb a worst-case batch, or high
		// rates would hit backpressure on every interval.
		if o.QueueDepth < 2*o.MaxRate {
			o.QueueDepth = 2 * o.MaxRate
		}
	}
	if o.Interval <= 0 {
		o.Interval = time.Second
	}
	if o.RandomSeed == 0 {
		o.RandomSeed = time.Now().UnixNano()
	}
	if o.PacerFactory == nil {
		o.PacerFactory = func(interval time.Duration) Pacer {
			return rate.NewLimiter(rate.Every(interval), 1)
		}
	}
	return o
}
