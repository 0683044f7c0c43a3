package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Outcome is the immutable record of one completed request attempt. It is
// produced exactly once by the request executor and folded exactly once into
// the Collector by the scheduling loop.
type Outcome struct {
	Success    bool
	StatusCode int // 0 when the request failed at the transport level
	Latency    time.Duration
	ErrorKind  string // short failure classification, empty on success
}

// Collector accumulates outcomes for a single run. Folding happens only from
// the scheduling loop; the mutex exists because progress reporters and the
// dashboard read snapshots while the run is in flight.
type Collector struct {
	mu           sync.Mutex
	hist         *hdrhistogram.Histogram
	attempts     int64
	successes    int64
	failures     int64
	statusCounts map[int]int64
	latencies    []time.Duration
	errorsByKind map[string]int64
	minLatency   time.Duration
	maxLatency   time.Duration
	sumLatency   time.Duration
	start        time.Time
}

// Stats represents aggregated metrics at a point in time.
type Stats struct {
	RunID        string        `json:"run_id,omitempty"`
	Attempts     int64         `json:"attempts"`
	Successes    int64         `json:"successes"`
	Failures     int64         `json:"failures"`
	SuccessRate  float64       `json:"success_rate"`
	StatusCounts map[int]int64 `json:"status_counts,omitempty"`
	TopErrors    []ErrorCount  `json:"top_errors,omitempty"`

	MinLatency  time.Duration `json:"-"`
	MaxLatency  time.Duration `json:"-"`
	MeanLatency time.Duration `json:"-"`
	P50Latency  time.Duration `json:"-"`
	P95Latency  time.Duration `json:"-"`
	P99Latency  time.Duration `json:"-"`
	Duration    time.Duration `json:"-"`

	RequestsPerSec float64 `json:"requests_per_sec"`

	// JSON-friendly millisecond fields.
	MinLatencyMs  float64 `json:"min_latency_ms"`
	MaxLatencyMs  float64 `json:"max_latency_ms"`
	MeanLatencyMs float64 `json:"mean_latency_ms"`
	P50LatencyMs  float64 `json:"p50_latency_ms"`
	P95LatencyMs  float64 `json:"p95_latency_ms"`
	P99LatencyMs  float64 `json:"p99_latency_ms"`
	DurationMs    float64 `json:"duration_ms"`
}

// ErrorCount pairs an error kind with its occurrence count.
type ErrorCount struct {
	Kind  string `json:"kind"`
	Count int64  `json:"count"`
}

func NewCollector() *Collector {
	// Track latencies from 1µs up to 60s with 3 significant figures.
	h := hdrhistogram.New(1, 60_000_000, 3)
	return &Collector{
		hist:         h,
		statusCounts: make(map[int]int64),
		errorsByKind: make(map[string]int64),
		start:        time.Now(),
	}
}

// Start marks the actual beginning of the run for elapsed-time calculations.
func (c *Collector) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.start = time.Now()
}

// Elapsed returns the wall-clock time since Start.
func (c *Collector) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Since(c.start)
}

// Fold records one outcome. Successful outcomes carry their status code and
// contribute a latency sample; failed outcomes contribute only an error kind.
func (c *Collector) Fold(o Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.attempts++
	if !o.Success {
		c.failures++
		if o.ErrorKind != "" {
			c.errorsByKind[truncateKind(o.ErrorKind)]++
		}
		return
	}

	c.successes++
	c.statusCounts[o.StatusCode]++
	c.latencies = append(c.latencies, o.Latency)
	c.sumLatency += o.Latency

	if o.Latency > 0 {
		us := o.Latency.Microseconds()
		if us < c.hist.LowestTrackableValue() {
			us = c.hist.LowestTrackableValue()
		}
		if us > c.hist.HighestTrackableValue() {
			us = c.hist.HighestTrackableValue()
		}
		_ = c.hist.RecordValue(us)
	}
	if c.minLatency == 0 || o.Latency < c.minLatency {
		c.minLatency = o.Latency
	}
	if o.Latency > c.maxLatency {
		c.maxLatency = o.Latency
	}
}

// Stats computes the aggregated statistics for the given elapsed duration.
func (c *Collector) Stats(elapsed time.Duration) Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := Stats{
		Attempts:   c.attempts,
		Successes:  c.successes,
		Failures:   c.failures,
		MinLatency: c.minLatency,
		MaxLatency: c.maxLatency,
	}

	if c.attempts > 0 {
		stats.SuccessRate = float64(c.successes) / float64(c.attempts) * 100
	}

	if n := len(c.latencies); n > 0 {
		stats.MeanLatency = time.Duration(int64(c.sumLatency) / int64(n))
		// Nearest-rank percentile over the full retained sample, so small
		// runs report an exact observed latency rather than an estimate.
		ordered := make([]time.Duration, n)
		copy(ordered, c.latencies)
		sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })
		stats.P95Latency = ordered[int(0.95*float64(n-1))]
	}

	if c.hist.TotalCount() > 0 {
		stats.P50Latency = time.Duration(c.hist.ValueAtQuantile(50)) * time.Microsecond
		stats.P99Latency = time.Duration(c.hist.ValueAtQuantile(99)) * time.Microsecond
	}

	if len(c.statusCounts) > 0 {
		stats.StatusCounts = make(map[int]int64, len(c.statusCounts))
		for code, count := range c.statusCounts {
			stats.StatusCounts[code] = count
		}
	}
	stats.TopErrors = sortedErrorCounts(c.errorsByKind)

	stats.Duration = elapsed
	stats.DurationMs = float64(elapsed) / float64(time.Millisecond)
	if elapsed > 0 && c.attempts > 0 {
		stats.RequestsPerSec = float64(c.attempts) / elapsed.Seconds()
	}

	stats.MinLatencyMs = float64(stats.MinLatency) / float64(time.Millisecond)
	stats.MaxLatencyMs = float64(stats.MaxLatency) / float64(time.Millisecond)
	stats.MeanLatencyMs = float64(stats.MeanLatency) / float64(time.Millisecond)
	stats.P50LatencyMs = float64(stats.P50Latency) / float64(time.Millisecond)
	stats.P95LatencyMs = float64(stats.P95Latency) / float64(time.Millisecond)
	stats.P99LatencyMs = float64(stats.P99Latency) / float64(time.Millisecond)

	return stats
}

func sortedErrorCounts(byKind map[string]int64) []ErrorCount {
	if len(byKind) == 0 {
		return nil
	}
	counts := make([]ErrorCount, 0, len(byKind))
	for kind, count := range byKind {
		counts = append(counts, ErrorCount{Kind: kind, Count: count})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count == counts[j].Count {
			return counts[i].Kind < counts[j].Kind
		}
		return counts[i].Count > counts[j].Count
	})
	return counts
}
