// Package metrics aggregates per-request outcomes into run statistics.
//
// The central [Collector] type is fed one [Outcome] per completed request by
// the scheduling loop, which is the sole writer:
//
//	collector := metrics.NewCollector()
//	collector.Start() // mark run start for accurate RPS calculation
//	collector.Fold(metrics.Outcome{Success: true, StatusCode: 200, Latency: latency})
//	stats := collector.Stats(elapsed)
//
// [Stats] carries attempt/success/failure counts, the success rate, a
// status-code histogram, a bounded-cardinality error-kind breakdown, and
// latency aggregates. Mean and P95 come from the full retained latency
// sample (nearest-rank), while P50/P99 are served by an HDR histogram.
//
// Reading a snapshot via Stats is safe while the run is still folding; the
// progress reporter and dashboard rely on that.
package metrics
