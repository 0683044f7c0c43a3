// Package runner coordinates the dispatch loop: each interval it draws a
// random request count, submits that batch to the worker pool, and folds
// completions into the metrics collector, finishing with a full drain so
// the final report covers every submitted request.
package runner
