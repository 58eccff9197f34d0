// Package metrics provides a small, backend-agnostic abstraction for recording
// operational metrics from a supply-chain run.
//
// It exposes a narrow interface (Backend) for counters and timings and a
// global, pluggable backend that defaults to a no-op implementation, so the
// recording helpers are always safe to call. Concrete systems live in the
// prompush and datadog subpackages.
package metrics

import "time"

// Metric names emitted by the helpers below.
const (
	StepTotal           = "supplychain_step_total"
	StepDurationSeconds = "supplychain_step_duration_seconds"
	RecordsTotal        = "supplychain_records_total"
	BatchesTotal        = "supplychain_batches_total"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends. Implementations must
// be safe for concurrent use; reports record from several goroutines.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing
// backend. Call it before any goroutine records.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStep counts one execution of step and observes its duration. Steps
// are "load", "extract", "export" and "report_<id>".
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	lbls := Labels{
		"job":    job,
		"step":   step,
		"status": status,
	}

	backend.IncCounter(StepTotal, 1, lbls)
	backend.ObserveHistogram(StepDurationSeconds, d.Seconds(), lbls)
}

// RecordRow increments a record-level counter for the given job and kind.
//
// Kinds in use:
//   - "read"
//   - "parse_errors"
//   - "null_coerced"
//   - "relation_<name>"
//   - "report_rows"
//   - "exported"
func RecordRow(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(RecordsTotal, float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordBatches increments the export batch counter for the given job.
func RecordBatches(job string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(BatchesTotal, float64(delta), Labels{
		"job": job,
	})
}
