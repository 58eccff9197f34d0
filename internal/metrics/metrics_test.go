package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend is an in-memory Backend for tests.
type fakeBackend struct {
	mu sync.Mutex

	counters   []call
	histograms []call
	flushes    int
}

type call struct {
	name   string
	value  float64
	labels Labels
}

func (f *fakeBackend) IncCounter(name string, delta float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counters = append(f.counters, call{name, delta, labels})
}

func (f *fakeBackend) ObserveHistogram(name string, value float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.histograms = append(f.histograms, call{name, value, labels})
}

func (f *fakeBackend) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushes++
	return nil
}

// install swaps the global backend for the duration of the test. Tests using
// it must not run in parallel.
func install(t *testing.T) *fakeBackend {
	t.Helper()
	orig := backend
	t.Cleanup(func() { backend = orig })
	fb := &fakeBackend{}
	SetBackend(fb)
	return fb
}

func TestRecordStep(t *testing.T) {
	fb := install(t)

	RecordStep("sc", "report_q1", nil, 2*time.Second)
	RecordStep("sc", "report_q2", errors.New("boom"), 500*time.Millisecond)

	require.Len(t, fb.counters, 2)
	require.Len(t, fb.histograms, 2)
	assert.Equal(t, call{StepTotal, 1, Labels{"job": "sc", "step": "report_q1", "status": "success"}}, fb.counters[0])
	assert.Equal(t, "failure", fb.counters[1].labels["status"])
	assert.Equal(t, StepDurationSeconds, fb.histograms[1].name)
	assert.InDelta(t, 0.5, fb.histograms[1].value, 1e-9)
}

func TestRecordRowAndBatches(t *testing.T) {
	fb := install(t)

	RecordRow("sc", "read", 10)
	RecordRow("sc", "parse_errors", 0)
	RecordRow("sc", "parse_errors", -3)
	RecordBatches("sc", 2)
	RecordBatches("sc", 0)

	require.Len(t, fb.counters, 2)
	assert.Equal(t, call{RecordsTotal, 10, Labels{"job": "sc", "kind": "read"}}, fb.counters[0])
	assert.Equal(t, call{BatchesTotal, 2, Labels{"job": "sc"}}, fb.counters[1])
}

func TestSetBackendNilKeepsCurrent(t *testing.T) {
	fb := install(t)
	SetBackend(nil)
	require.NoError(t, Flush())
	assert.Equal(t, 1, fb.flushes)
}

func TestNopBackendIsDefault(t *testing.T) {
	var b Backend = nopBackend{}
	b.IncCounter("x", 1, nil)
	b.ObserveHistogram("x", 1, nil)
	assert.NoError(t, b.Flush())
}
