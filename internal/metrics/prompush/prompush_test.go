package prompush

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplychain/internal/metrics"
)

func TestNewBackend(t *testing.T) {
	t.Parallel()

	_, err := NewBackend("job", "")
	require.Error(t, err)

	b, err := NewBackend("", "http://pushgateway:9091")
	require.NoError(t, err)
	assert.Equal(t, "supplychain", b.jobName)
}

func TestBackendRecordsByName(t *testing.T) {
	t.Parallel()
	b, err := NewBackend("sc", "http://pushgateway:9091")
	require.NoError(t, err)

	step := metrics.Labels{"job": "sc", "step": "report_q1", "status": "success"}
	b.IncCounter(metrics.StepTotal, 1, step)
	b.IncCounter(metrics.StepTotal, 1, step)
	b.ObserveHistogram(metrics.StepDurationSeconds, 0.25, step)
	b.ObserveHistogram("ignored", 1, step)
	b.IncCounter(metrics.RecordsTotal, 7, metrics.Labels{"kind": "read"})
	b.IncCounter(metrics.BatchesTotal, 3, nil)
	b.IncCounter("unknown", 1, nil)

	assert.InDelta(t, 2, testutil.ToFloat64(b.stepCounter.WithLabelValues("report_q1", "success")), 1e-9)
	assert.InDelta(t, 7, testutil.ToFloat64(b.recordCounter.WithLabelValues("read")), 1e-9)
	assert.InDelta(t, 3, testutil.ToFloat64(b.batchCounter), 1e-9)
	assert.Equal(t, 1, testutil.CollectAndCount(b.stepDuration))
}

func TestFlushPushesToGateway(t *testing.T) {
	t.Parallel()

	var (
		mu     sync.Mutex
		paths  []string
		bodies []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		paths = append(paths, r.URL.Path)
		bodies = append(bodies, string(body))
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	b, err := NewBackend("sc-run", srv.URL)
	require.NoError(t, err)
	b.IncCounter(metrics.RecordsTotal, 1, metrics.Labels{"kind": "read"})
	require.NoError(t, b.Flush())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, paths, 1)
	assert.Equal(t, "/metrics/job/sc-run", paths[0])
	assert.NotEmpty(t, bodies[0])
}
