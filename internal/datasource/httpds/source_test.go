package httpds

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "token", r.Header.Get("X-Auth"))
		_, _ = io.WriteString(w, "order_id\n1\n")
	}))
	defer srv.Close()

	src := New(srv.URL, Config{Header: http.Header{"X-Auth": {"token"}}})
	rc, err := src.Open(context.Background())
	require.NoError(t, err)
	defer rc.Close()

	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "order_id\n1\n", string(b))
	assert.Equal(t, srv.URL, src.URL())
}

func TestOpen_RetriesTransientStatus(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, "ok")
	}))
	defer srv.Close()

	rc, err := New(srv.URL, Config{MaxRetries: 3, InitialBackoff: time.Millisecond}).Open(context.Background())
	require.NoError(t, err)
	rc.Close()
	assert.EqualValues(t, 3, hits.Load())
}

func TestOpen_NonRetryableStatus(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := New(srv.URL, Config{MaxRetries: 3, InitialBackoff: time.Millisecond}).Open(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
	assert.EqualValues(t, 1, hits.Load())
}

func TestOpen_GivesUpAfterRetries(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := New(srv.URL, Config{MaxRetries: 1, InitialBackoff: time.Millisecond}).Open(context.Background())
	assert.ErrorContains(t, err, "status 429")
}

// TestOpen_BackoffUsesClock holds the retry until the fake clock advances.
func TestOpen_BackoffUsesClock(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = io.WriteString(w, "ok")
	}))
	defer srv.Close()

	clock := clockwork.NewFakeClock()
	src := New(srv.URL, Config{MaxRetries: 1, InitialBackoff: time.Minute, Clock: clock})

	done := make(chan error, 1)
	go func() {
		rc, err := src.Open(context.Background())
		if err == nil {
			rc.Close()
		}
		done <- err
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	assert.EqualValues(t, 1, hits.Load())

	clock.Advance(time.Minute)
	require.NoError(t, <-done)
	assert.EqualValues(t, 2, hits.Load())
}

func TestOpen_CanceledDuringBackoff(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	clock := clockwork.NewFakeClock()
	src := New(srv.URL, Config{MaxRetries: 5, Clock: clock})

	done := make(chan error, 1)
	go func() {
		_, err := src.Open(ctx)
		done <- err
	}()

	wctx, wcancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer wcancel()
	require.NoError(t, clock.BlockUntilContext(wctx, 1))
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestBackoffDuration(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 100*time.Millisecond, backoffDuration(100*time.Millisecond, 0, time.Second))
	assert.Equal(t, 400*time.Millisecond, backoffDuration(100*time.Millisecond, 2, time.Second))
	assert.Equal(t, time.Second, backoffDuration(100*time.Millisecond, 10, time.Second))
}

func TestOpen_EmptyURL(t *testing.T) {
	t.Parallel()
	_, err := New("", Config{}).Open(context.Background())
	assert.ErrorContains(t, err, "url must not be empty")
}
