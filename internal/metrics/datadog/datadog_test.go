package datadog

import (
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplychain/internal/metrics"
)

func TestNewBackend_RequiresAddr(t *testing.T) {
	t.Parallel()
	_, err := NewBackend(Config{})
	assert.EqualError(t, err, "datadog: Addr is required")
}

func TestLabelsToTags_Sorted(t *testing.T) {
	t.Parallel()
	assert.Nil(t, labelsToTags(nil))
	assert.Equal(t, []string{"job:sc", "step:load"}, labelsToTags(metrics.Labels{"step": "load", "job": "sc"}))
}

func TestNilClientIsSafe(t *testing.T) {
	t.Parallel()
	b := &Backend{}
	b.IncCounter(metrics.RecordsTotal, 1, nil)
	b.ObserveHistogram(metrics.StepDurationSeconds, 0.5, nil)
	assert.NoError(t, b.Flush())
}

// TestBackend_SendsToAgent reads the DogStatsD datagrams from a local UDP
// socket standing in for the agent.
func TestBackend_SendsToAgent(t *testing.T) {
	t.Parallel()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer pc.Close()

	b, err := NewBackend(Config{Addr: pc.LocalAddr().String(), Namespace: "sc.", GlobalTags: []string{"env:test"}})
	require.NoError(t, err)

	b.IncCounter(metrics.RecordsTotal, 3, metrics.Labels{"kind": "read"})
	require.NoError(t, b.Flush())

	require.NoError(t, pc.SetReadDeadline(time.Now().Add(5*time.Second)))
	buf := make([]byte, 64*1024)
	for {
		n, _, err := pc.ReadFrom(buf)
		require.NoError(t, err, "no datagram carried the counter")
		msg := string(buf[:n])
		if !strings.Contains(msg, "sc."+metrics.RecordsTotal) {
			continue
		}
		assert.Contains(t, msg, "sc."+metrics.RecordsTotal+":3|c")
		assert.Contains(t, msg, "kind:read")
		assert.Contains(t, msg, "env:test")
		return
	}
}
