package telemetry

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRingRateRequiresTwoSamples(t *testing.T) {
	var r Ring
	require.True(t, math.IsNaN(r.Rate(1000)), "empty ring should report NaN")

	r.Push(100, time.Now())
	require.True(t, math.IsNaN(r.Rate(1000)), "a single sample should still report NaN")
}

func TestRingRateMonotoneInWindow(t *testing.T) {
	var r Ring
	base := time.Now()
	for i := 0; i < 10; i++ {
		r.Push(uint64(i*1000), base.Add(time.Duration(i)*time.Second))
	}

	short := r.Rate(2000)
	long := r.Rate(8000)
	require.False(t, math.IsNaN(short))
	require.False(t, math.IsNaN(long))
	require.InDelta(t, 1000, short, 1, "steady 1000 hashes/sec workload")
	require.InDelta(t, 1000, long, 1, "steady 1000 hashes/sec workload")
}

func TestRingClear(t *testing.T) {
	var r Ring
	r.Push(1, time.Now())
	r.Push(2, time.Now())
	r.Clear()
	require.True(t, math.IsNaN(r.Rate(1000)), "Clear should reset the ring to empty")
}

func TestHubClearsEveryWorkerRing(t *testing.T) {
	hub := NewHub(4, nil)
	for i := 0; i < 4; i++ {
		require.True(t, math.IsNaN(hub.Ring(i).Rate(1000)), "worker %d ring should start cleared", i)
	}
}

func TestHubPublishUpdatesRing(t *testing.T) {
	hub := NewHub(2, nil)
	hub.PublishHashes(0, "w0", 100, time.Now())
	hub.PublishHashes(0, "w0", 200, time.Now().Add(time.Second))

	rate := hub.Ring(0).Rate(10_000)
	require.False(t, math.IsNaN(rate))
	require.Greater(t, rate, 0.0)
}
