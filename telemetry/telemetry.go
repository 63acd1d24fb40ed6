// Package telemetry implements the per-worker hashrate ring of spec.md
// §4.8 and mirrors it into Prometheus gauges/counters.
package telemetry

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// bufferSize is B=64 from spec.md §4.8, a power of two for mask
// addressing.
const bufferSize = 64

type sample struct {
	hashes    uint64
	timestamp int64 // unix nanoseconds
}

// Ring is a fixed-size circular buffer of (hashes, timestamp) samples for
// one worker.
type Ring struct {
	samples [bufferSize]sample
	head    atomic.Uint64 // next write index, monotonically increasing
}

// Push records a new (cumulative hash count, timestamp) sample.
func (r *Ring) Push(hashes uint64, timestamp time.Time) {
	i := r.head.Add(1) - 1
	r.samples[i%bufferSize] = sample{hashes: hashes, timestamp: timestamp.UnixNano()}
}

// Clear resets the ring to empty.
func (r *Ring) Clear() {
	r.head.Store(0)
	for i := range r.samples {
		r.samples[i] = sample{}
	}
}

// Rate scans backwards from the most recent sample for the oldest sample
// still within windowMs, and returns hashes-per-second over that span.
// Returns math.NaN() as the out-of-band "insufficient data" signal spec.md
// §4.8 calls for, when fewer than two samples fall within the window.
func (r *Ring) Rate(windowMs int64) float64 {
	head := r.head.Load()
	if head < 2 {
		return math.NaN()
	}

	count := head
	if count > bufferSize {
		count = bufferSize
	}

	newestIdx := (head - 1) % bufferSize
	newest := r.samples[newestIdx]
	if newest.timestamp == 0 {
		return math.NaN()
	}

	cutoff := newest.timestamp - windowMs*int64(time.Millisecond)

	var oldest sample
	found := false
	for i := uint64(1); i < count; i++ {
		idx := (head - 1 - i) % bufferSize
		s := r.samples[idx]
		if s.timestamp == 0 || s.timestamp < cutoff {
			break
		}
		oldest = s
		found = true
	}
	if !found {
		return math.NaN()
	}

	deltaHashes := newest.hashes - oldest.hashes
	deltaMillis := (newest.timestamp - oldest.timestamp) / int64(time.Millisecond)
	if deltaMillis <= 0 {
		return math.NaN()
	}

	return float64(deltaHashes) * 1000 / float64(deltaMillis)
}

// Hub owns one Ring per worker and mirrors pushes into Prometheus metrics.
// A fresh Hub clears every worker's Ring on construction — spec.md §9
// flags the source's telemetry constructor as only clearing thread 0's
// buffer, which this fixes by construction rather than by convention.
type Hub struct {
	rings       []*Ring
	hashesTotal *prometheus.CounterVec
	sharesTotal *prometheus.CounterVec
	rateGauge   *prometheus.GaugeVec
}

// NewHub allocates workerCount Rings, all cleared, and registers the
// mirrored Prometheus metrics. reg may be nil to skip registration (tests
// constructing multiple Hubs in one process would otherwise collide on the
// default registry).
func NewHub(workerCount int, reg prometheus.Registerer) *Hub {
	h := &Hub{
		rings: make([]*Ring, workerCount),
		hashesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cryptonight_worker_hashes_total",
			Help: "Cumulative hashes computed by a worker.",
		}, []string{"worker"}),
		sharesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cryptonight_worker_shares_total",
			Help: "Shares emitted by a worker.",
		}, []string{"worker"}),
		rateGauge: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cryptonight_worker_hashrate",
			Help: "Rolling hashrate over a 10s window, hashes/sec.",
		}, []string{"worker"}),
	}
	for i := range h.rings {
		h.rings[i] = &Ring{}
		h.rings[i].Clear()
	}
	if reg != nil {
		reg.MustRegister(h.hashesTotal, h.sharesTotal, h.rateGauge)
	}
	return h
}

// Ring returns the Ring owned by worker i.
func (h *Hub) Ring(i int) *Ring {
	return h.rings[i]
}

// PublishHashes records a new cumulative hash count for worker i, updating
// both its Ring and the mirrored hashes_total/hashrate Prometheus series.
func (h *Hub) PublishHashes(i int, workerLabel string, hashes uint64, t time.Time) {
	prevTotal := h.rings[i].samples[(h.rings[i].head.Load()-1)%bufferSize].hashes
	h.rings[i].Push(hashes, t)
	if hashes > prevTotal {
		h.hashesTotal.WithLabelValues(workerLabel).Add(float64(hashes - prevTotal))
	}
	if rate := h.rings[i].Rate(10_000); !math.IsNaN(rate) {
		h.rateGauge.WithLabelValues(workerLabel).Set(rate)
	}
}

// PublishShare increments the share counter labelled workerLabel.
func (h *Hub) PublishShare(workerLabel string) {
	h.sharesTotal.WithLabelValues(workerLabel).Inc()
}
