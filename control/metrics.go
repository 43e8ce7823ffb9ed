// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Prometheus collectors for the segment pool and the timeout watchdog.
// All record methods are nil-safe so components can run without metrics.

package control

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Release outcomes reported by the segment pool.
const (
	OutcomePooled          = "pooled"
	OutcomeDiscardedFull   = "discarded_full"
	OutcomeDiscardedShared = "discarded_shared"
)

// Metrics holds the core collectors.
type Metrics struct {
	segmentsAcquired *prometheus.CounterVec
	segmentsReleased *prometheus.CounterVec
	poolBytes        prometheus.Gauge

	watchdogTimeouts prometheus.Counter
	watchdogQueue    prometheus.Gauge
	watchdogRunning  prometheus.Gauge
	timeoutsExceeded *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg under namespace.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		segmentsAcquired: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_acquired_total",
			Help:      "Segments handed out by the pool",
		}, []string{"origin"}), // origin: pool, fresh
		segmentsReleased: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_released_total",
			Help:      "Segments returned to the pool",
		}, []string{"outcome"}),
		poolBytes: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "segment_pool_bytes",
			Help:      "Bytes currently cached by the segment pool",
		}),
		watchdogTimeouts: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "watchdog_timeouts_total",
			Help:      "AsyncTimeout nodes expired by the watchdog",
		}),
		watchdogQueue: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "watchdog_queue_length",
			Help:      "AsyncTimeout nodes waiting in the watchdog queue",
		}),
		watchdogRunning: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "watchdog_running",
			Help:      "1 while the watchdog goroutine is alive",
		}),
		timeoutsExceeded: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "timeouts_exceeded_total",
			Help:      "Operations that failed with a timeout",
		}, []string{"op"}),
	}
}

var (
	defaultMetricsMu sync.RWMutex
	defaultMetrics   *Metrics
)

// DefaultMetrics returns the metrics installed with EnableMetrics, or nil.
func DefaultMetrics() *Metrics {
	defaultMetricsMu.RLock()
	defer defaultMetricsMu.RUnlock()
	return defaultMetrics
}

// EnableMetrics registers the process-wide collectors on reg. Calling it
// again returns the already registered set.
func EnableMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	defaultMetricsMu.Lock()
	defer defaultMetricsMu.Unlock()
	if defaultMetrics == nil {
		defaultMetrics = NewMetrics(namespace, reg)
	}
	return defaultMetrics
}

// RecordAcquire counts a segment handed out; reused tells whether it came from the free list.
func (m *Metrics) RecordAcquire(reused bool) {
	if m == nil {
		return
	}
	origin := "fresh"
	if reused {
		origin = "pool"
	}
	m.segmentsAcquired.WithLabelValues(origin).Inc()
}

// RecordRelease counts a release outcome and publishes the pooled byte count.
func (m *Metrics) RecordRelease(outcome string, pooledBytes int64) {
	if m == nil {
		return
	}
	m.segmentsReleased.WithLabelValues(outcome).Inc()
	m.poolBytes.Set(float64(pooledBytes))
}

// SetPoolBytes publishes the pooled byte count.
func (m *Metrics) SetPoolBytes(pooledBytes int64) {
	if m == nil {
		return
	}
	m.poolBytes.Set(float64(pooledBytes))
}

// RecordWatchdogTimeout counts an expired node.
func (m *Metrics) RecordWatchdogTimeout() {
	if m == nil {
		return
	}
	m.watchdogTimeouts.Inc()
}

// SetWatchdogQueue publishes the queue length.
func (m *Metrics) SetWatchdogQueue(n int) {
	if m == nil {
		return
	}
	m.watchdogQueue.Set(float64(n))
}

// SetWatchdogRunning publishes the watchdog goroutine state.
func (m *Metrics) SetWatchdogRunning(running bool) {
	if m == nil {
		return
	}
	if running {
		m.watchdogRunning.Set(1)
		return
	}
	m.watchdogRunning.Set(0)
}

// RecordTimeoutExceeded counts an operation that failed with a timeout.
func (m *Metrics) RecordTimeoutExceeded(op string) {
	if m == nil {
		return
	}
	m.timeoutsExceeded.WithLabelValues(op).Inc()
}
