// Package observability provides lightweight internal metrics counters for
// the IPoWDM control plane services.
package observability

import (
	"sync"
	"sync/atomic"
	"time"
)

// maxLatencySamples bounds the in-memory latency window so a long-running
// process does not grow this slice without limit.
const maxLatencySamples = 1000

// Metrics holds atomic counters and a bounded latency window for one
// service process.
type Metrics struct {
	requestCount     atomic.Int64
	errorCount       atomic.Int64
	activeConnCount  atomic.Int64
	reservedIfCount  atomic.Int64
	reconfigCount    atomic.Int64

	mu        sync.Mutex
	latencies []time.Duration
}

// NewMetrics returns a zero-initialized Metrics.
func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) IncRequest()       { m.requestCount.Add(1) }
func (m *Metrics) IncError()         { m.errorCount.Add(1) }
func (m *Metrics) IncActiveConn()    { m.activeConnCount.Add(1) }
func (m *Metrics) DecActiveConn()    { m.activeConnCount.Add(-1) }
func (m *Metrics) IncReservedIf()    { m.reservedIfCount.Add(1) }
func (m *Metrics) DecReservedIf()    { m.reservedIfCount.Add(-1) }
func (m *Metrics) IncReconfig()      { m.reconfigCount.Add(1) }

// ObserveLatency records one request duration into the bounded window,
// dropping the oldest sample once the window is full.
func (m *Metrics) ObserveLatency(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencies = append(m.latencies, d)
	if len(m.latencies) > maxLatencySamples {
		m.latencies = m.latencies[len(m.latencies)-maxLatencySamples:]
	}
}

// LatencySnapshot returns a copy of the current latency window.
func (m *Metrics) LatencySnapshot() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]time.Duration, len(m.latencies))
	copy(out, m.latencies)
	return out
}

// GetMetrics returns a snapshot of the scalar counters.
func (m *Metrics) GetMetrics() map[string]int64 {
	return map[string]int64{
		"request_count":      m.requestCount.Load(),
		"error_count":        m.errorCount.Load(),
		"active_connections": m.activeConnCount.Load(),
		"reserved_interfaces": m.reservedIfCount.Load(),
		"reconfig_count":     m.reconfigCount.Load(),
	}
}
