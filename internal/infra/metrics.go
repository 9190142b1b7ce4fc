package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight observability for the order cycle.
// Uses atomic operations so the metrics listener can read while the loop writes.
type Metrics struct {
	// Counters
	ticks           atomic.Uint64
	ordersPlaced    atomic.Uint64
	ordersCancelled atomic.Uint64
	placeFailures   atomic.Uint64
	depthFailures   atomic.Uint64
	quoteFailures   atomic.Uint64
	cancelFailures  atomic.Uint64
	purges          atomic.Uint64
	purgeFailures   atomic.Uint64

	// Latency tracking
	latencySumNs atomic.Int64
	latencyCount atomic.Uint64

	// Gauges
	openOrders atomic.Int32
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordTick records one processed tick with its latency.
func (m *Metrics) RecordTick(latency time.Duration) {
	m.ticks.Add(1)
	m.latencySumNs.Add(latency.Nanoseconds())
	m.latencyCount.Add(1)
}

// RecordPlaced records a successful placement and marks an order as open.
func (m *Metrics) RecordPlaced(stillOpen bool) {
	m.ordersPlaced.Add(1)
	if stillOpen {
		m.openOrders.Store(1)
	}
}

// RecordCancelled records a successful cancellation.
func (m *Metrics) RecordCancelled() {
	m.ordersCancelled.Add(1)
	m.openOrders.Store(0)
}

// RecordPlaceFailure records a rejected or failed placement.
func (m *Metrics) RecordPlaceFailure() {
	m.placeFailures.Add(1)
}

// RecordDepthFailure records a failed depth fetch.
func (m *Metrics) RecordDepthFailure() {
	m.depthFailures.Add(1)
}

// RecordQuoteFailure records an invalid price/quantity computation.
func (m *Metrics) RecordQuoteFailure() {
	m.quoteFailures.Add(1)
}

// RecordCancelFailure records a failed cancellation of a known order.
func (m *Metrics) RecordCancelFailure() {
	m.cancelFailures.Add(1)
}

// RecordPurge records a cancel-all attempt.
func (m *Metrics) RecordPurge(err error) {
	m.purges.Add(1)
	if err != nil {
		m.purgeFailures.Add(1)
		return
	}
	m.openOrders.Store(0)
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	Ticks           uint64
	OrdersPlaced    uint64
	OrdersCancelled uint64
	PlaceFailures   uint64
	DepthFailures   uint64
	QuoteFailures   uint64
	CancelFailures  uint64
	Purges          uint64
	PurgeFailures   uint64
	AvgTickLatency  time.Duration
	OpenOrders      int32
	Timestamp       time.Time
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	var avgLatency int64
	count := m.latencyCount.Load()
	if count > 0 {
		avgLatency = m.latencySumNs.Load() / int64(count)
	}

	return MetricsSnapshot{
		Ticks:           m.ticks.Load(),
		OrdersPlaced:    m.ordersPlaced.Load(),
		OrdersCancelled: m.ordersCancelled.Load(),
		PlaceFailures:   m.placeFailures.Load(),
		DepthFailures:   m.depthFailures.Load(),
		QuoteFailures:   m.quoteFailures.Load(),
		CancelFailures:  m.cancelFailures.Load(),
		Purges:          m.purges.Load(),
		PurgeFailures:   m.purgeFailures.Load(),
		AvgTickLatency:  time.Duration(avgLatency),
		OpenOrders:      m.openOrders.Load(),
		Timestamp:       time.Now(),
	}
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	m.ticks.Store(0)
	m.ordersPlaced.Store(0)
	m.ordersCancelled.Store(0)
	m.placeFailures.Store(0)
	m.depthFailures.Store(0)
	m.quoteFailures.Store(0)
	m.cancelFailures.Store(0)
	m.purges.Store(0)
	m.purgeFailures.Store(0)
	m.latencySumNs.Store(0)
	m.latencyCount.Store(0)
	m.openOrders.Store(0)
}
