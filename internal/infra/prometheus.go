package infra

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metricsCollector exposes a Metrics snapshot in Prometheus text format.
// Values are read at scrape time, so the trading loop never touches Prometheus types.
type metricsCollector struct {
	m *Metrics

	ticks           *prometheus.Desc
	ordersPlaced    *prometheus.Desc
	ordersCancelled *prometheus.Desc
	failures        *prometheus.Desc
	purges          *prometheus.Desc
	tickLatency     *prometheus.Desc
	openOrders      *prometheus.Desc
}

// NewMetricsCollector wraps m as a prometheus.Collector.
func NewMetricsCollector(m *Metrics) prometheus.Collector {
	return &metricsCollector{
		m:               m,
		ticks:           prometheus.NewDesc("cycle_ticks_total", "Scheduler ticks processed", nil, nil),
		ordersPlaced:    prometheus.NewDesc("cycle_orders_placed_total", "Orders accepted by the exchange", nil, nil),
		ordersCancelled: prometheus.NewDesc("cycle_orders_cancelled_total", "Orders cancelled by the controller", nil, nil),
		failures:        prometheus.NewDesc("cycle_failures_total", "Failures by stage", []string{"stage"}, nil),
		purges:          prometheus.NewDesc("cycle_purges_total", "Cancel-all attempts by result", []string{"result"}, nil),
		tickLatency:     prometheus.NewDesc("cycle_tick_latency_seconds_avg", "Average tick latency", nil, nil),
		openOrders:      prometheus.NewDesc("cycle_open_orders", "Orders currently held open (0 or 1)", nil, nil),
	}
}

func (c *metricsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.ticks
	ch <- c.ordersPlaced
	ch <- c.ordersCancelled
	ch <- c.failures
	ch <- c.purges
	ch <- c.tickLatency
	ch <- c.openOrders
}

func (c *metricsCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.m.Snapshot()

	ch <- prometheus.MustNewConstMetric(c.ticks, prometheus.CounterValue, float64(s.Ticks))
	ch <- prometheus.MustNewConstMetric(c.ordersPlaced, prometheus.CounterValue, float64(s.OrdersPlaced))
	ch <- prometheus.MustNewConstMetric(c.ordersCancelled, prometheus.CounterValue, float64(s.OrdersCancelled))
	ch <- prometheus.MustNewConstMetric(c.failures, prometheus.CounterValue, float64(s.DepthFailures), "depth")
	ch <- prometheus.MustNewConstMetric(c.failures, prometheus.CounterValue, float64(s.QuoteFailures), "quote")
	ch <- prometheus.MustNewConstMetric(c.failures, prometheus.CounterValue, float64(s.PlaceFailures), "place")
	ch <- prometheus.MustNewConstMetric(c.failures, prometheus.CounterValue, float64(s.CancelFailures), "cancel")
	ch <- prometheus.MustNewConstMetric(c.purges, prometheus.CounterValue, float64(s.Purges-s.PurgeFailures), "ok")
	ch <- prometheus.MustNewConstMetric(c.purges, prometheus.CounterValue, float64(s.PurgeFailures), "error")
	ch <- prometheus.MustNewConstMetric(c.tickLatency, prometheus.GaugeValue, s.AvgTickLatency.Seconds())
	ch <- prometheus.MustNewConstMetric(c.openOrders, prometheus.GaugeValue, float64(s.OpenOrders))
}

// NewMetricsHandler returns an HTTP handler serving m on a private registry.
func NewMetricsHandler(m *Metrics) http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(NewMetricsCollector(m))
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
