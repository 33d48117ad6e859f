// Package observability exposes Prometheus metrics for the monitor service.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the monitor service
type Metrics struct {
	RefreshCycles    prometheus.Counter
	RefreshDuration  prometheus.Histogram
	FetchesTotal     *prometheus.CounterVec
	ParseFailures    *prometheus.CounterVec
	StaleAirports    prometheus.Gauge
	ModeAdvances     prometheus.Counter
	ConnectedClients prometheus.Gauge
}

// NewMetrics creates and registers the monitor metrics with the given registerer
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RefreshCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "monitor_refresh_cycles_total",
			Help: "Total number of completed refresh cycles.",
		}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "monitor_refresh_duration_seconds",
			Help:    "Duration of a full refresh cycle across all airports.",
			Buckets: prometheus.DefBuckets,
		}),
		FetchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "monitor_fetches_total",
			Help: "Raw report fetches by report type and outcome.",
		}, []string{"type", "outcome"}),
		ParseFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "monitor_parse_failures_total",
			Help: "Report parse failures by report type.",
		}, []string{"type"}),
		StaleAirports: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "monitor_stale_airports",
			Help: "Number of airports currently serving stale data.",
		}),
		ModeAdvances: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "monitor_mode_advances_total",
			Help: "Total number of display mode advances.",
		}),
		ConnectedClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "monitor_websocket_clients",
			Help: "Number of connected WebSocket clients.",
		}),
	}

	reg.MustRegister(
		m.RefreshCycles,
		m.RefreshDuration,
		m.FetchesTotal,
		m.ParseFailures,
		m.StaleAirports,
		m.ModeAdvances,
		m.ConnectedClients,
	)
	return m
}

// NewMetricsForTesting creates metrics registered against a throwaway registry
func NewMetricsForTesting() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}
