// Package metrics exposes the scanner's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles every instrument the scanner records. One instance is
// created at wire time and shared by reference.
type Metrics struct {
	registry *prometheus.Registry

	FramesReceived    *prometheus.CounterVec
	FeedConnected     prometheus.Gauge
	CyclesTotal       prometheus.Counter
	CycleDuration     prometheus.Histogram
	OpportunitiesSeen prometheus.Gauge
	PositiveEV        prometheus.Gauge
	AlertsSent        *prometheus.CounterVec
	AlertsSuppressed  *prometheus.CounterVec
}

// New creates a Metrics with its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		FramesReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "propscan_feed_frames_total",
			Help: "Feed frames received, by action.",
		}, []string{"action"}),
		FeedConnected: factory.NewGauge(prometheus.GaugeOpts{
			Name: "propscan_feed_connected",
			Help: "Whether the push feed is currently connected.",
		}),
		CyclesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "propscan_evaluation_cycles_total",
			Help: "Completed evaluation cycles.",
		}),
		CycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "propscan_evaluation_cycle_seconds",
			Help:    "Wall time of one evaluation cycle.",
			Buckets: prometheus.DefBuckets,
		}),
		OpportunitiesSeen: factory.NewGauge(prometheus.GaugeOpts{
			Name: "propscan_opportunities",
			Help: "Opportunities in the latest normalized cycle.",
		}),
		PositiveEV: factory.NewGauge(prometheus.GaugeOpts{
			Name: "propscan_positive_ev_opportunities",
			Help: "Positive-EV opportunities in the latest cycle.",
		}),
		AlertsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "propscan_alerts_sent_total",
			Help: "Alerts delivered, by tier.",
		}, []string{"tier"}),
		AlertsSuppressed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "propscan_alerts_suppressed_total",
			Help: "Alerts suppressed by the governor, by decision.",
		}, []string{"decision"}),
	}
}

// Registry returns the metrics registry for the HTTP exporter.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
