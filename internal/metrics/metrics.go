// Package metrics defines the Prometheus collectors for the expiry engine.
package metrics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

const namespace = "eventdash"

// Engine groups the collectors updated by every scan.
type Engine struct {
	Scans         prometheus.Counter
	ScanDuration  prometheus.Histogram
	Notifications *prometheus.CounterVec // label: type
	Expirations   prometheus.Counter
	Faults        prometheus.Counter
	Events        *prometheus.GaugeVec // label: kind
	LastScan      prometheus.Gauge
}

// NewEngine creates the collectors and registers them on reg. A nil reg gets
// a private registry so repeated construction (e.g. in tests) never collides
// with the global default registry.
func NewEngine(reg prometheus.Registerer) *Engine {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Engine{
		Scans: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "scans_total",
			Help:      "Number of completed expiry scans",
		}),
		ScanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "scan_duration_seconds",
			Help:      "Time spent in one expiry scan",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "notifications_total",
			Help:      "Notifications emitted by the engine, by type",
		}, []string{"type"}),
		Expirations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "expirations_total",
			Help:      "Events moved to the expired status",
		}),
		Faults: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "faults_total",
			Help:      "Per-event failures isolated during scans",
		}),
		Events: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "events",
			Help:      "Events by expiry classification at the last scan",
		}, []string{"kind"}),
		LastScan: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "last_scan_timestamp_seconds",
			Help:      "Unix timestamp of the last completed scan",
		}),
	}
	reg.MustRegister(
		m.Scans, m.ScanDuration, m.Notifications,
		m.Expirations, m.Faults, m.Events, m.LastScan,
	)
	return m
}

// Dump returns a one-line, sorted snapshot of counters and gauges in g, for
// logging at shutdown.
func Dump(g prometheus.Gatherer) (string, error) {
	families, err := g.Gather()
	if err != nil {
		return "", fmt.Errorf("gather metrics: %w", err)
	}

	var out []string
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var v float64
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				v = m.GetCounter().GetValue()
			case dto.MetricType_GAUGE:
				v = m.GetGauge().GetValue()
			default:
				continue
			}
			out = append(out, fmt.Sprintf("%s{%s}=%g", mf.GetName(), labelString(m.GetLabel()), v))
		}
	}
	sort.Strings(out)
	return strings.Join(out, " "), nil
}

func labelString(pairs []*dto.LabelPair) string {
	parts := make([]string, 0, len(pairs))
	for _, lp := range pairs {
		parts = append(parts, lp.GetName()+"="+lp.GetValue())
	}
	return strings.Join(parts, ",")
}
