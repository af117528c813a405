// Package metrics exposes Prometheus collectors for the beacon server.
//
// All methods are nil-safe so components can be built without metrics in tests.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	domain "github.com/oshokin/emergency-beacon/internal/domain/beacon"
)

// Metrics groups the collectors registered for one server instance.
type Metrics struct {
	heartbeats   *prometheus.CounterVec
	armed        prometheus.Gauge
	ticks        *prometheus.CounterVec
	alerts       *prometheus.CounterVec
	lastLocation prometheus.Gauge
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		heartbeats: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "beacon_heartbeats_total",
			Help: "Heartbeats received, by whether they carried coordinates",
		}, []string{"located"}),
		armed: factory.NewGauge(prometheus.GaugeOpts{
			Name: "beacon_monitoring_armed",
			Help: "1 while a heartbeat silence will fire an automatic alert",
		}),
		ticks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "beacon_monitor_ticks_total",
			Help: "Monitor loop evaluations, by verdict",
		}, []string{"verdict"}),
		alerts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "beacon_alerts_total",
			Help: "Alerts dispatched, by kind and delivery outcome",
		}, []string{"kind", "outcome"}),
		lastLocation: factory.NewGauge(prometheus.GaugeOpts{
			Name: "beacon_last_location_timestamp_seconds",
			Help: "Unix time of the last heartbeat that carried coordinates",
		}),
	}
}

// Heartbeat counts one heartbeat.
func (m *Metrics) Heartbeat(located bool) {
	if m == nil {
		return
	}

	label := "false"
	if located {
		label = "true"
	}

	m.heartbeats.WithLabelValues(label).Inc()
}

// ObserveState mirrors a tracker state into the gauges. The tracker calls it
// under its lock, so the gauges never mix two different states.
func (m *Metrics) ObserveState(snapshot *domain.Snapshot) {
	if m == nil || snapshot == nil {
		return
	}

	if snapshot.MonitoringArmed {
		m.armed.Set(1)
	} else {
		m.armed.Set(0)
	}

	if loc := snapshot.LastKnownLocation; loc != nil {
		m.lastLocation.Set(float64(loc.ObservedAt.UnixNano()) / 1e9)
	}
}

// Tick counts one monitor evaluation.
func (m *Metrics) Tick(verdict string) {
	if m == nil {
		return
	}

	m.ticks.WithLabelValues(verdict).Inc()
}

// Alert counts one dispatched alert.
func (m *Metrics) Alert(kind string, sent bool) {
	if m == nil {
		return
	}

	outcome := "failed"
	if sent {
		outcome = "sent"
	}

	m.alerts.WithLabelValues(kind, outcome).Inc()
}
