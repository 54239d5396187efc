// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "arxiv_radar"

// Metrics holds the Prometheus collectors. A nil *Metrics is valid and
// records nothing, so components can run without a registry in tests.
type Metrics struct {
	// UpstreamRequests counts upstream HTTP requests by endpoint and status code.
	UpstreamRequests *prometheus.CounterVec

	// UpstreamDuration observes upstream request latency by endpoint.
	UpstreamDuration *prometheus.HistogramVec

	// EntriesRejected counts feed entries dropped by the normalizer.
	EntriesRejected prometheus.Counter

	// PapersKept counts in-window papers by strategy.
	PapersKept *prometheus.CounterVec

	// Rebuilds counts rebuild attempts by force source and outcome.
	Rebuilds *prometheus.CounterVec

	// LastRebuild is the unix time of the last successful rebuild.
	LastRebuild prometheus.Gauge

	// ClockDrift is server time minus local time, in seconds.
	ClockDrift prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Upstream HTTP requests by endpoint and status code.",
		}, []string{"endpoint", "status"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "request_duration_seconds",
			Help:      "Upstream HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		EntriesRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "entries_rejected_total",
			Help:      "Feed entries dropped for an unusable identifier or dates.",
		}),
		PapersKept: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "papers_kept_total",
			Help:      "In-window papers kept after dedup, by strategy.",
		}, []string{"source"}),
		Rebuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rebuild",
			Name:      "runs_total",
			Help:      "Rebuild runs by requested source and outcome.",
		}, []string{"force_source", "outcome"}),
		LastRebuild: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "rebuild",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful rebuild.",
		}),
		ClockDrift: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "clock",
			Name:      "drift_seconds",
			Help:      "Upstream server time minus local time.",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.UpstreamRequests,
			m.UpstreamDuration,
			m.EntriesRejected,
			m.PapersKept,
			m.Rebuilds,
			m.LastRebuild,
			m.ClockDrift,
		)
	}
	return m
}

// ObserveUpstream records one upstream request.
func (m *Metrics) ObserveUpstream(endpoint string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.UpstreamRequests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	m.UpstreamDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// RejectEntry records one dropped feed entry.
func (m *Metrics) RejectEntry() {
	if m == nil {
		return
	}
	m.EntriesRejected.Inc()
}

// KeepPapers records n papers kept by a fetch using source.
func (m *Metrics) KeepPapers(source string, n int) {
	if m == nil {
		return
	}
	m.PapersKept.WithLabelValues(source).Add(float64(n))
}

// RecordRebuild records a rebuild outcome; success also stamps LastRebuild.
func (m *Metrics) RecordRebuild(forceSource string, err error, at time.Time) {
	if m == nil {
		return
	}
	if err != nil {
		m.Rebuilds.WithLabelValues(forceSource, "failure").Inc()
		return
	}
	m.Rebuilds.WithLabelValues(forceSource, "success").Inc()
	m.LastRebuild.Set(float64(at.Unix()))
}

// SetClockDrift records the most recent server-minus-local drift.
func (m *Metrics) SetClockDrift(drift time.Duration) {
	if m == nil {
		return
	}
	m.ClockDrift.Set(drift.Seconds())
}
