// Package metrics exposes Prometheus collectors for reconciliation and staleness.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"nexus/internal/model"
)

// Sync holds the reconciliation collectors. A nil *Sync records nothing.
type Sync struct {
	runs             *prometheus.CounterVec
	mutations        *prometheus.CounterVec
	duration         *prometheus.HistogramVec
	minutesSinceSync *prometheus.GaugeVec
	stale            *prometheus.GaugeVec
}

// NewSync creates the collectors and registers them on reg.
func NewSync(reg prometheus.Registerer) (*Sync, error) {
	m := &Sync{
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nexus_sync_runs_total",
				Help: "Reconciliations by section, direction and outcome.",
			},
			[]string{"section", "direction", "outcome"},
		),
		mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nexus_sync_mutations_total",
				Help: "Store mutations applied by reconciliation.",
			},
			[]string{"section", "entity", "op"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nexus_sync_duration_seconds",
				Help:    "Reconciliation latency.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"section"},
		),
		minutesSinceSync: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "nexus_sync_minutes_since_sync",
				Help: "Minutes since the last sync of a section, -1 when never synced.",
			},
			[]string{"section"},
		),
		stale: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "nexus_sync_stale",
				Help: "1 when the section is stale.",
			},
			[]string{"section"},
		),
	}
	for _, c := range []prometheus.Collector{m.runs, m.mutations, m.duration, m.minutesSinceSync, m.stale} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveResult records one reconciliation.
func (m *Sync) ObserveResult(res *model.SyncResult) {
	if m == nil || res == nil {
		return
	}
	outcome := "success"
	switch {
	case !res.Success:
		outcome = "failure"
	case len(res.Errors) > 0:
		outcome = "partial"
	}
	m.runs.WithLabelValues(string(res.Section), string(res.Direction), outcome).Inc()
	m.duration.WithLabelValues(string(res.Section)).Observe(float64(res.DurationMS) / 1000)
	if res.DryRun {
		return
	}
	for et, c := range res.Counts {
		if c.Created > 0 {
			m.mutations.WithLabelValues(string(res.Section), string(et), "create").Add(float64(c.Created))
		}
		if c.Updated > 0 {
			m.mutations.WithLabelValues(string(res.Section), string(et), "update").Add(float64(c.Updated))
		}
	}
}

// ObserveCheck updates the staleness gauges of one section.
func (m *Sync) ObserveCheck(c model.StalenessCheck) {
	if m == nil {
		return
	}
	minutes := -1.0
	if c.MinutesSinceSync != nil {
		minutes = float64(*c.MinutesSinceSync)
	}
	m.minutesSinceSync.WithLabelValues(string(c.Section)).Set(minutes)
	stale := 0.0
	if c.IsStale {
		stale = 1
	}
	m.stale.WithLabelValues(string(c.Section)).Set(stale)
}
