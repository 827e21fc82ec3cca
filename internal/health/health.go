// Package health aggregates per-section staleness into a dashboard report.
package health

import (
	"context"
	"time"

	"nexus/internal/metrics"
	"nexus/internal/model"
	"nexus/internal/staleness"
)

// Overall statuses.
const (
	StatusFresh = "fresh"
	StatusStale = "stale"
	StatusError = "error"
)

// SectionHealth is a staleness check with its display projection.
type SectionHealth struct {
	model.StalenessCheck
	Display model.Indicator `json:"display"`
	Message string          `json:"message"`
}

// Report is the health of every section.
type Report struct {
	Sections      []SectionHealth `json:"sections"`
	OverallStatus string          `json:"overall_status"`
	Timestamp     time.Time       `json:"timestamp"`
}

// Reporter builds health reports from the tracker.
type Reporter struct {
	tracker *staleness.Tracker
	metrics *metrics.Sync
}

// NewReporter returns a Reporter. m may be nil.
func NewReporter(tracker *staleness.Tracker, m *metrics.Sync) *Reporter {
	return &Reporter{tracker: tracker, metrics: m}
}

// Overall reports every section. The status is fresh when nothing is stale,
// error when any section is more than twice past its threshold and stale
// otherwise. A section that was never synced counts as stale.
func (r *Reporter) Overall(ctx context.Context) (*Report, error) {
	checks, err := r.tracker.CheckAll(ctx)
	if err != nil {
		return nil, err
	}
	rep := &Report{
		Sections:      make([]SectionHealth, 0, len(checks)),
		OverallStatus: StatusFresh,
		Timestamp:     r.tracker.Now(),
	}
	for _, c := range checks {
		rep.Sections = append(rep.Sections, r.section(c))
		switch {
		case staleness.Overdue(c):
			rep.OverallStatus = StatusError
		case c.IsStale && rep.OverallStatus == StatusFresh:
			rep.OverallStatus = StatusStale
		}
	}
	return rep, nil
}

// Section reports one section. Unknown names fail with model.ErrNotFound.
func (r *Reporter) Section(ctx context.Context, name string) (*SectionHealth, error) {
	s, err := model.ParseSection(name)
	if err != nil {
		return nil, err
	}
	c, err := r.tracker.Check(ctx, s)
	if err != nil {
		return nil, err
	}
	h := r.section(c)
	return &h, nil
}

func (r *Reporter) section(c model.StalenessCheck) SectionHealth {
	r.metrics.ObserveCheck(c)
	return SectionHealth{
		StalenessCheck: c,
		Display:        staleness.Classify(c),
		Message:        staleness.Message(c),
	}
}
