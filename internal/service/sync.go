package service

import (
	"context"
	"time"

	"nexus/internal/health"
	"nexus/internal/manual"
	"nexus/internal/model"
	"nexus/internal/reconcile"
	"nexus/internal/staleness"
	"nexus/internal/storage"
)

// Section summary statuses.
const (
	StatusFresh = "fresh"
	StatusStale = "stale"
	StatusError = "error"
	StatusNever = "never"
)

// SectionSummary is one row of the sync overview.
type SectionSummary struct {
	Section           model.Section `json:"section"`
	Status            string        `json:"status"`
	LastSync          *time.Time    `json:"last_sync"`
	StaleAfterMinutes int           `json:"stale_after_minutes"`
	MinutesSinceSync  *int          `json:"minutes_since_sync"`
	LastError         string        `json:"last_error,omitempty"`
	ETag              string        `json:"etag,omitempty"`
	RetryCount        int           `json:"retry_count"`
}

// SyncSummary is the sync state of every section.
type SyncSummary struct {
	Sections      []SectionSummary `json:"sections"`
	OverallStatus string           `json:"overall_status"`
	Timestamp     time.Time        `json:"timestamp"`
}

// SectionContent is a section document with its sync metadata.
type SectionContent struct {
	Section     model.Section `json:"section"`
	Content     string        `json:"content"`
	LastSync    *time.Time    `json:"last_sync"`
	ETag        string        `json:"etag"`
	DownloadURL string        `json:"download_url,omitempty"`
}

// ManualResult is the operations manual filtered by a query.
type ManualResult struct {
	Query    string           `json:"query,omitempty"`
	TOC      []manual.Entry   `json:"toc"`
	Sections []manual.Section `json:"sections"`
}

// Reconciler runs reconciliations. *reconcile.Engine implements it.
type Reconciler interface {
	Reconcile(ctx context.Context, section model.Section, opts reconcile.Options) (*model.SyncResult, error)
	ReconcileAll(ctx context.Context, opts reconcile.Options) (*model.AllResult, error)
}

// SyncService defines the use cases behind the /sync and /manual endpoints.
type SyncService interface {
	// Summary returns the sync state of every section.
	Summary(ctx context.Context) (*SyncSummary, error)

	// ReconcileAll reconciles every section.
	ReconcileAll(ctx context.Context, opts reconcile.Options) (*model.AllResult, error)

	// Reconcile reconciles one section by name.
	Reconcile(ctx context.Context, section string, opts reconcile.Options) (*model.SyncResult, error)

	// Content returns the current document of a section.
	Content(ctx context.Context, section string) (*SectionContent, error)

	// Health returns the staleness report of every section.
	Health(ctx context.Context) (*health.Report, error)

	// SectionHealth returns the staleness report of one section.
	SectionHealth(ctx context.Context, section string) (*health.SectionHealth, error)

	// Manual returns the operations manual sections matching query.
	Manual(ctx context.Context, query string) (*ManualResult, error)
}

type syncService struct {
	engine     Reconciler
	tracker    *staleness.Tracker
	reporter   *health.Reporter
	docs       storage.DocumentStore
	linkExpiry time.Duration
}

// NewSyncService constructs a SyncService. Download links are only offered
// when docs implements storage.DocumentLinker and linkExpiry is positive.
func NewSyncService(engine Reconciler, tracker *staleness.Tracker, reporter *health.Reporter, docs storage.DocumentStore, linkExpiry time.Duration) SyncService {
	return &syncService{engine: engine, tracker: tracker, reporter: reporter, docs: docs, linkExpiry: linkExpiry}
}

func (s *syncService) Summary(ctx context.Context) (*SyncSummary, error) {
	states, err := s.tracker.States(ctx)
	if err != nil {
		return nil, err
	}
	out := &SyncSummary{
		Sections:      make([]SectionSummary, 0, len(model.Sections)),
		OverallStatus: StatusFresh,
		Timestamp:     s.tracker.Now(),
	}
	for _, c := range s.tracker.CheckStates(states) {
		row := SectionSummary{
			Section:           c.Section,
			Status:            summaryStatus(c, states[c.Section]),
			LastSync:          c.LastSync,
			StaleAfterMinutes: c.StaleAfterMinutes,
			MinutesSinceSync:  c.MinutesSinceSync,
		}
		if st := states[c.Section]; st != nil {
			row.LastError = st.LastError
			row.ETag = st.ETag
			row.RetryCount = st.RetryCount
		}
		out.Sections = append(out.Sections, row)

		switch {
		case row.Status == StatusError:
			out.OverallStatus = StatusError
		case c.IsStale && out.OverallStatus == StatusFresh:
			out.OverallStatus = StatusStale
		}
	}
	return out, nil
}

// summaryStatus reports error for a section whose last run left an error,
// even when its last successful sync is recent.
func summaryStatus(c model.StalenessCheck, st *model.SyncState) string {
	switch {
	case st != nil && st.LastError != "":
		return StatusError
	case c.LastSync == nil:
		return StatusNever
	case staleness.Overdue(c):
		return StatusError
	case c.IsStale:
		return StatusStale
	default:
		return StatusFresh
	}
}

func (s *syncService) ReconcileAll(ctx context.Context, opts reconcile.Options) (*model.AllResult, error) {
	return s.engine.ReconcileAll(ctx, opts)
}

func (s *syncService) Reconcile(ctx context.Context, section string, opts reconcile.Options) (*model.SyncResult, error) {
	sec, err := model.ParseSection(section)
	if err != nil {
		return nil, err
	}
	return s.engine.Reconcile(ctx, sec, opts)
}

func (s *syncService) Content(ctx context.Context, section string) (*SectionContent, error) {
	sec, err := model.ParseSection(section)
	if err != nil {
		return nil, err
	}
	text, err := s.docs.Read(ctx, sec)
	if err != nil {
		return nil, err
	}
	st, err := s.tracker.State(ctx, sec)
	if err != nil {
		return nil, err
	}
	out := &SectionContent{Section: sec, Content: text, ETag: reconcile.ETag(text)}
	if st != nil {
		out.LastSync = st.LastSync
	}
	if l, ok := s.docs.(storage.DocumentLinker); ok && s.linkExpiry > 0 {
		u, err := l.DownloadURL(ctx, sec, s.linkExpiry)
		if err != nil {
			return nil, err
		}
		out.DownloadURL = u
	}
	return out, nil
}

func (s *syncService) Health(ctx context.Context) (*health.Report, error) {
	return s.reporter.Overall(ctx)
}

func (s *syncService) SectionHealth(ctx context.Context, section string) (*health.SectionHealth, error) {
	return s.reporter.Section(ctx, section)
}

func (s *syncService) Manual(ctx context.Context, query string) (*ManualResult, error) {
	text, err := s.docs.Read(ctx, model.SectionOperationsManual)
	if err != nil {
		return nil, err
	}
	all := manual.Split(text)
	return &ManualResult{
		Query:    query,
		TOC:      manual.TOC(all),
		Sections: manual.Search(all, query),
	}, nil
}
