package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"nexus/internal/model"
	"nexus/internal/staleness"
)

// memRepo is an in-memory EntityRepository keyed by record id.
type memRepo[T any] struct {
	mu      sync.Mutex
	id      func(*T) string
	recs    []T
	creates int
	updates int
}

func newMemRepo[T any](id func(*T) string, recs ...T) *memRepo[T] {
	return &memRepo[T]{id: id, recs: recs}
}

func (r *memRepo[T]) List(context.Context) ([]T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]T(nil), r.recs...), nil
}

func (r *memRepo[T]) FindByID(_ context.Context, id string) (*T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.recs {
		if r.id(&r.recs[i]) == id {
			rec := r.recs[i]
			return &rec, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", id, model.ErrNotFound)
}

func (r *memRepo[T]) Create(_ context.Context, rec *T) (*T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recs = append(r.recs, *rec)
	r.creates++
	out := *rec
	return &out, nil
}

func (r *memRepo[T]) Update(_ context.Context, rec *T) (*T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.recs {
		if r.id(&r.recs[i]) == r.id(rec) {
			r.recs[i] = *rec
			r.updates++
			out := *rec
			return &out, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", r.id(rec), model.ErrNotFound)
}

func projectID(p *model.Project) string { return p.ID }

// memDocs is an in-memory DocumentStore.
type memDocs struct {
	docs   map[model.Section]string
	writes int
}

func newMemDocs() *memDocs { return &memDocs{docs: map[model.Section]string{}} }

func (d *memDocs) Read(_ context.Context, s model.Section) (string, error) {
	text, ok := d.docs[s]
	if !ok {
		return "", fmt.Errorf("document %s: %w", s, model.ErrNotFound)
	}
	return text, nil
}

func (d *memDocs) Write(_ context.Context, s model.Section, text string) error {
	d.docs[s] = text
	d.writes++
	return nil
}

// memStates is an in-memory SyncStateRepository.
type memStates struct {
	states map[model.Section]*model.SyncState
}

func newMemStates() *memStates { return &memStates{states: map[model.Section]*model.SyncState{}} }

func (m *memStates) Get(_ context.Context, s model.Section) (*model.SyncState, error) {
	st, ok := m.states[s]
	if !ok {
		return nil, nil
	}
	cp := *st
	return &cp, nil
}

func (m *memStates) List(context.Context) ([]model.SyncState, error) {
	out := make([]model.SyncState, 0, len(m.states))
	for _, st := range m.states {
		out = append(out, *st)
	}
	return out, nil
}

func (m *memStates) row(s model.Section) *model.SyncState {
	st, ok := m.states[s]
	if !ok {
		st = &model.SyncState{Section: s, StaleAfterMinutes: model.DefaultStaleAfterMinutes}
		m.states[s] = st
	}
	return st
}

func (m *memStates) MarkSynced(_ context.Context, s model.Section, at time.Time, etag, lastError string) error {
	st := m.row(s)
	st.LastSync = &at
	st.ETag = etag
	st.LastError = lastError
	if lastError == "" {
		st.RetryCount = 0
	} else {
		st.RetryCount++
	}
	return nil
}

func (m *memStates) MarkFailed(_ context.Context, s model.Section, lastError string) error {
	st := m.row(s)
	st.LastError = lastError
	st.RetryCount++
	return nil
}

func (m *memStates) EnsureThreshold(_ context.Context, s model.Section, minutes int) error {
	m.row(s).StaleAfterMinutes = minutes
	return nil
}

var now = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return now }

// seqIDs returns ids prefix_1, prefix_2, ... in call order.
func seqIDs() IDFunc {
	n := 0
	return func(prefix string, _ time.Time) string {
		n++
		return fmt.Sprintf("%s_%d", prefix, n)
	}
}

type harness struct {
	docs     *memDocs
	states   *memStates
	projects *memRepo[model.Project]
	engine   *Engine
}

func newHarness(projects ...model.Project) *harness {
	h := &harness{
		docs:     newMemDocs(),
		states:   newMemStates(),
		projects: newMemRepo(projectID, projects...),
	}
	tracker := staleness.NewTracker(h.states, fixedClock)
	h.engine = NewEngine(h.docs, tracker, Stores{Projects: h.projects}, WithIDFunc(seqIDs()))
	return h
}
