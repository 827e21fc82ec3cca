package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"nexus/internal/metrics"
	"nexus/internal/model"
	"nexus/internal/repository/mocks"
	"nexus/internal/staleness"
)

func TestReconcile_CreatesProjectWithDefaults(t *testing.T) {
	h := newHarness()
	h.docs.docs[model.SectionProjects] = "# Projects\n\n### Redesign onboarding\nImprove the signup flow.\n"

	res, err := h.engine.Reconcile(context.Background(), model.SectionProjects, Options{Direction: model.DocumentToStore})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Empty(t, res.Errors)
	assert.Equal(t, []string{"proj_1"}, res.Created)
	assert.Equal(t, 1, res.Counts[model.EntityProject].Created)

	require.Len(t, h.projects.recs, 1)
	p := h.projects.recs[0]
	assert.Equal(t, "proj_1", p.ID)
	assert.Equal(t, "Redesign onboarding", p.Title)
	assert.Equal(t, "Improve the signup flow.", p.Description)
	assert.Equal(t, model.StatusBacklog, p.Status)
	assert.Equal(t, model.PriorityMedium, p.Priority)

	check, err := staleness.NewTracker(h.states, fixedClock).Check(context.Background(), model.SectionProjects)
	require.NoError(t, err)
	require.NotNil(t, check.LastSync)
	assert.True(t, check.LastSync.Equal(now))
	assert.False(t, check.IsStale)
}

func TestReconcile_PartialFailure(t *testing.T) {
	repo := new(mocks.MockProjectRepository)
	repo.On("List", mock.Anything).Return([]model.Project{
		{ID: "a", Title: "Alpha", Description: "old", Status: model.StatusBacklog, Priority: model.PriorityMedium},
		{ID: "b", Title: "Beta", Description: "old", Status: model.StatusBacklog, Priority: model.PriorityMedium},
		{ID: "c", Title: "Gamma", Description: "old", Status: model.StatusBacklog, Priority: model.PriorityMedium},
	}, nil)
	passthrough := func(_ context.Context, p *model.Project) *model.Project { return p }
	repo.On("Update", mock.Anything, mock.MatchedBy(func(p *model.Project) bool { return p.ID == "b" })).
		Return(nil, errors.New("boom"))
	repo.On("Update", mock.Anything, mock.MatchedBy(func(p *model.Project) bool { return p.ID != "b" })).
		Return(passthrough, nil)

	docs := newMemDocs()
	docs.docs[model.SectionProjects] = "### Alpha\nnew\n\n### Beta\nnew\n\n### Gamma\nnew\n"
	states := newMemStates()
	e := NewEngine(docs, staleness.NewTracker(states, fixedClock), Stores{Projects: repo})

	res, err := e.Reconcile(context.Background(), model.SectionProjects, Options{Direction: model.DocumentToStore})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, []string{"a", "c"}, res.Updated)
	assert.Equal(t, 2, res.Counts[model.EntityProject].Updated)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], `project "Beta" (line 4): update b: boom`)
	repo.AssertNumberOfCalls(t, "Update", 3)

	st := states.states[model.SectionProjects]
	require.NotNil(t, st.LastSync)
	assert.Equal(t, res.Errors[0], st.LastError)
	assert.Equal(t, 1, st.RetryCount)
}

func TestReconcile_InvalidEntityDoesNotStopOthers(t *testing.T) {
	h := newHarness()
	h.docs.docs[model.SectionProjects] = "### " + strings.Repeat("x", 201) + "\n\n### Fine\n"

	res, err := h.engine.Reconcile(context.Background(), model.SectionProjects, Options{Direction: model.DocumentToStore})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Len(t, res.Created, 1)
	require.Len(t, h.projects.recs, 1)
	assert.Equal(t, "Fine", h.projects.recs[0].Title)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "(line 1)")
	assert.Contains(t, res.Errors[0], "at most 200 characters")
}

func testProjects() []model.Project {
	return []model.Project{
		{ID: "a", Title: "Alpha", Description: "first", Status: model.StatusInProgress, Priority: model.PriorityHigh,
			Metadata: map[string]string{"started": "2026-09-01"}, UpdatedAt: now.Add(-2 * time.Hour)},
		{ID: "b", Title: "Beta", Description: "second", Status: model.StatusDone, Priority: model.PriorityLow,
			UpdatedAt: now.Add(-3 * time.Hour)},
	}
}

func TestReconcile_StoreToDocumentIdempotent(t *testing.T) {
	h := newHarness(testProjects()...)
	opts := Options{Direction: model.StoreToDocument}

	first, err := h.engine.Reconcile(context.Background(), model.SectionProjects, opts)
	require.NoError(t, err)
	text := h.docs.docs[model.SectionProjects]

	second, err := h.engine.Reconcile(context.Background(), model.SectionProjects, opts)
	require.NoError(t, err)

	assert.True(t, first.Success)
	assert.True(t, second.Success)
	assert.Equal(t, text, h.docs.docs[model.SectionProjects])
	assert.Equal(t, 1, h.docs.writes)
	assert.Equal(t, ETag(text), h.states.states[model.SectionProjects].ETag)

	assert.Contains(t, text, "## Active Projects\n\n### Alpha\n**ID:** a\n**Status:** 🔄 In Progress\n**Priority:** High\n**Started:** 2026-09-01\n\nfirst\n")
	assert.Contains(t, text, "## Completed Projects\n\n### Beta\n")
}

func TestReconcile_PreservesTextOutsideManagedRegion(t *testing.T) {
	h := newHarness(testProjects()...)
	h.docs.docs[model.SectionProjects] = "# My board\n\nhand notes\n\n### Alpha\n**ID:** a\n"

	_, err := h.engine.Reconcile(context.Background(), model.SectionProjects, Options{Direction: model.StoreToDocument})
	require.NoError(t, err)

	text := h.docs.docs[model.SectionProjects]
	assert.True(t, strings.HasPrefix(text, "# My board\n\nhand notes\n\n<!-- nexus:sync:begin -->\n"), text)
	assert.True(t, strings.HasSuffix(text, "<!-- nexus:sync:end -->\n"), text)
}

func TestReconcile_NeverDeletes(t *testing.T) {
	h := newHarness(testProjects()...)
	h.docs.docs[model.SectionProjects] = "### Alpha\n**ID:** a\n"

	res, err := h.engine.Reconcile(context.Background(), model.SectionProjects, Options{Direction: model.DocumentToStore})
	require.NoError(t, err)

	assert.Len(t, h.projects.recs, 2)
	assert.Zero(t, res.Counts[model.EntityProject].Deleted)

	_, err = h.engine.Reconcile(context.Background(), model.SectionProjects, Options{Direction: model.StoreToDocument})
	require.NoError(t, err)
	assert.Contains(t, h.docs.docs[model.SectionProjects], "### Beta")
}

func TestReconcile_MatchesByIDBeforeTitle(t *testing.T) {
	h := newHarness(testProjects()...)
	h.docs.docs[model.SectionProjects] = "### Alpha renamed\n**ID:** a\n**Status:** in progress\n**Priority:** high\n**Started:** 2026-09-01\n\nfirst\n"

	res, err := h.engine.Reconcile(context.Background(), model.SectionProjects, Options{Direction: model.DocumentToStore})
	require.NoError(t, err)

	assert.Empty(t, res.Created)
	assert.Equal(t, []string{"a"}, res.Updated)
	p, err := h.projects.FindByID(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "Alpha renamed", p.Title)
	assert.True(t, p.UpdatedAt.Equal(now))
}

func TestReconcile_DuplicateTitles(t *testing.T) {
	h := newHarness()
	h.docs.docs[model.SectionProjects] = "### Alpha\none\n\n### Alpha\ntwo\n"

	res, err := h.engine.Reconcile(context.Background(), model.SectionProjects, Options{Direction: model.DocumentToStore})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, []string{"proj_1"}, res.Created)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, `project "Alpha" (line 4): matches proj_1 already synced from line 1; skipped`, res.Errors[0])
	assert.Len(t, h.projects.recs, 1)
}

func TestReconcile_BidirectionalStoreNewer(t *testing.T) {
	p := model.Project{ID: "a", Title: "Alpha", Description: "from store", Status: model.StatusBacklog,
		Priority: model.PriorityMedium, UpdatedAt: now.Add(-30 * time.Minute)}
	h := newHarness(p)
	last := now.Add(-time.Hour)
	h.states.states[model.SectionProjects] = &model.SyncState{Section: model.SectionProjects, LastSync: &last}
	h.docs.docs[model.SectionProjects] = "### Alpha\n**ID:** a\n\nfrom document\n"

	res, err := h.engine.Reconcile(context.Background(), model.SectionProjects, Options{})
	require.NoError(t, err)

	assert.Equal(t, model.Bidirectional, res.Direction)
	assert.True(t, res.Success)
	assert.Zero(t, h.projects.updates)
	text := h.docs.docs[model.SectionProjects]
	assert.Contains(t, text, "from store")
	assert.NotContains(t, text, "from document")
}

func TestReconcile_BidirectionalDocumentEdited(t *testing.T) {
	p := model.Project{ID: "a", Title: "Alpha", Description: "from store", Status: model.StatusBacklog,
		Priority: model.PriorityMedium, UpdatedAt: now.Add(-time.Hour)}
	h := newHarness(p)
	last := now.Add(-10 * time.Minute)
	h.states.states[model.SectionProjects] = &model.SyncState{Section: model.SectionProjects, LastSync: &last}
	h.docs.docs[model.SectionProjects] = "### Alpha\n**ID:** a\n\nedited\n\n### Brand new\n"

	res, err := h.engine.Reconcile(context.Background(), model.SectionProjects, Options{Direction: model.Bidirectional})
	require.NoError(t, err)

	assert.Equal(t, []string{"a"}, res.Updated)
	assert.Equal(t, []string{"proj_1"}, res.Created)
	assert.Equal(t, "edited", h.projects.recs[0].Description)

	text := h.docs.docs[model.SectionProjects]
	assert.Contains(t, text, "### Brand new\n**ID:** proj_1\n")
	assert.Contains(t, text, "edited")
}

func TestReconcile_BidirectionalNeverSyncedImportsFirst(t *testing.T) {
	p := model.Project{ID: "a", Title: "Alpha", Description: "from store", Status: model.StatusBacklog,
		Priority: model.PriorityMedium, UpdatedAt: now.Add(-time.Minute)}
	h := newHarness(p)
	h.docs.docs[model.SectionProjects] = "### Alpha\n\nfrom document\n"

	_, err := h.engine.Reconcile(context.Background(), model.SectionProjects, Options{})
	require.NoError(t, err)

	assert.Equal(t, "from document", h.projects.recs[0].Description)
}

func TestReconcile_BidirectionalUnparseableDocument(t *testing.T) {
	h := newHarness(testProjects()...)
	h.docs.docs[model.SectionProjects] = "### Alpha\x00\n"

	res, err := h.engine.Reconcile(context.Background(), model.SectionProjects, Options{})
	require.NoError(t, err)

	assert.True(t, res.Success)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "regenerated from store")
	assert.Contains(t, h.docs.docs[model.SectionProjects], "### Beta")
}

func TestReconcile_DryRun(t *testing.T) {
	h := newHarness()
	h.docs.docs[model.SectionProjects] = "### Redesign onboarding\n"

	res, err := h.engine.Reconcile(context.Background(), model.SectionProjects, Options{DryRun: true})
	require.NoError(t, err)

	assert.True(t, res.DryRun)
	assert.Equal(t, []string{"proj_1"}, res.Created)
	assert.Zero(t, h.projects.creates)
	assert.Zero(t, h.docs.writes)
	assert.Empty(t, h.states.states)
}

func TestReconcile_MissingDocumentIsFatal(t *testing.T) {
	h := newHarness()

	res, err := h.engine.Reconcile(context.Background(), model.SectionProjects, Options{Direction: model.DocumentToStore})
	require.NoError(t, err)

	assert.False(t, res.Success)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "not found")

	st := h.states.states[model.SectionProjects]
	require.NotNil(t, st)
	assert.Nil(t, st.LastSync)
	assert.Equal(t, res.Errors[0], st.LastError)
}

func TestReconcile_StoreUnreachable(t *testing.T) {
	repo := new(mocks.MockProjectRepository)
	repo.On("List", mock.Anything).Return(nil, errors.New("connection refused"))
	states := newMemStates()
	e := NewEngine(newMemDocs(), staleness.NewTracker(states, fixedClock), Stores{Projects: repo})

	res, err := e.Reconcile(context.Background(), model.SectionProjects, Options{Direction: model.StoreToDocument})
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Equal(t, []string{"list projects: connection refused"}, res.Errors)
	assert.Nil(t, states.states[model.SectionProjects].LastSync)
}

func TestReconcile_DocumentOnlySections(t *testing.T) {
	h := newHarness()
	manualText := "# Operations\n\n## Deploy\nsteps\n"
	h.docs.docs[model.SectionOperationsManual] = manualText

	res, err := h.engine.Reconcile(context.Background(), model.SectionOperationsManual, Options{})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Empty(t, res.Errors)
	assert.Equal(t, ETag(manualText), h.states.states[model.SectionOperationsManual].ETag)
	assert.Zero(t, h.docs.writes)

	res, err = h.engine.Reconcile(context.Background(), model.SectionSystemConfig, Options{})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, []string{"system_config document not found"}, res.Errors)
	assert.NotNil(t, h.states.states[model.SectionSystemConfig].LastSync)
}

func TestReconcile_RequestErrors(t *testing.T) {
	h := newHarness()

	_, err := h.engine.Reconcile(context.Background(), model.SectionProjects, Options{Direction: "sideways"})
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = h.engine.Reconcile(context.Background(), "calendar", Options{})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestReconcile_Locking(t *testing.T) {
	docs := newMemDocs()
	states := newMemStates()
	tracker := staleness.NewTracker(states, fixedClock)

	t.Run("conflict", func(t *testing.T) {
		locker := new(mocks.MockSectionLocker)
		locker.On("TryLock", mock.Anything, model.SectionProjects).
			Return(nil, fmt.Errorf("section projects: %w", model.ErrConflict))
		e := NewEngine(docs, tracker, Stores{Projects: newMemRepo(projectID)}, WithLocker(locker))

		res, err := e.Reconcile(context.Background(), model.SectionProjects, Options{})
		assert.ErrorIs(t, err, model.ErrConflict)
		assert.Nil(t, res)
	})

	t.Run("released", func(t *testing.T) {
		released := false
		locker := new(mocks.MockSectionLocker)
		locker.On("TryLock", mock.Anything, model.SectionProjects).Return(func() { released = true }, nil)
		e := NewEngine(docs, tracker, Stores{Projects: newMemRepo(projectID)}, WithLocker(locker))

		_, err := e.Reconcile(context.Background(), model.SectionProjects, Options{})
		require.NoError(t, err)
		assert.True(t, released)
	})
}

func TestReconcile_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.NewSync(reg)
	require.NoError(t, err)

	docs := newMemDocs()
	docs.docs[model.SectionProjects] = "### Alpha\n"
	e := NewEngine(docs, staleness.NewTracker(newMemStates(), fixedClock),
		Stores{Projects: newMemRepo(projectID)}, WithMetrics(m))

	_, err = e.Reconcile(context.Background(), model.SectionProjects, Options{Direction: model.DocumentToStore})
	require.NoError(t, err)

	n, err := testutil.GatherAndCount(reg, "nexus_sync_runs_total", "nexus_sync_mutations_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestReconcileAll(t *testing.T) {
	docs := newMemDocs()
	states := newMemStates()
	e := NewEngine(docs, staleness.NewTracker(states, fixedClock), Stores{
		Projects: newMemRepo(projectID, testProjects()...),
		Services: newMemRepo(func(s *model.Service) string { return s.ID },
			model.Service{ID: "svc_1", Name: "calendar", DisplayName: "Calendar", Status: model.ServiceOnline, CheckIntervalMinutes: 30}),
		Usage: newMemRepo(func(u *model.UsageMetric) string { return u.ID }),
	})

	all, err := e.ReconcileAll(context.Background(), Options{})
	require.NoError(t, err)

	assert.True(t, all.Success)
	assert.Len(t, all.Results, len(model.Sections))
	assert.Empty(t, all.Errors)
	assert.Contains(t, docs.docs[model.SectionServices], "### Calendar\n**ID:** svc_1\n**Status:** Online\n")
	assert.Contains(t, docs.docs[model.SectionUsageLimits], "# Usage Limits")
	for _, s := range model.Sections {
		assert.NotNil(t, states.states[s].LastSync, s)
	}

	_, err = e.ReconcileAll(context.Background(), Options{Direction: "nope"})
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestReconcile_DescriptionWithMarkdownHeadingsRoundTrips(t *testing.T) {
	desc := "Intro\n### Phase 2\n## Notes\n**Owner:** Mike\nship it"
	h := newHarness(model.Project{ID: "p1", Title: "Alpha", Description: desc,
		Status: model.StatusBacklog, Priority: model.PriorityMedium, UpdatedAt: now.Add(-time.Hour)})

	_, err := h.engine.Reconcile(context.Background(), model.SectionProjects, Options{Direction: model.StoreToDocument})
	require.NoError(t, err)
	assert.Contains(t, h.docs.docs[model.SectionProjects], "\n\\### Phase 2\n")

	res, err := h.engine.Reconcile(context.Background(), model.SectionProjects, Options{Direction: model.DocumentToStore})
	require.NoError(t, err)

	assert.Empty(t, res.Errors)
	assert.Empty(t, res.Created)
	assert.Empty(t, res.Updated)
	assert.Equal(t, 1, res.Counts[model.EntityProject].Unchanged)
	require.Len(t, h.projects.recs, 1)
	assert.Equal(t, desc, h.projects.recs[0].Description)
	assert.Nil(t, h.projects.recs[0].Metadata)
}

func TestReconcile_ServiceAnnotationsWithoutFieldAreKept(t *testing.T) {
	docs := newMemDocs()
	docs.docs[model.SectionServices] = "### GitHub\n**Status:** Online\n**Owner:** Mike\n"
	services := newMemRepo(func(s *model.Service) string { return s.ID })
	e := NewEngine(docs, staleness.NewTracker(newMemStates(), fixedClock), Stores{Services: services}, WithIDFunc(seqIDs()))

	res, err := e.Reconcile(context.Background(), model.SectionServices, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"svc_1"}, res.Created)

	require.Len(t, services.recs, 1)
	assert.Equal(t, map[string]string{"owner": "Mike"}, services.recs[0].Metadata)
	assert.Contains(t, docs.docs[model.SectionServices], "**Owner:** Mike\n")

	again, err := e.Reconcile(context.Background(), model.SectionServices, Options{Direction: model.DocumentToStore})
	require.NoError(t, err)
	assert.Empty(t, again.Updated)
	assert.Equal(t, 1, again.Counts[model.EntityService].Unchanged)
}

func TestReconcile_Conflicts(t *testing.T) {
	last := now.Add(-time.Hour)
	setup := func(updatedAt time.Time) *harness {
		h := newHarness(model.Project{ID: "a", Title: "Alpha", Description: "store text",
			Status: model.StatusBacklog, Priority: model.PriorityMedium, UpdatedAt: updatedAt})
		h.states.states[model.SectionProjects] = &model.SyncState{Section: model.SectionProjects, LastSync: &last}
		h.docs.docs[model.SectionProjects] = "### Alpha\n**ID:** a\n**Status:** done\n\ndocument text\n"
		return h
	}

	t.Run("prefer document by default", func(t *testing.T) {
		h := setup(now.Add(-time.Minute))
		res, err := h.engine.Reconcile(context.Background(), model.SectionProjects, Options{Direction: model.DocumentToStore})
		require.NoError(t, err)

		assert.Equal(t, []string{"a"}, res.Updated)
		require.Len(t, res.Conflicts, 1)
		c := res.Conflicts[0]
		assert.Equal(t, "a", c.ID)
		assert.Equal(t, 1, c.Line)
		assert.Equal(t, []string{"description", "status"}, c.Fields)
		assert.Equal(t, model.KeptDocument, c.Resolution)
		assert.Equal(t, 1, res.Counts[model.EntityProject].Conflicts)
		assert.Equal(t, "document text", h.projects.recs[0].Description)
	})

	t.Run("prefer store", func(t *testing.T) {
		h := setup(now.Add(-time.Minute))
		res, err := h.engine.Reconcile(context.Background(), model.SectionProjects,
			Options{Direction: model.DocumentToStore, ConflictResolution: model.PreferStore})
		require.NoError(t, err)

		assert.Empty(t, res.Updated)
		assert.Empty(t, res.Errors)
		require.Len(t, res.Conflicts, 1)
		assert.Equal(t, model.KeptStore, res.Conflicts[0].Resolution)
		assert.Equal(t, "store text", h.projects.recs[0].Description)
		assert.Zero(t, h.projects.updates)
	})

	t.Run("manual", func(t *testing.T) {
		h := setup(now.Add(-time.Minute))
		res, err := h.engine.Reconcile(context.Background(), model.SectionProjects,
			Options{Direction: model.DocumentToStore, ConflictResolution: model.ResolveManually})
		require.NoError(t, err)

		assert.True(t, res.Success)
		assert.Empty(t, res.Updated)
		require.Len(t, res.Errors, 1)
		assert.Equal(t, `project "Alpha" (line 1): conflict on description, status; manual resolution required`, res.Errors[0])
		assert.Equal(t, res.Errors[0], h.states.states[model.SectionProjects].LastError)
	})

	t.Run("store unchanged since last sync", func(t *testing.T) {
		h := setup(now.Add(-2 * time.Hour))
		res, err := h.engine.Reconcile(context.Background(), model.SectionProjects,
			Options{Direction: model.DocumentToStore, ConflictResolution: model.PreferStore})
		require.NoError(t, err)

		assert.Empty(t, res.Conflicts)
		assert.Equal(t, []string{"a"}, res.Updated)
	})

	t.Run("unknown strategy", func(t *testing.T) {
		h := setup(now)
		_, err := h.engine.Reconcile(context.Background(), model.SectionProjects, Options{ConflictResolution: "prefer_d1"})
		assert.ErrorIs(t, err, model.ErrValidation)
	})
}

func TestReconcile_SuppliedContent(t *testing.T) {
	h := newHarness()
	content := "### Redesign onboarding\n**Priority:** high\n"

	res, err := h.engine.Reconcile(context.Background(), model.SectionProjects,
		Options{Direction: model.DocumentToStore, Content: &content})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, []string{"proj_1"}, res.Created)
	assert.Equal(t, model.PriorityHigh, h.projects.recs[0].Priority)
	assert.Zero(t, h.docs.writes)
	assert.Equal(t, ETag(content), h.states.states[model.SectionProjects].ETag)

	res, err = h.engine.Reconcile(context.Background(), model.SectionProjects, Options{Content: &content})
	require.NoError(t, err)
	assert.Empty(t, res.Created)
	assert.Contains(t, h.docs.docs[model.SectionProjects], "### Redesign onboarding\n**ID:** proj_1\n")
}

func TestReconcile_BidirectionalKeepsEntitiesTheStoreRejected(t *testing.T) {
	long := strings.Repeat("x", 201)
	h := newHarness(model.Project{ID: "a", Title: "Alpha", Description: "kept",
		Status: model.StatusInProgress, Priority: model.PriorityHigh, UpdatedAt: now.Add(-time.Hour)})
	h.docs.docs[model.SectionProjects] = "## Active Projects\n\n" +
		"### " + long + "\n**ID:** a\n\nrenamed too far\n\n" +
		"### " + long + "y\n\nnever stored\n"

	res, err := h.engine.Reconcile(context.Background(), model.SectionProjects, Options{})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Empty(t, res.Created)
	require.Len(t, res.Errors, 2)
	assert.Equal(t, "Alpha", h.projects.recs[0].Title)

	text := h.docs.docs[model.SectionProjects]
	assert.Contains(t, text, "### "+long+"\n**ID:** a\n\nrenamed too far\n")
	assert.Contains(t, text, "### "+long+"y\n\nnever stored\n")
	assert.NotContains(t, text, "### Alpha\n")
	assert.Equal(t, 1, strings.Count(text, "## Active Projects"))
}
