package staleness

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexus/internal/model"
	"nexus/internal/repository/mocks"
)

func TestTracker_CheckAll(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.MockSyncStateRepository)
	tr := NewTracker(repo, func() time.Time { return base })

	recent := base.Add(-2 * time.Minute)
	repo.On("List", ctx).Return([]model.SyncState{
		{Section: model.SectionProjects, LastSync: &recent, StaleAfterMinutes: 10},
	}, nil)

	checks, err := tr.CheckAll(ctx)
	require.NoError(t, err)
	require.Len(t, checks, len(model.Sections))
	assert.Equal(t, model.SectionProjects, checks[0].Section)
	assert.False(t, checks[0].IsStale)
	for _, c := range checks[1:] {
		assert.True(t, c.IsStale, c.Section)
		assert.Nil(t, c.LastSync)
	}
	repo.AssertExpectations(t)
}

func TestTracker_MarkSynced(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.MockSyncStateRepository)
	tr := NewTracker(repo, func() time.Time { return base })

	repo.On("MarkSynced", ctx, model.SectionProjects, base, "etag", "").Return(nil)
	at, err := tr.MarkSynced(ctx, model.SectionProjects, "etag", "")
	require.NoError(t, err)
	assert.Equal(t, base, at)

	repo.On("MarkSynced", ctx, model.SectionServices, base, "", "").Return(errors.New("db down"))
	_, err = tr.MarkSynced(ctx, model.SectionServices, "", "")
	var se *model.StoreError
	assert.True(t, errors.As(err, &se))
	repo.AssertExpectations(t)
}

func TestTracker_CheckStoreError(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.MockSyncStateRepository)
	tr := NewTracker(repo, nil)

	repo.On("Get", ctx, model.SectionProjects).Return(nil, errors.New("boom"))
	_, err := tr.Check(ctx, model.SectionProjects)
	assert.Error(t, err)
}
