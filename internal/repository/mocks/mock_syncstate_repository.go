package mocks

import (
	"context"
	"time"

	"nexus/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockSyncStateRepository struct {
	mock.Mock
}

func (m *MockSyncStateRepository) Get(ctx context.Context, section model.Section) (*model.SyncState, error) {
	args := m.Called(ctx, section)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SyncState), args.Error(1)
}

func (m *MockSyncStateRepository) List(ctx context.Context) ([]model.SyncState, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.SyncState), args.Error(1)
}

func (m *MockSyncStateRepository) MarkSynced(ctx context.Context, section model.Section, at time.Time, etag, lastError string) error {
	args := m.Called(ctx, section, at, etag, lastError)
	return args.Error(0)
}

func (m *MockSyncStateRepository) MarkFailed(ctx context.Context, section model.Section, lastError string) error {
	args := m.Called(ctx, section, lastError)
	return args.Error(0)
}

func (m *MockSyncStateRepository) EnsureThreshold(ctx context.Context, section model.Section, staleAfterMinutes int) error {
	args := m.Called(ctx, section, staleAfterMinutes)
	return args.Error(0)
}
