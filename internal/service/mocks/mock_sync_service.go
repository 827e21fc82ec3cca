package mocks

import (
	"context"

	"nexus/internal/health"
	"nexus/internal/model"
	"nexus/internal/reconcile"
	"nexus/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockSyncService struct {
	mock.Mock
}

func (m *MockSyncService) Summary(ctx context.Context) (*service.SyncSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SyncSummary), args.Error(1)
}

func (m *MockSyncService) ReconcileAll(ctx context.Context, opts reconcile.Options) (*model.AllResult, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AllResult), args.Error(1)
}

func (m *MockSyncService) Reconcile(ctx context.Context, section string, opts reconcile.Options) (*model.SyncResult, error) {
	args := m.Called(ctx, section, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SyncResult), args.Error(1)
}

func (m *MockSyncService) Content(ctx context.Context, section string) (*service.SectionContent, error) {
	args := m.Called(ctx, section)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SectionContent), args.Error(1)
}

func (m *MockSyncService) Health(ctx context.Context) (*health.Report, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*health.Report), args.Error(1)
}

func (m *MockSyncService) SectionHealth(ctx context.Context, section string) (*health.SectionHealth, error) {
	args := m.Called(ctx, section)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*health.SectionHealth), args.Error(1)
}

func (m *MockSyncService) Manual(ctx context.Context, query string) (*service.ManualResult, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ManualResult), args.Error(1)
}
