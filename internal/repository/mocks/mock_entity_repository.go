package mocks

import (
	"context"

	"nexus/internal/model"

	"github.com/stretchr/testify/mock"
)

// MockEntityRepository mocks repository.EntityRepository for any record type.
type MockEntityRepository[T any] struct {
	mock.Mock
}

func (m *MockEntityRepository[T]) List(ctx context.Context) ([]T, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]T), args.Error(1)
}

func (m *MockEntityRepository[T]) FindByID(ctx context.Context, id string) (*T, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*T), args.Error(1)
}

func (m *MockEntityRepository[T]) Create(ctx context.Context, rec *T) (*T, error) {
	args := m.Called(ctx, rec)
	if f, ok := args.Get(0).(func(context.Context, *T) *T); ok {
		return f(ctx, rec), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*T), args.Error(1)
}

func (m *MockEntityRepository[T]) Update(ctx context.Context, rec *T) (*T, error) {
	args := m.Called(ctx, rec)
	if f, ok := args.Get(0).(func(context.Context, *T) *T); ok {
		return f(ctx, rec), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*T), args.Error(1)
}

type (
	MockProjectRepository = MockEntityRepository[model.Project]
	MockServiceRepository = MockEntityRepository[model.Service]
	MockUsageRepository   = MockEntityRepository[model.UsageMetric]
)

type MockSectionLocker struct {
	mock.Mock
}

func (m *MockSectionLocker) TryLock(ctx context.Context, section model.Section) (func(), error) {
	args := m.Called(ctx, section)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(func()), args.Error(1)
}
