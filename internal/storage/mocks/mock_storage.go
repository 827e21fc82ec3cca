package mocks

import (
	"context"
	"io"
	"time"

	"nexus/internal/model"
	"nexus/internal/storage"

	"github.com/stretchr/testify/mock"
)

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Put(ctx context.Context, key string, r io.Reader, opt storage.PutObjectOptions) (storage.ObjectInfo, error) {
	args := m.Called(ctx, key, r, opt)
	if f, ok := args.Get(0).(func(context.Context, string, io.Reader, storage.PutObjectOptions) storage.ObjectInfo); ok {
		return f(ctx, key, r, opt), args.Error(1)
	}
	return args.Get(0).(storage.ObjectInfo), args.Error(1)
}

func (m *MockStorage) Get(ctx context.Context, key string) (io.ReadCloser, storage.ObjectInfo, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Get(1).(storage.ObjectInfo), args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.Get(1).(storage.ObjectInfo), args.Error(2)
}

func (m *MockStorage) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, key, expiry)
	return args.String(0), args.Error(1)
}

type MockDocumentStore struct {
	mock.Mock
}

func (m *MockDocumentStore) Read(ctx context.Context, section model.Section) (string, error) {
	args := m.Called(ctx, section)
	return args.String(0), args.Error(1)
}

func (m *MockDocumentStore) Write(ctx context.Context, section model.Section, text string) error {
	args := m.Called(ctx, section, text)
	return args.Error(0)
}

func (m *MockDocumentStore) DownloadURL(ctx context.Context, section model.Section, expiry time.Duration) (string, error) {
	args := m.Called(ctx, section, expiry)
	return args.String(0), args.Error(1)
}
