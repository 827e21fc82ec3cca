package repository

import (
	"context"
	"time"

	"nexus/internal/model"
)

// SyncStateRepository persists per-section sync metadata.
type SyncStateRepository interface {
	// Get returns the state of a section, or (nil, nil) when the section has no row.
	Get(ctx context.Context, section model.Section) (*model.SyncState, error)

	// List returns every stored section state.
	List(ctx context.Context) ([]model.SyncState, error)

	// MarkSynced records a completed attempt: last_sync, etag and last_error are
	// overwritten and retry_count is reset when lastError is empty or incremented otherwise.
	MarkSynced(ctx context.Context, section model.Section, at time.Time, etag, lastError string) error

	// MarkFailed records a fatal error without touching last_sync.
	MarkFailed(ctx context.Context, section model.Section, lastError string) error

	// EnsureThreshold creates the section row or updates its threshold. Sync
	// bookkeeping columns of an existing row are left alone.
	EnsureThreshold(ctx context.Context, section model.Section, staleAfterMinutes int) error
}
