package repository

import (
	"context"

	"nexus/internal/model"
)

// EntityRepository is the per-type store contract consumed by the sync engine.
// Update fails with model.ErrNotFound when the id does not exist. Every call is
// atomic on its own; callers get no multi-call transaction.
type EntityRepository[T any] interface {
	// List returns every record of the type.
	List(ctx context.Context) ([]T, error)

	// FindByID returns model.ErrNotFound when the record does not exist.
	FindByID(ctx context.Context, id string) (*T, error)

	// Create inserts the record and returns it as stored.
	Create(ctx context.Context, rec *T) (*T, error)

	// Update overwrites the mutable fields of an existing record.
	Update(ctx context.Context, rec *T) (*T, error)
}

type (
	ProjectRepository = EntityRepository[model.Project]
	ServiceRepository = EntityRepository[model.Service]
	UsageRepository   = EntityRepository[model.UsageMetric]
)

// SectionLocker serializes reconciliations of the same section across processes.
type SectionLocker interface {
	// TryLock returns model.ErrConflict when the section is already locked.
	// The returned function releases the lock.
	TryLock(ctx context.Context, section model.Section) (func(), error)
}
