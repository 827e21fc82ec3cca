package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"nexus/internal/model"
	"nexus/internal/repository"
)

// AdvisoryLocker takes a session-level Postgres advisory lock per section.
// Each lock pins one pooled connection until it is released.
type AdvisoryLocker struct {
	db *sql.DB
}

// NewAdvisoryLocker creates a new AdvisoryLocker.
func NewAdvisoryLocker(db *sql.DB) *AdvisoryLocker {
	return &AdvisoryLocker{db: db}
}

var _ repository.SectionLocker = (*AdvisoryLocker)(nil)

// TryLock returns model.ErrConflict when another session holds the section.
func (l *AdvisoryLocker) TryLock(ctx context.Context, section model.Section) (func(), error) {
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire lock connection: %w", err)
	}

	var ok bool
	if err := conn.QueryRowContext(ctx, `SELECT pg_try_advisory_lock(hashtext($1))`, section).Scan(&ok); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("try advisory lock: %w", err)
	}
	if !ok {
		_ = conn.Close()
		return nil, fmt.Errorf("section %s is being synced: %w", section, model.ErrConflict)
	}

	return func() {
		// The request context may already be cancelled by now.
		_, _ = conn.ExecContext(context.Background(), `SELECT pg_advisory_unlock(hashtext($1))`, section)
		_ = conn.Close()
	}, nil
}
