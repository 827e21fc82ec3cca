package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"nexus/internal/model"
	"nexus/internal/repository"
)

// SyncStatePostgres stores per-section sync metadata in the sync_state table.
type SyncStatePostgres struct {
	db *sql.DB
}

// NewSyncStatePostgres creates a new SyncStatePostgres repository.
func NewSyncStatePostgres(db *sql.DB) *SyncStatePostgres {
	return &SyncStatePostgres{db: db}
}

var _ repository.SyncStateRepository = (*SyncStatePostgres)(nil)

const syncStateColumns = `section, last_sync, stale_after_minutes, etag, last_error, retry_count, updated_at`

func (r *SyncStatePostgres) Get(ctx context.Context, section model.Section) (*model.SyncState, error) {
	q := `SELECT ` + syncStateColumns + ` FROM sync_state WHERE section = $1`
	st, err := scanSyncState(r.db.QueryRowContext(ctx, q, section))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return st, err
}

func (r *SyncStatePostgres) List(ctx context.Context) ([]model.SyncState, error) {
	q := `SELECT ` + syncStateColumns + ` FROM sync_state ORDER BY section`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.SyncState, 0)
	for rows.Next() {
		st, err := scanSyncState(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *SyncStatePostgres) MarkSynced(ctx context.Context, section model.Section, at time.Time, etag, lastError string) error {
	const q = `
		INSERT INTO sync_state (section, last_sync, etag, last_error, retry_count, updated_at)
		VALUES ($1, $2, $3, $4, CASE WHEN $4 = '' THEN 0 ELSE 1 END, $2)
		ON CONFLICT (section) DO UPDATE
		SET last_sync = EXCLUDED.last_sync,
		    etag = EXCLUDED.etag,
		    last_error = EXCLUDED.last_error,
		    retry_count = CASE WHEN EXCLUDED.last_error = '' THEN 0 ELSE sync_state.retry_count + 1 END,
		    updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.ExecContext(ctx, q, section, at, etag, lastError)
	return err
}

func (r *SyncStatePostgres) MarkFailed(ctx context.Context, section model.Section, lastError string) error {
	const q = `
		INSERT INTO sync_state (section, last_error, retry_count)
		VALUES ($1, $2, 1)
		ON CONFLICT (section) DO UPDATE
		SET last_error = EXCLUDED.last_error,
		    retry_count = sync_state.retry_count + 1,
		    updated_at = now()
	`
	_, err := r.db.ExecContext(ctx, q, section, lastError)
	return err
}

func (r *SyncStatePostgres) EnsureThreshold(ctx context.Context, section model.Section, staleAfterMinutes int) error {
	const q = `
		INSERT INTO sync_state (section, stale_after_minutes)
		VALUES ($1, $2)
		ON CONFLICT (section) DO UPDATE
		SET stale_after_minutes = EXCLUDED.stale_after_minutes,
		    updated_at = now()
		WHERE sync_state.stale_after_minutes <> EXCLUDED.stale_after_minutes
	`
	_, err := r.db.ExecContext(ctx, q, section, staleAfterMinutes)
	return err
}

func scanSyncState(sc scanner) (*model.SyncState, error) {
	var (
		st       model.SyncState
		lastSync sql.NullTime
	)
	if err := sc.Scan(
		&st.Section,
		&lastSync,
		&st.StaleAfterMinutes,
		&st.ETag,
		&st.LastError,
		&st.RetryCount,
		&st.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if lastSync.Valid {
		t := lastSync.Time
		st.LastSync = &t
	}
	return &st, nil
}
