package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"nexus/internal/model"
	"nexus/internal/repository"
)

// UsagePostgres is a PostgreSQL implementation of repository.UsageRepository.
type UsagePostgres struct {
	db *sql.DB
}

// NewUsagePostgres creates a new UsagePostgres repository.
func NewUsagePostgres(db *sql.DB) *UsagePostgres {
	return &UsagePostgres{db: db}
}

var _ repository.UsageRepository = (*UsagePostgres)(nil)

const usageColumns = `id, category, display_name, current_value, limit_value, period, unit, notes, warning_percent, danger_percent, metadata, created_at, updated_at`

func (r *UsagePostgres) List(ctx context.Context) ([]model.UsageMetric, error) {
	q := `SELECT ` + usageColumns + ` FROM usage_metrics ORDER BY category, display_name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.UsageMetric, 0)
	for rows.Next() {
		u, err := scanUsage(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *UsagePostgres) FindByID(ctx context.Context, id string) (*model.UsageMetric, error) {
	q := `SELECT ` + usageColumns + ` FROM usage_metrics WHERE id = $1`
	u, err := scanUsage(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("usage metric %s: %w", id, model.ErrNotFound)
	}
	return u, err
}

func (r *UsagePostgres) Create(ctx context.Context, u *model.UsageMetric) (*model.UsageMetric, error) {
	meta, err := encodeMetadata(u.Metadata)
	if err != nil {
		return nil, err
	}
	q := `
		INSERT INTO usage_metrics (id, category, display_name, current_value, limit_value, period, unit, notes, warning_percent, danger_percent, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + usageColumns
	return scanUsage(r.db.QueryRowContext(ctx, q,
		u.ID,
		u.Category,
		u.DisplayName,
		u.CurrentValue,
		u.LimitValue,
		u.Period,
		u.Unit,
		u.Notes,
		u.WarningPercent,
		u.DangerPercent,
		meta,
		u.CreatedAt,
		u.UpdatedAt,
	))
}

func (r *UsagePostgres) Update(ctx context.Context, u *model.UsageMetric) (*model.UsageMetric, error) {
	meta, err := encodeMetadata(u.Metadata)
	if err != nil {
		return nil, err
	}
	q := `
		UPDATE usage_metrics
		SET category = $2, display_name = $3, current_value = $4, limit_value = $5, period = $6,
		    unit = $7, notes = $8, warning_percent = $9, danger_percent = $10, metadata = $11, updated_at = $12
		WHERE id = $1
		RETURNING ` + usageColumns
	out, err := scanUsage(r.db.QueryRowContext(ctx, q,
		u.ID,
		u.Category,
		u.DisplayName,
		u.CurrentValue,
		u.LimitValue,
		u.Period,
		u.Unit,
		u.Notes,
		u.WarningPercent,
		u.DangerPercent,
		meta,
		u.UpdatedAt,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("usage metric %s: %w", u.ID, model.ErrNotFound)
	}
	return out, err
}

func scanUsage(sc scanner) (*model.UsageMetric, error) {
	var (
		u    model.UsageMetric
		meta []byte
	)
	if err := sc.Scan(
		&u.ID,
		&u.Category,
		&u.DisplayName,
		&u.CurrentValue,
		&u.LimitValue,
		&u.Period,
		&u.Unit,
		&u.Notes,
		&u.WarningPercent,
		&u.DangerPercent,
		&meta,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	m, err := decodeMetadata(meta)
	if err != nil {
		return nil, fmt.Errorf("usage metric %s: %w", u.ID, err)
	}
	u.Metadata = m
	return &u, nil
}
