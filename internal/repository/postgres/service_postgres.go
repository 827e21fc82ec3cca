package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"nexus/internal/model"
	"nexus/internal/repository"
)

// ServicePostgres is a PostgreSQL implementation of repository.ServiceRepository.
type ServicePostgres struct {
	db *sql.DB
}

// NewServicePostgres creates a new ServicePostgres repository.
func NewServicePostgres(db *sql.DB) *ServicePostgres {
	return &ServicePostgres{db: db}
}

var _ repository.ServiceRepository = (*ServicePostgres)(nil)

const serviceColumns = `id, name, display_name, status, check_interval_minutes, notes, last_check, metadata, created_at, updated_at`

func (r *ServicePostgres) List(ctx context.Context) ([]model.Service, error) {
	q := `SELECT ` + serviceColumns + ` FROM services ORDER BY display_name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Service, 0)
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *ServicePostgres) FindByID(ctx context.Context, id string) (*model.Service, error) {
	q := `SELECT ` + serviceColumns + ` FROM services WHERE id = $1`
	s, err := scanService(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("service %s: %w", id, model.ErrNotFound)
	}
	return s, err
}

func (r *ServicePostgres) Create(ctx context.Context, s *model.Service) (*model.Service, error) {
	meta, err := encodeMetadata(s.Metadata)
	if err != nil {
		return nil, err
	}
	q := `
		INSERT INTO services (id, name, display_name, status, check_interval_minutes, notes, last_check, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + serviceColumns
	return scanService(r.db.QueryRowContext(ctx, q,
		s.ID,
		s.Name,
		s.DisplayName,
		s.Status,
		s.CheckIntervalMinutes,
		s.Notes,
		s.LastCheck,
		meta,
		s.CreatedAt,
		s.UpdatedAt,
	))
}

// Update leaves last_check alone; it is owned by the service checker, not the document.
func (r *ServicePostgres) Update(ctx context.Context, s *model.Service) (*model.Service, error) {
	meta, err := encodeMetadata(s.Metadata)
	if err != nil {
		return nil, err
	}
	q := `
		UPDATE services
		SET name = $2, display_name = $3, status = $4, check_interval_minutes = $5, notes = $6, metadata = $7, updated_at = $8
		WHERE id = $1
		RETURNING ` + serviceColumns
	out, err := scanService(r.db.QueryRowContext(ctx, q,
		s.ID,
		s.Name,
		s.DisplayName,
		s.Status,
		s.CheckIntervalMinutes,
		s.Notes,
		meta,
		s.UpdatedAt,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("service %s: %w", s.ID, model.ErrNotFound)
	}
	return out, err
}

func scanService(sc scanner) (*model.Service, error) {
	var (
		s         model.Service
		lastCheck sql.NullTime
		meta      []byte
	)
	if err := sc.Scan(
		&s.ID,
		&s.Name,
		&s.DisplayName,
		&s.Status,
		&s.CheckIntervalMinutes,
		&s.Notes,
		&lastCheck,
		&meta,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if lastCheck.Valid {
		t := lastCheck.Time
		s.LastCheck = &t
	}
	m, err := decodeMetadata(meta)
	if err != nil {
		return nil, fmt.Errorf("service %s: %w", s.ID, err)
	}
	s.Metadata = m
	return &s, nil
}
