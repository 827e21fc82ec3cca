package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"nexus/internal/model"
	"nexus/internal/repository"
)

// ProjectPostgres is a PostgreSQL implementation of repository.ProjectRepository.
type ProjectPostgres struct {
	db *sql.DB
}

// NewProjectPostgres creates a new ProjectPostgres repository.
func NewProjectPostgres(db *sql.DB) *ProjectPostgres {
	return &ProjectPostgres{db: db}
}

var _ repository.ProjectRepository = (*ProjectPostgres)(nil)

const projectColumns = `id, title, description, status, priority, sort_order, metadata, created_at, updated_at`

// List returns every project ordered by column position.
func (r *ProjectPostgres) List(ctx context.Context) ([]model.Project, error) {
	q := `SELECT ` + projectColumns + ` FROM projects ORDER BY sort_order, title`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// FindByID fetches a single project.
func (r *ProjectPostgres) FindByID(ctx context.Context, id string) (*model.Project, error) {
	q := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`
	p, err := scanProject(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project %s: %w", id, model.ErrNotFound)
	}
	return p, err
}

// Create inserts a project and returns the stored row.
func (r *ProjectPostgres) Create(ctx context.Context, p *model.Project) (*model.Project, error) {
	meta, err := encodeMetadata(p.Metadata)
	if err != nil {
		return nil, err
	}
	q := `
		INSERT INTO projects (id, title, description, status, priority, sort_order, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + projectColumns
	return scanProject(r.db.QueryRowContext(ctx, q,
		p.ID,
		p.Title,
		p.Description,
		p.Status,
		p.Priority,
		p.SortOrder,
		meta,
		p.CreatedAt,
		p.UpdatedAt,
	))
}

// Update overwrites the mutable columns of an existing project.
func (r *ProjectPostgres) Update(ctx context.Context, p *model.Project) (*model.Project, error) {
	meta, err := encodeMetadata(p.Metadata)
	if err != nil {
		return nil, err
	}
	q := `
		UPDATE projects
		SET title = $2, description = $3, status = $4, priority = $5, sort_order = $6, metadata = $7, updated_at = $8
		WHERE id = $1
		RETURNING ` + projectColumns
	out, err := scanProject(r.db.QueryRowContext(ctx, q,
		p.ID,
		p.Title,
		p.Description,
		p.Status,
		p.Priority,
		p.SortOrder,
		meta,
		p.UpdatedAt,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project %s: %w", p.ID, model.ErrNotFound)
	}
	return out, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(s scanner) (*model.Project, error) {
	var (
		p    model.Project
		meta []byte
	)
	if err := s.Scan(
		&p.ID,
		&p.Title,
		&p.Description,
		&p.Status,
		&p.Priority,
		&p.SortOrder,
		&meta,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	m, err := decodeMetadata(meta)
	if err != nil {
		return nil, fmt.Errorf("project %s: %w", p.ID, err)
	}
	p.Metadata = m
	return &p, nil
}

// decodeMetadata reads a JSONB metadata column. An empty object is nil.
func decodeMetadata(b []byte) (map[string]string, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var m map[string]string
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	if len(m) == 0 {
		return nil, nil
	}
	return m, nil
}

func encodeMetadata(m map[string]string) ([]byte, error) {
	if m == nil {
		m = map[string]string{}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	return b, nil
}
