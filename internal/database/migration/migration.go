package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"nexus/internal/logging"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_table_projects",
		SQL: `CREATE TABLE IF NOT EXISTS projects (
  id          TEXT        PRIMARY KEY,
  title       TEXT        NOT NULL CHECK (char_length(title) BETWEEN 1 AND 200),
  description TEXT        NOT NULL DEFAULT '',
  status      TEXT        NOT NULL DEFAULT 'backlog'
                          CHECK (status IN ('backlog', 'in_progress', 'done', 'archived')),
  priority    TEXT        NOT NULL DEFAULT 'medium'
                          CHECK (priority IN ('high', 'medium', 'low')),
  sort_order  INTEGER     NOT NULL DEFAULT 0,
  metadata    JSONB       NOT NULL DEFAULT '{}'::jsonb,
  created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_projects_status",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_projects_status ON projects (status, sort_order);`,
	},
	{
		Name: "create_table_services",
		SQL: `CREATE TABLE IF NOT EXISTS services (
  id                     TEXT        PRIMARY KEY,
  name                   TEXT        NOT NULL,
  display_name           TEXT        NOT NULL,
  status                 TEXT        NOT NULL DEFAULT 'offline'
                                     CHECK (status IN ('online', 'attention', 'offline')),
  check_interval_minutes INTEGER     NOT NULL DEFAULT 60 CHECK (check_interval_minutes > 0),
  notes                  TEXT        NOT NULL DEFAULT '',
  last_check             TIMESTAMPTZ,
  metadata               JSONB       NOT NULL DEFAULT '{}'::jsonb,
  created_at             TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at             TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_usage_metrics",
		SQL: `CREATE TABLE IF NOT EXISTS usage_metrics (
  id              TEXT        PRIMARY KEY,
  category        TEXT        NOT NULL,
  display_name    TEXT        NOT NULL,
  current_value   BIGINT      NOT NULL DEFAULT 0,
  limit_value     BIGINT      NOT NULL DEFAULT 0,
  period          TEXT        NOT NULL DEFAULT '',
  unit            TEXT        NOT NULL DEFAULT '',
  notes           TEXT        NOT NULL DEFAULT '',
  warning_percent INTEGER     NOT NULL DEFAULT 70,
  danger_percent  INTEGER     NOT NULL DEFAULT 90,
  metadata        JSONB       NOT NULL DEFAULT '{}'::jsonb,
  created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_usage_metrics_category",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_usage_metrics_category ON usage_metrics (category);`,
	},
	{
		Name: "create_table_sync_state",
		SQL: `CREATE TABLE IF NOT EXISTS sync_state (
  section             TEXT        PRIMARY KEY,
  last_sync           TIMESTAMPTZ,
  stale_after_minutes INTEGER     NOT NULL DEFAULT 10 CHECK (stale_after_minutes > 0),
  etag                TEXT        NOT NULL DEFAULT '',
  last_error          TEXT        NOT NULL DEFAULT '',
  retry_count         INTEGER     NOT NULL DEFAULT 0,
  updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
}

// EnsureMigrated runs every step when the sync_state table is missing.
// sync_state is created last, so a partially applied schema is retried as a whole.
func EnsureMigrated(ctx context.Context, db *sql.DB, log *logging.Logger, dbHost string) error {
	start := time.Now()

	log.Log(map[string]any{
		"component": "database",
		"event":     "db_migration_check",
		"status":    "starting",
		"db_host":   dbHost,
	})

	var exists bool
	query := "SELECT to_regclass('public.sync_state') IS NOT NULL"
	if err := db.QueryRowContext(ctx, query).Scan(&exists); err != nil {
		log.Log(map[string]any{
			"component":     "database",
			"event":         "db_migration_failed",
			"status":        "error",
			"error_message": fmt.Sprintf("failed to check sentinel table: %v", err),
			"db_host":       dbHost,
			"duration_ms":   time.Since(start).Milliseconds(),
		})
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		log.Log(map[string]any{
			"component":   "database",
			"event":       "db_migration_skip",
			"status":      "success",
			"msg":         "schema already exists, skipping migration",
			"db_host":     dbHost,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return nil
	}

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.Log(map[string]any{
				"component":        "database",
				"event":            "db_migration_failed",
				"status":           "error",
				"migration_step":   step.Name,
				"error_message":    err.Error(),
				"db_host":          dbHost,
				"duration_ms":      time.Since(start).Milliseconds(),
				"step_duration_ms": time.Since(stepStart).Milliseconds(),
			})
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		log.Log(map[string]any{
			"component":        "database",
			"event":            "db_migration_step",
			"status":           "success",
			"migration_step":   step.Name,
			"db_host":          dbHost,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		})
	}

	log.Log(map[string]any{
		"component":   "database",
		"event":       "db_migration_success",
		"status":      "success",
		"steps":       len(steps),
		"db_host":     dbHost,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return nil
}
