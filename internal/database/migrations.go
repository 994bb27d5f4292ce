package database

import (
	"context"
	"fmt"
	"strings"
)

// migration defines a single idempotent schema migration.
type migration struct {
	name  string
	sql   string
	check string // query that returns true if the migration is already applied
}

// migrations is the ordered list of schema migrations to apply.
// Each must be idempotent (use IF NOT EXISTS, IF EXISTS, etc.).
var migrations = []migration{
	{
		name: "create chapter_runs",
		sql: `CREATE TABLE IF NOT EXISTS chapter_runs (
    id               bigserial PRIMARY KEY,
    video_title      text NOT NULL DEFAULT '',
    source_path      text NOT NULL DEFAULT '',
    mode             text NOT NULL,
    requested        int NOT NULL,
    source           text NOT NULL,
    fallback_reason  text,
    duration_ms      bigint NOT NULL,
    segments         int NOT NULL,
    elapsed_ms       bigint NOT NULL,
    chapters         jsonb NOT NULL,
    text_key         text,
    created_at       timestamptz NOT NULL DEFAULT now()
)`,
		check: `SELECT EXISTS (SELECT FROM pg_tables WHERE schemaname = 'public' AND tablename = 'chapter_runs')`,
	},
	{
		name:  "add chapter_runs created_at index",
		sql:   `CREATE INDEX IF NOT EXISTS idx_chapter_runs_created ON chapter_runs (created_at DESC)`,
		check: `SELECT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_chapter_runs_created')`,
	},
	{
		name:  "add chapter_runs.tags",
		sql:   `ALTER TABLE chapter_runs ADD COLUMN IF NOT EXISTS tags text`,
		check: `SELECT EXISTS (SELECT 1 FROM information_schema.columns WHERE table_name = 'chapter_runs' AND column_name = 'tags')`,
	},
}

// Migrate runs all pending schema migrations.
// For each migration, it first checks whether the change is already present.
// If not, it attempts to apply it. A failed apply is returned as a
// *MigrationError carrying the SQL still to run.
func (db *DB) Migrate(ctx context.Context) error {
	var pending []migration
	for _, m := range migrations {
		if m.check != "" {
			var exists bool
			if err := db.Pool.QueryRow(ctx, m.check).Scan(&exists); err == nil && exists {
				continue
			}
		}
		pending = append(pending, m)
	}

	if len(pending) == 0 {
		return nil
	}

	applied := 0
	for _, m := range pending {
		if _, err := db.Pool.Exec(ctx, m.sql); err != nil {
			return &MigrationError{
				failed:  m,
				pending: pending[applied:],
				err:     err,
			}
		}
		db.log.Info().Str("migration", m.name).Msg("schema migration applied")
		applied++
	}
	db.log.Info().Int("applied", applied).Msg("schema migrations complete")
	return nil
}

// MigrationError is returned when a migration fails.
// It includes the SQL needed to apply all remaining migrations manually.
type MigrationError struct {
	failed  migration
	pending []migration
	err     error
}

func (e *MigrationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "migration %q failed: %v\n\n", e.failed.name, e.err)
	b.WriteString("Run the following SQL as a database superuser to fix this:\n\n")
	for _, m := range e.pending {
		fmt.Fprintf(&b, "  %s;\n", m.sql)
	}
	b.WriteString("\nThen rerun chaptr.")
	return b.String()
}

func (e *MigrationError) Unwrap() error {
	return e.err
}
