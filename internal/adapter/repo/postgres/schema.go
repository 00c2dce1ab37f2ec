package postgres

import (
	"context"
	"fmt"
)

// The two analysis tables are identical in shape and intentionally separate:
// records in one never dedupe against the other. Deduplication is enforced in
// application code, not by unique constraints, so both idempotency rules stay
// visible in one place.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS batch_analyses (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		mobile TEXT NOT NULL,
		strengths TEXT NOT NULL DEFAULT '',
		gaps TEXT NOT NULL DEFAULT '',
		recommendation TEXT NOT NULL DEFAULT '',
		score DOUBLE PRECISION NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		resume_path TEXT NOT NULL,
		job_title TEXT NOT NULL,
		date_added DATE NOT NULL DEFAULT CURRENT_DATE
	)`,
	`CREATE TABLE IF NOT EXISTS quick_analyses (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		mobile TEXT NOT NULL,
		strengths TEXT NOT NULL DEFAULT '',
		gaps TEXT NOT NULL DEFAULT '',
		recommendation TEXT NOT NULL DEFAULT '',
		score DOUBLE PRECISION NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		resume_path TEXT NOT NULL,
		job_title TEXT NOT NULL,
		date_added DATE NOT NULL DEFAULT CURRENT_DATE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_batch_analyses_path_title ON batch_analyses (resume_path, job_title)`,
	`CREATE INDEX IF NOT EXISTS idx_quick_analyses_path_title ON quick_analyses (resume_path, job_title)`,
	`CREATE TABLE IF NOT EXISTS admin_users (
		username TEXT PRIMARY KEY,
		password_hash TEXT NOT NULL
	)`,
}

// EnsureSchema creates the tables and indexes if they do not exist.
func EnsureSchema(ctx context.Context, pool PgxPool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("op=postgres.EnsureSchema: %w", err)
		}
	}
	return nil
}
