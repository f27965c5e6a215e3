package migration

import (
	"context"

	"github.com/jmoiron/sqlx"

	"vardrill/internal/errors"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner creates the session store schema. Statements are written
// once per dialect; both postgres and sqlite3 accept IF NOT EXISTS.
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{version: "1.0.0"}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in order.
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createDrillSessionsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create drill_sessions table")
	}
	if err := r.createSchemaVersionTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create schema_version table")
	}
	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}
	if err := r.recordVersion(ctx, db); err != nil {
		return errors.Wrap(err, "failed to record schema version")
	}
	return nil
}

func (r *MigrationRunner) createDrillSessionsTable(ctx context.Context, db *sqlx.DB) error {
	timestamp := "TIMESTAMP"
	if db.DriverName() == "postgres" {
		timestamp = "TIMESTAMP WITH TIME ZONE"
	}
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS drill_sessions (
			session_id VARCHAR(64) PRIMARY KEY,
			dataset_version VARCHAR(64) NOT NULL DEFAULT '',
			outcome VARCHAR(255) NOT NULL DEFAULT '',
			stack TEXT NOT NULL,
			version INTEGER NOT NULL DEFAULT 1,
			created_at `+timestamp+` NOT NULL,
			updated_at `+timestamp+` NOT NULL
		)
	`)
	return err
}

func (r *MigrationRunner) createSchemaVersionTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_version (
			version VARCHAR(32) PRIMARY KEY
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_drill_sessions_updated_at ON drill_sessions (updated_at)
	`)
	return err
}

func (r *MigrationRunner) recordVersion(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, db.Rebind(`
		INSERT INTO schema_version (version) VALUES (?)
		ON CONFLICT (version) DO NOTHING
	`), r.version)
	return err
}
