// Package sqlstore persists drill sessions so a path survives restarts and
// can be shared by id.
package sqlstore

import (
	"context"
	"database/sql"
	stderrors "errors"
	"log"
	"time"

	"github.com/goccy/go-json"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"vardrill/domain/core"
	"vardrill/domain/drill"
	"vardrill/internal/errors"
	"vardrill/internal/migration"
	"vardrill/ports"
)

type sessionRow struct {
	SessionID      string    `db:"session_id"`
	DatasetVersion string    `db:"dataset_version"`
	Outcome        string    `db:"outcome"`
	Stack          string    `db:"stack"`
	Version        int       `db:"version"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// Store is a sqlx-backed session repository for postgres or sqlite3.
type Store struct {
	db *sqlx.DB
}

// Open connects, runs migrations and returns a ready store.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, errors.DatabaseError("failed to connect to "+driver, err)
	}
	if driver == "sqlite3" {
		// One writer avoids "database is locked" under concurrent requests.
		db.SetMaxOpenConns(1)
	}
	if err := migration.NewRunner().Run(ctx, db); err != nil {
		db.Close()
		return nil, errors.WithCode(errors.CodeDatabaseError, err)
	}
	log.Printf("[SessionStore] connected (%s)", driver)
	return &Store{db: db}, nil
}

var _ ports.SessionRepository = (*Store)(nil)

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Save inserts or updates a snapshot and bumps its version.
func (s *Store) Save(ctx context.Context, snap *drill.SessionSnapshot) error {
	stack := snap.Stack
	if stack == nil {
		stack = drill.FilterStack{}
	}
	stackJSON, err := json.Marshal(stack)
	if err != nil {
		return errors.Wrap(err, "failed to marshal drill stack")
	}

	now := time.Now().UTC()
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = now
	}
	snap.UpdatedAt = now

	query := s.db.Rebind(`
		INSERT INTO drill_sessions (session_id, dataset_version, outcome, stack, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT (session_id) DO UPDATE SET
			dataset_version = EXCLUDED.dataset_version,
			outcome = EXCLUDED.outcome,
			stack = EXCLUDED.stack,
			version = drill_sessions.version + 1,
			updated_at = EXCLUDED.updated_at`)

	if _, err := s.db.ExecContext(ctx, query,
		snap.SessionID.String(),
		snap.DatasetVersion,
		snap.Outcome,
		string(stackJSON),
		snap.CreatedAt,
		snap.UpdatedAt,
	); err != nil {
		return errors.DatabaseError("failed to save drill session", err)
	}

	var version int
	if err := s.db.GetContext(ctx, &version,
		s.db.Rebind(`SELECT version FROM drill_sessions WHERE session_id = ?`), snap.SessionID.String()); err != nil {
		return errors.DatabaseError("failed to read session version", err)
	}
	snap.Version = version
	return nil
}

// Get loads a snapshot. A missing session wraps core.ErrSessionNotFound.
func (s *Store) Get(ctx context.Context, id core.SessionID) (*drill.SessionSnapshot, error) {
	var row sessionRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`
		SELECT session_id, dataset_version, outcome, stack, version, created_at, updated_at
		FROM drill_sessions
		WHERE session_id = ?`), id.String())
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrapf(core.ErrSessionNotFound, "session %s", id)
		}
		return nil, errors.DatabaseError("failed to get drill session", err)
	}
	return row.toSnapshot()
}

// List returns the most recently updated sessions.
func (s *Store) List(ctx context.Context, limit int) ([]*drill.SessionSnapshot, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []sessionRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`
		SELECT session_id, dataset_version, outcome, stack, version, created_at, updated_at
		FROM drill_sessions
		ORDER BY updated_at DESC
		LIMIT ?`), limit); err != nil {
		return nil, errors.DatabaseError("failed to list drill sessions", err)
	}

	out := make([]*drill.SessionSnapshot, 0, len(rows))
	for _, r := range rows {
		snap, err := r.toSnapshot()
		if err != nil {
			log.Printf("[SessionStore] skipping unreadable session %s: %v", r.SessionID, err)
			continue
		}
		out = append(out, snap)
	}
	return out, nil
}

// Delete removes a session; deleting a missing session is not an error.
func (s *Store) Delete(ctx context.Context, id core.SessionID) error {
	if _, err := s.db.ExecContext(ctx,
		s.db.Rebind(`DELETE FROM drill_sessions WHERE session_id = ?`), id.String()); err != nil {
		return errors.DatabaseError("failed to delete drill session", err)
	}
	return nil
}

func (r sessionRow) toSnapshot() (*drill.SessionSnapshot, error) {
	var stack drill.FilterStack
	if err := json.Unmarshal([]byte(r.Stack), &stack); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal stack of session %s", r.SessionID)
	}
	return &drill.SessionSnapshot{
		SessionID:      core.SessionID(r.SessionID),
		DatasetVersion: r.DatasetVersion,
		Outcome:        r.Outcome,
		Stack:          stack,
		Version:        r.Version,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}, nil
}
