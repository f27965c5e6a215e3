package ports

import (
	"context"

	"vardrill/domain/core"
	"vardrill/domain/drill"
)

// SessionRepository persists drill sessions.
type SessionRepository interface {
	// Save inserts or updates a snapshot and sets its Version.
	Save(ctx context.Context, snap *drill.SessionSnapshot) error

	// Get returns core.ErrSessionNotFound (wrapped) for unknown ids.
	Get(ctx context.Context, id core.SessionID) (*drill.SessionSnapshot, error)

	// List returns the most recently updated sessions first.
	List(ctx context.Context, limit int) ([]*drill.SessionSnapshot, error)

	// Delete is idempotent.
	Delete(ctx context.Context, id core.SessionID) error
}
