package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	// Falls back to v4 if v7 fails (clock issues)
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	ActionID  ID
	SessionID ID
)

// RootActionID is the synthetic id of the "All Data" breadcrumb.
const RootActionID ActionID = "root"

// NewActionID returns a fresh id for a drill action.
func NewActionID() ActionID { return ActionID(NewID()) }

// NewSessionID returns a fresh id for an analysis session.
func NewSessionID() SessionID { return SessionID(NewID()) }

func (id ActionID) String() string  { return ID(id).String() }
func (id SessionID) String() string { return ID(id).String() }

// IsRoot reports whether the id addresses the synthetic root breadcrumb.
func (id ActionID) IsRoot() bool { return id == RootActionID }

// ParseSessionID parses a string into SessionID
func ParseSessionID(s string) (SessionID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("session ID cannot be empty")
	}
	return SessionID(s), nil
}

// ParseActionID parses a string into ActionID
func ParseActionID(s string) (ActionID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("action ID cannot be empty")
	}
	return ActionID(s), nil
}
