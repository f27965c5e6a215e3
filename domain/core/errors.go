package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound        = errors.New("resource not found")
	ErrSessionNotFound = fmt.Errorf("%w: session", ErrNotFound)
	ErrActionNotFound  = fmt.Errorf("%w: drill action", ErrNotFound)
	ErrColumnNotFound  = fmt.Errorf("%w: column", ErrNotFound)

	// Validation errors
	ErrInvalidAction    = errors.New("invalid drill action")
	ErrInvalidOutcome   = errors.New("outcome column is not numeric")
	ErrInsufficientData = errors.New("insufficient data for analysis")
	ErrEmptyDataset     = errors.New("dataset has no rows")
)

// Error constructors with context
func NewInvalidActionError(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidAction, reason)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidAction) ||
		errors.Is(err, ErrInvalidOutcome)
}
