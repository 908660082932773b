package repository

import (
	"errors"
	"fmt"
)

// Common repository errors
var (
	ErrSourceNotFound = errors.New("source not found")
	ErrSourceExists   = errors.New("source already exists")
	ErrInvalidUUID    = errors.New("invalid UUID format")
	ErrDatabase       = errors.New("database error")
)

// dbError marks a failure of the underlying store
func dbError(err error) error {
	return fmt.Errorf("%w: %w", ErrDatabase, err)
}
