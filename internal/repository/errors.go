package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist or is
	// unpublished.
	ErrNotFound = errors.New("entity not found")

	// ErrConflict is returned when an optimistic-concurrency check fails:
	// the persisted row changed since the caller last read it. No write is
	// performed.
	ErrConflict = errors.New("entity changed since last read")

	// ErrDuplicateCode is returned when an insert violates a unique code
	// constraint.
	ErrDuplicateCode = errors.New("duplicate code")
)
