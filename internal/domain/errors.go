package domain

import "errors"

var (
	// ErrNotFound marks an unknown store or SKU reference. Callers surface
	// it as a not-found condition rather than retrying.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition marks an illegal status change.
	ErrInvalidTransition = errors.New("invalid status transition")
)
