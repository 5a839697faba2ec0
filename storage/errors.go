package storage

import "errors"

// Common storage errors.
var (
	// ErrNotFound is returned when a graph partition does not exist.
	ErrNotFound = errors.New("graph partition not found")
)
