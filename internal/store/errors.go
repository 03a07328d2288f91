package store

import "errors"

var (
	// ErrNotFound is returned when no snapshot matches the lookup.
	ErrNotFound = errors.New("snapshot not found")
	// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
	ErrSchemaMismatch = errors.New("schema version mismatch")
	// ErrLocked is returned when another process holds the writer lock.
	ErrLocked = errors.New("snapshot store is locked by another process")
)
