package storage

import "errors"

// Common storage errors.
var (
	// ErrNotFound is returned when no snapshot exists for a session id.
	ErrNotFound = errors.New("session not found")

	// ErrInvalidID is returned for session ids a back end cannot store.
	ErrInvalidID = errors.New("invalid session id")
)
