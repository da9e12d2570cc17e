// Package storage persists workshop sessions. A Store is a plain key/value
// back end holding one JSON snapshot per session id; the Gateway encodes and
// decodes session state on top of it, and the AutoSaver debounces writes.
package storage

import (
	"context"
	"fmt"
	"strings"
)

// Store is a session snapshot back end.
//
// Load returns ErrNotFound when no snapshot exists. Delete of an absent id is
// a no-op. List returns session ids in ascending order.
type Store interface {
	Save(ctx context.Context, sessionID string, data []byte) error
	Load(ctx context.Context, sessionID string) ([]byte, error)
	Delete(ctx context.Context, sessionID string) error
	List(ctx context.Context) ([]string, error)
	Close() error
}

// Backend names accepted by configuration.
const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendNATS     = "nats"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Backends returns the supported backend names.
func Backends() []string {
	return []string{BackendFile, BackendMemory, BackendNATS, BackendRedis, BackendPostgres}
}

// checkID rejects ids that no back end can store. NATS KV keys are the
// strictest: no whitespace, no wildcards.
func checkID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty session id", ErrInvalidID)
	}
	if strings.ContainsAny(id, " \t\r\n*>/\\") || id == "." || id == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}
