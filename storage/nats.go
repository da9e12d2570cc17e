package storage

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/nats-io/nats.go/jetstream"
)

// DefaultBucket is the JetStream KV bucket holding session snapshots.
const DefaultBucket = "BRIEFWORK_SESSIONS"

// NATSStore keeps session snapshots in a JetStream KV bucket. It does not own
// the NATS connection; Close is a no-op.
type NATSStore struct {
	kv jetstream.KeyValue
}

// NewNATSStore opens bucket, creating it if it doesn't exist. An empty bucket
// name uses DefaultBucket.
func NewNATSStore(ctx context.Context, js jetstream.JetStream, bucket string) (*NATSStore, error) {
	if bucket == "" {
		bucket = DefaultBucket
	}
	kv, err := getOrCreateBucket(ctx, js, bucket)
	if err != nil {
		return nil, fmt.Errorf("create sessions bucket: %w", err)
	}
	return &NATSStore{kv: kv}, nil
}

func getOrCreateBucket(ctx context.Context, js jetstream.JetStream, name string) (jetstream.KeyValue, error) {
	kv, err := js.KeyValue(ctx, name)
	if err == nil {
		return kv, nil
	}
	// Bucket doesn't exist, create it
	return js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      name,
		Description: fmt.Sprintf("Briefwork %s storage", strings.ToLower(name)),
		History:     5, // Keep last 5 revisions
	})
}

// Save writes the snapshot for sessionID.
func (s *NATSStore) Save(ctx context.Context, sessionID string, data []byte) error {
	if err := checkID(sessionID); err != nil {
		return err
	}
	if _, err := s.kv.Put(ctx, sessionID, data); err != nil {
		return fmt.Errorf("put session: %w", err)
	}
	return nil
}

// Load reads the snapshot for sessionID.
func (s *NATSStore) Load(ctx context.Context, sessionID string) ([]byte, error) {
	if err := checkID(sessionID); err != nil {
		return nil, err
	}
	entry, err := s.kv.Get(ctx, sessionID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return entry.Value(), nil
}

// Delete removes sessionID and its history.
func (s *NATSStore) Delete(ctx context.Context, sessionID string) error {
	if err := checkID(sessionID); err != nil {
		return err
	}
	if err := s.kv.Purge(ctx, sessionID); err != nil && !isNotFound(err) {
		return fmt.Errorf("purge session: %w", err)
	}
	return nil
}

// List returns the ids of all stored sessions.
func (s *NATSStore) List(ctx context.Context) ([]string, error) {
	keys, err := s.kv.Keys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list session keys: %w", err)
	}
	slices.Sort(keys)
	return keys, nil
}

// Close is a no-op; the caller owns the connection.
func (s *NATSStore) Close() error {
	return nil
}

// isNotFound checks if an error indicates a key was not found or deleted.
func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, jetstream.ErrKeyNotFound) || errors.Is(err, jetstream.ErrKeyDeleted) {
		return true
	}
	return strings.Contains(err.Error(), "key not found")
}
