package storage

import (
	"context"
	"slices"
	"time"

	"github.com/patrickmn/go-cache"
)

// MemoryStore keeps snapshots in process memory. Nothing survives a restart;
// it backs tests and throwaway sessions.
type MemoryStore struct {
	cache *cache.Cache
}

// NewMemoryStore creates a store whose entries expire after ttl. Zero keeps
// entries until they are deleted.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	return &MemoryStore{cache: cache.New(ttl, 10*time.Minute)}
}

// Save stores a copy of data.
func (m *MemoryStore) Save(_ context.Context, sessionID string, data []byte) error {
	if err := checkID(sessionID); err != nil {
		return err
	}
	m.cache.Set(sessionID, slices.Clone(data), cache.DefaultExpiration)
	return nil
}

// Load returns a copy of the stored snapshot.
func (m *MemoryStore) Load(_ context.Context, sessionID string) ([]byte, error) {
	if err := checkID(sessionID); err != nil {
		return nil, err
	}
	v, found := m.cache.Get(sessionID)
	if !found {
		return nil, ErrNotFound
	}
	return slices.Clone(v.([]byte)), nil
}

// Delete removes sessionID.
func (m *MemoryStore) Delete(_ context.Context, sessionID string) error {
	if err := checkID(sessionID); err != nil {
		return err
	}
	m.cache.Delete(sessionID)
	return nil
}

// List returns the ids of unexpired sessions.
func (m *MemoryStore) List(context.Context) ([]string, error) {
	items := m.cache.Items()
	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

// Close drops every entry.
func (m *MemoryStore) Close() error {
	m.cache.Flush()
	return nil
}
