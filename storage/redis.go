package storage

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces session keys.
const DefaultRedisPrefix = "briefwork:session:"

// RedisStore keeps one string key per session.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithRedisPrefix overrides DefaultRedisPrefix.
func WithRedisPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithRedisTTL expires snapshots that haven't been saved for ttl. Zero keeps
// them forever.
func WithRedisTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		s.ttl = ttl
	}
}

// NewRedisStore creates a store on a new client built from opts.
func NewRedisStore(opts *redis.Options, options ...RedisOption) *RedisStore {
	s := &RedisStore{
		rdb:    redis.NewClient(opts),
		prefix: DefaultRedisPrefix,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// NewRedisStoreFromURL parses a redis:// URL and creates a store.
func NewRedisStoreFromURL(url string, options ...RedisOption) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewRedisStore(opts, options...), nil
}

// Ping verifies Redis connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *RedisStore) key(sessionID string) string {
	return s.prefix + sessionID
}

// Save writes the snapshot for sessionID.
func (s *RedisStore) Save(ctx context.Context, sessionID string, data []byte) error {
	if err := checkID(sessionID); err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, s.key(sessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write session to Redis: %w", err)
	}
	return nil
}

// Load reads the snapshot for sessionID.
func (s *RedisStore) Load(ctx context.Context, sessionID string) ([]byte, error) {
	if err := checkID(sessionID); err != nil {
		return nil, err
	}
	data, err := s.rdb.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read session from Redis: %w", err)
	}
	return data, nil
}

// Delete removes sessionID.
func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := checkID(sessionID); err != nil {
		return err
	}
	if err := s.rdb.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session from Redis: %w", err)
	}
	return nil
}

// List scans the prefix for stored session ids.
func (s *RedisStore) List(ctx context.Context) ([]string, error) {
	ids := []string{}
	iter := s.rdb.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, strings.TrimPrefix(iter.Val(), s.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan sessions in Redis: %w", err)
	}
	slices.Sort(ids)
	return slices.Compact(ids), nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
