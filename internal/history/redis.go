package history

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/prathameshjadhav12-a11y/Wellness-Chatbot-AI/internal/domain"
)

// RedisStore implements the Store interface using Redis. The whole history
// lives in one JSON blob at a fixed key; Append performs a read-modify-write
// under a per-store mutex so concurrent appends never drop entries.
type RedisStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	logger *logrus.Logger

	mu sync.Mutex
}

// RedisOption is a functional option for RedisStore.
type RedisOption func(*RedisStore)

// WithTTL sets an expiry on the history blob. Zero (the default) means the
// blob never expires.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		s.ttl = ttl
	}
}

// NewRedisStore creates a Redis-backed history store and verifies the
// connection.
func NewRedisStore(cfg domain.HistoryConfig, logger *logrus.Logger, opts ...RedisOption) (*RedisStore, error) {
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(redisOpts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	key := cfg.Key
	if key == "" {
		key = DefaultKey
	}

	store := &RedisStore{
		client: client,
		key:    key,
		logger: logger,
	}
	for _, opt := range opts {
		opt(store)
	}

	return store, nil
}

// List returns the persisted entries, newest first.
func (s *RedisStore) List(ctx context.Context) ([]domain.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load(ctx)
}

// load reads and decodes the history blob. Callers must hold s.mu.
func (s *RedisStore) load(ctx context.Context) ([]domain.HistoryEntry, error) {
	val, err := s.client.Get(ctx, s.key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, domain.NewStorageError("read", err)
	}

	var entries []domain.HistoryEntry
	if err := json.Unmarshal([]byte(val), &entries); err != nil {
		// An unreadable blob reads as an empty history.
		s.logger.WithError(err).WithField("key", s.key).Warn("Discarding corrupt history blob")
		return nil, nil
	}
	return entries, nil
}

// Append prepends the entry and rewrites the blob, evicting entries beyond
// domain.MaxHistoryEntries.
func (s *RedisStore) Append(ctx context.Context, entry domain.HistoryEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load(ctx)
	if err != nil {
		return err
	}

	data, err := json.Marshal(prependBounded(entries, entry))
	if err != nil {
		return domain.NewStorageError("encode", err)
	}

	if err := s.client.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		return domain.NewStorageError("write", err)
	}
	return nil
}

// Clear removes the history blob.
func (s *RedisStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return domain.NewStorageError("clear", err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
