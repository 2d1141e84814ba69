package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"epages-rest-layer/internal/ports"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DefaultKeyPrefix namespaces snapshot keys in a shared Redis.
const DefaultKeyPrefix = "epages:snapshot:"

// RedisStore shares snapshots between processes through Redis.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	logger zerolog.Logger
}

var _ ports.SnapshotStore = (*RedisStore)(nil)

// NewRedisStore creates a store on an existing client. Keys expire after ttl;
// zero keeps them until deleted.
func NewRedisStore(client redis.UniversalClient, prefix string, ttl time.Duration, logger zerolog.Logger) *RedisStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl, logger: logger}
}

// NewRedisStoreFromAddr connects to addr and verifies the connection.
func NewRedisStoreFromAddr(ctx context.Context, addr, password string, db int, logger zerolog.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	logger.Info().Str("addr", addr).Int("db", db).Msg("Connected to redis snapshot store")
	return NewRedisStore(client, DefaultKeyPrefix, 0, logger), nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (*ports.Snapshot, bool, error) {
	raw, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get snapshot %s: %w", key, err)
	}
	var snap ports.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Dropping unreadable snapshot")
		return nil, false, nil
	}
	return &snap, true, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, snap ports.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot %s: %w", key, err)
	}
	if err := s.client.Set(ctx, s.prefix+key, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to put snapshot %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete snapshot %s: %w", key, err)
	}
	return nil
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
