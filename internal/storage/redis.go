package storage

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"playdash/internal/cache"
	"playdash/internal/core"
	"playdash/internal/log"
)

// RedisStore keeps the cache entry in Redis under a key prefix. Both keys
// are written in one MULTI/EXEC transaction and read with a single MGET.
type RedisStore struct {
	client *redis.Client
	prefix string
	logger *log.Logger
}

var _ cache.Store = (*RedisStore)(nil)

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client, prefix string, logger *log.Logger) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, logger: log.OrDiscard(logger)}
}

func (r *RedisStore) makeKey(key string) string {
	return r.prefix + key
}

func (r *RedisStore) Read(ctx context.Context) (core.CacheEntry, bool, error) {
	vals, err := r.client.MGet(ctx, r.makeKey(cache.KeyDataset), r.makeKey(cache.KeyFetchedAt)).Result()
	if err != nil {
		return core.CacheEntry{}, false, fmt.Errorf("redis mget failed: %w", err)
	}
	dataset, ok1 := vals[0].(string)
	fetchedAt, ok2 := vals[1].(string)
	if !ok1 || !ok2 {
		return core.CacheEntry{}, false, nil
	}
	entry, err := cache.Decode([]byte(dataset), fetchedAt)
	if err != nil {
		return core.CacheEntry{}, false, err
	}
	return entry, true, nil
}

func (r *RedisStore) Write(ctx context.Context, entry core.CacheEntry) error {
	dataset, fetchedAt, err := cache.Encode(entry)
	if err != nil {
		return err
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.makeKey(cache.KeyDataset), dataset, 0)
		pipe.Set(ctx, r.makeKey(cache.KeyFetchedAt), fetchedAt, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis write failed: %w", err)
	}
	r.logger.DebugContext(ctx, "Cache entry written",
		log.FieldBackend, "redis",
		log.FieldGames, len(entry.Dataset.PlayHistories))
	return nil
}

// Ping checks connectivity.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
