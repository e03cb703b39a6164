package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"playdash/internal/cache"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	return client, mr
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	client, mr := setupTestRedis(t)
	store := NewRedisStore(client, "playdash:", nil)

	t.Run("EmptyIsAbsent", func(t *testing.T) {
		_, ok, err := store.Read(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("RoundTrip", func(t *testing.T) {
		want := testEntry()
		require.NoError(t, store.Write(ctx, want))

		got, ok, err := store.Read(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, want, got)

		ts, err := mr.Get("playdash:" + cache.KeyFetchedAt)
		require.NoError(t, err)
		assert.Equal(t, "1710021600000", ts)
		assert.True(t, mr.Exists("playdash:"+cache.KeyDataset))
	})

	t.Run("MissingKeyIsAbsent", func(t *testing.T) {
		mr.Del("playdash:" + cache.KeyFetchedAt)
		_, ok, err := store.Read(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("CorruptEntry", func(t *testing.T) {
		require.NoError(t, mr.Set("playdash:"+cache.KeyDataset, "{"))
		require.NoError(t, mr.Set("playdash:"+cache.KeyFetchedAt, "1"))
		_, ok, err := store.Read(ctx)
		assert.ErrorIs(t, err, cache.ErrCorrupt)
		assert.False(t, ok)
	})

	t.Run("Ping", func(t *testing.T) {
		require.NoError(t, store.Ping(ctx))
	})
}

func TestRedisStoreUnavailable(t *testing.T) {
	client, mr := setupTestRedis(t)
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	store := NewRedisStore(client, "p:", nil)
	_, ok, err := store.Read(ctx)
	assert.Error(t, err)
	assert.False(t, ok)
	assert.Error(t, store.Write(ctx, testEntry()))
}
