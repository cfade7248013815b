package redisstore

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	redisTC "github.com/testcontainers/testcontainers-go/modules/redis"
)

// setupTestRedis starts a Redis container and returns a store connected to it
func setupTestRedis(t *testing.T) *RedisKV {
	if testing.Short() {
		t.Skip("skipping Redis integration test in short mode")
	}

	ctx := context.Background()

	redisContainer, err := redisTC.Run(ctx, "redis:7-alpine")
	require.NoError(t, err, "Failed to start Redis container")
	t.Cleanup(func() {
		testcontainers.TerminateContainer(redisContainer)
	})

	uri, err := redisContainer.ConnectionString(ctx)
	require.NoError(t, err)

	opts, err := redis.ParseURL(uri)
	require.NoError(t, err)

	kv, err := NewRedisKV(Options{Addr: opts.Addr, Password: opts.Password, DB: opts.DB})
	require.NoError(t, err, "Failed to connect to Redis")
	t.Cleanup(func() {
		kv.Close()
	})

	require.NoError(t, kv.Initialize(ctx))
	return kv
}

func TestRedisKV_GetMissing(t *testing.T) {
	kv := setupTestRedis(t)

	value, ok, err := kv.Get(context.Background(), "bookLibrary")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, value)
}

func TestRedisKV_SetReplaces(t *testing.T) {
	kv := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "bookLibrary", "[]"))
	require.NoError(t, kv.Set(ctx, "bookLibrary", `[{"id":"a","title":"Dune","author":"Frank Herbert"}]`))

	value, ok, err := kv.Get(ctx, "bookLibrary")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"a","title":"Dune","author":"Frank Herbert"}]`, value)
}

func TestNewRedisKV_Unreachable(t *testing.T) {
	_, err := NewRedisKV(Options{Addr: "127.0.0.1:1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to ping Redis")
}
