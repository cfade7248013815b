package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"bookcatalog/internal/storage"
)

var _ storage.KV = (*RedisKV)(nil)

// RedisKV stores catalog snapshots as plain Redis strings
type RedisKV struct {
	client *redis.Client
}

// Options configures the Redis connection
type Options struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisKV creates a Redis client and checks that the server is reachable
func NewRedisKV(opts Options) (*RedisKV, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis at %s: %w", opts.Addr, err)
	}

	return &RedisKV{client: client}, nil
}

// NewRedisKVFromClient wraps an existing client
func NewRedisKVFromClient(client *redis.Client) *RedisKV {
	return &RedisKV{client: client}
}

// Initialize is a no-op, Redis needs no schema
func (r *RedisKV) Initialize(ctx context.Context) error {
	return nil
}

// Get returns the snapshot stored under key
func (r *RedisKV) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get snapshot %q: %w", key, err)
	}
	return value, true, nil
}

// Set replaces the snapshot stored under key. SET is atomic in Redis.
func (r *RedisKV) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set snapshot %q: %w", key, err)
	}
	return nil
}

// Close closes the Redis client
func (r *RedisKV) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}
