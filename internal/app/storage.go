package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"bookcatalog/internal/config"
	"bookcatalog/internal/storage"
	"bookcatalog/internal/storage/ch"
	redisstore "bookcatalog/internal/storage/redis"
	"bookcatalog/internal/storage/stubs"
)

// OpenStorage connects to the configured backend and initializes it
func OpenStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.KV, error) {
	var kv storage.KV

	switch cfg.StorageBackend {
	case config.BackendMemory:
		logger.Warn("Using in-memory storage, the catalog is lost on restart")
		kv = stubs.NewMockKV()

	case config.BackendRedis:
		logger.Info("Connecting to Redis",
			zap.String("addr", cfg.RedisAddr),
			zap.Int("db", cfg.RedisDB),
		)
		redisKV, err := redisstore.NewRedisKV(redisstore.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		kv = redisKV

	case config.BackendClickHouse:
		logger.Info("Connecting to ClickHouse",
			zap.String("host", cfg.ClickHouseHost),
			zap.Int("port", cfg.ClickHousePort),
			zap.String("database", cfg.ClickHouseDatabase),
			zap.String("user", cfg.ClickHouseUser),
			zap.Bool("tls", cfg.ClickHouseUseTLS),
		)
		clickhouseKV, err := ch.NewClickHouseKV(
			cfg.ClickHouseHost,
			cfg.ClickHousePort,
			cfg.ClickHouseDatabase,
			cfg.ClickHouseUser,
			cfg.ClickHousePassword,
			cfg.ClickHouseUseTLS,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
		}
		kv = clickhouseKV

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}

	if err := kv.Initialize(ctx); err != nil {
		kv.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return kv, nil
}
