package cli

import (
	"context"
	"fmt"

	"go.uber.org/zap/zapcore"

	"bookcatalog/internal/app"
	"bookcatalog/internal/catalog"
	"bookcatalog/internal/config"
)

// OpenConfiguredStore opens the catalog on the backend selected by the
// environment, the same way the server does.
func OpenConfiguredStore(ctx context.Context, key string, verbose bool) (*catalog.Store, func() error, error) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if key != "" {
		cfg.CatalogKey = key
	}
	if !verbose && cfg.LogLevel < zapcore.WarnLevel {
		cfg.LogLevel = zapcore.WarnLevel
	}

	logger, err := app.NewLogger(cfg)
	if err != nil {
		return nil, nil, err
	}

	kv, err := app.OpenStorage(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	store := catalog.New(kv, catalog.WithKey(cfg.CatalogKey), catalog.WithLogger(logger))
	if err := store.Load(ctx); err != nil {
		kv.Close()
		return nil, nil, err
	}

	return store, func() error {
		_ = logger.Sync()
		return kv.Close()
	}, nil
}
