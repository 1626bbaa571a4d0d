package core

import (
	"context"
	"fmt"
	"log/slog"

	"recipekeeper/internal/config"
	"recipekeeper/internal/infra/persistence/memory"
	"recipekeeper/internal/infra/persistence/postgres"
	"recipekeeper/internal/infra/persistence/sqlite"
	"recipekeeper/internal/infra/persistence/sqlstore"
	"recipekeeper/pkg/domain"
)

// OpenStore selects a backend from cfg.StorageDriver. An empty driver
// defaults to sqlite.
//
//	memory:   in-process only (tests / ephemeral)
//	sqlite:   embedded database file at cfg.SQLitePath
//	postgres: PostgreSQL server at cfg.PostgresDSN
func OpenStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (domain.Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	driver := cfg.StorageDriver
	if driver == "" {
		driver = config.StorageSQLite
	}
	switch driver {
	case config.StorageMemory:
		return memory.NewStore(memory.WithLogger(logger)), nil
	case config.StorageSQLite:
		store, err := sqlite.Open(ctx, cfg.SQLitePath, sqlstore.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		logger.Info("storage opened", "driver", driver, "path", store.Path())
		return store, nil
	case config.StoragePostgres:
		store, err := postgres.Open(ctx, cfg.PostgresDSN, sqlstore.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		logger.Info("storage opened", "driver", driver)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
