package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/coally/coally-api/internal/config"
	"github.com/coally/coally-api/internal/docstore"
	"github.com/coally/coally-api/internal/memstore"
	"github.com/coally/coally-api/internal/migrate"
	"github.com/coally/coally-api/internal/repository"
	"github.com/coally/coally-api/internal/service"
)

// backend is what every store implementation provides.
type backend interface {
	service.UserStore
	service.TaskStore
	Ping(ctx context.Context) error
	Close() error
}

// store is the selected backend plus how to label it and mint its ids.
type store struct {
	backend
	name  string
	newID service.IDFunc
}

// openStore connects to the store named by the DATABASE_URL scheme.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*store, error) {
	kind, err := cfg.StoreKind()
	if err != nil {
		return nil, err
	}

	switch kind {
	case config.StorePostgres:
		if cfg.AutoMigrate {
			if err := runMigrations(ctx, cfg.DatabaseURL, logger); err != nil {
				return nil, err
			}
		}

		repo, err := repository.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logConnectError(logger, "postgres", err, cfg.DatabaseURL)
			return nil, fmt.Errorf("connect postgres: %s", sanitizeError(err, cfg.DatabaseURL))
		}
		logger.Info("connected to database", slog.String("store", string(kind)))
		return &store{backend: repo, name: string(kind), newID: service.NewULID}, nil

	case config.StoreMongo:
		docs, err := docstore.New(ctx, cfg.DatabaseURL, cfg.MongoDatabase)
		if err != nil {
			logConnectError(logger, "mongodb", err, cfg.DatabaseURL)
			return nil, fmt.Errorf("connect mongodb: %s", sanitizeError(err, cfg.DatabaseURL))
		}
		logger.Info("connected to database",
			slog.String("store", string(kind)),
			slog.String("database", cfg.MongoDatabase),
		)
		return &store{backend: docs, name: string(kind), newID: docstore.NewID}, nil

	default:
		logger.Warn("using in-memory store, data is lost on restart")
		return &store{backend: memstore.New(), name: string(kind), newID: service.NewULID}, nil
	}
}

func runMigrations(ctx context.Context, databaseURL string, logger *slog.Logger) error {
	migrator, err := migrate.Open(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("migrate: %s", sanitizeError(err, databaseURL))
	}
	defer migrator.Close()

	applied, err := migrator.Up(ctx)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	logger.Info("migrations applied", slog.Any("versions", applied))
	return nil
}

func logConnectError(logger *slog.Logger, store string, err error, url string) {
	logger.Error(
		"failed to connect to database",
		slog.String("store", store),
		slog.String("error", sanitizeError(err, url)),
		slog.String("database_url", redactURL(url)),
	)
}
