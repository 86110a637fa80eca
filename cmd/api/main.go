// Package main is the entrypoint for the Coally API server.
package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/coally/coally-api/internal/auth"
	"github.com/coally/coally-api/internal/cache"
	"github.com/coally/coally-api/internal/config"
	"github.com/coally/coally-api/internal/metrics"
	"github.com/coally/coally-api/internal/server"
	"github.com/coally/coally-api/internal/service"
)

func main() {
	// A missing .env is fine; real environments set variables directly.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("failed to read .env", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	if err := run(cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}

	var sessions service.SessionCache
	var limiter *cache.Cache
	if cfg.RedisURL != "" {
		cacheClient, err := cache.New(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error(
				"failed to connect to Redis",
				slog.String("error", sanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", redactURL(cfg.RedisURL)),
			)
			_ = st.Close()
			return errors.New("redis unavailable")
		}
		logger.Info("connected to Redis")
		sessions = cacheClient
		limiter = cacheClient
	} else {
		logger.Warn("REDIS_URL not set, session cache and auth rate limiting disabled")
	}

	recorder := metrics.NewInMemory()
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)

	authService := service.NewAuthService(st, tokens, service.AuthOptions{
		BcryptCost:    cfg.BcryptCost,
		SingleSession: cfg.AuthSingleSession,
		Sessions:      sessions,
		Metrics:       recorder,
		Logger:        logger,
		NewID:         st.newID,
	})
	taskService := service.NewTaskService(st, recorder, st.newID)

	router, err := newRouter(cfg, routerDeps{
		Auth:      authService,
		Tasks:     taskService,
		Store:     st,
		StoreName: st.name,
		Cache:     limiter,
		Metrics:   recorder,
	}, logger)
	if err != nil {
		return err
	}

	srv := server.New(router, server.Options{
		Port:            cfg.Port,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	srv.OnShutdown(st.name, func(context.Context) error { return st.Close() })
	if limiter != nil {
		srv.OnShutdown("redis", func(context.Context) error { return limiter.Close() })
	}

	logger.Info("starting server",
		"port", cfg.Port,
		"env", cfg.AppEnv,
		"store", st.name,
		"base_path", cfg.BaseAPI,
	)

	return srv.Run(ctx)
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h).With("service", "coally-api")
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
