package main

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/coally/coally-api/internal/apidocs"
	"github.com/coally/coally-api/internal/cache"
	"github.com/coally/coally-api/internal/config"
	"github.com/coally/coally-api/internal/handler"
	"github.com/coally/coally-api/internal/metrics"
	"github.com/coally/coally-api/internal/middleware"
	"github.com/coally/coally-api/internal/service"
)

// routerDeps are the wired services the router exposes.
// Cache is nil when Redis is not configured.
type routerDeps struct {
	Auth      *service.AuthService
	Tasks     *service.TaskService
	Store     handler.HealthChecker
	StoreName string
	Cache     *cache.Cache
	Metrics   metrics.Snapshotter
}

// newRouter configures the chi router with all routes and middleware.
func newRouter(cfg *config.Config, deps routerDeps, logger *slog.Logger) (http.Handler, error) {
	doc, err := apidocs.Load(context.Background())
	if err != nil {
		return nil, err
	}
	docsHandler, err := apidocs.NewHandler(doc, "/api-docs")
	if err != nil {
		return nil, err
	}

	exposeInternal := cfg.IsDevelopment()

	h := handler.New(logger, exposeInternal)
	authHandler := handler.NewAuthHandler(h, deps.Auth)
	taskHandler := handler.NewTaskHandler(h, deps.Tasks)
	metricsHandler := handler.NewMetricsHandler(deps.Metrics)

	// Keep nil pointers out of interface values.
	var cacheCheck handler.HealthChecker
	var limiter middleware.IPRateLimiter
	if deps.Cache != nil {
		cacheCheck = deps.Cache
		limiter = deps.Cache
	}
	healthHandler := handler.NewHealthHandler(deps.Store, deps.StoreName, cacheCheck)

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.GetCORSAllowedOrigins()

	r := chi.NewRouter()

	// Global middleware
	if cfg.TrustProxyHeaders {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger, cfg.IsDevelopment()))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment()}))
	r.Use(middleware.CORS(corsCfg))
	r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))

	// Operational endpoints (no auth required)
	r.Get("/", h.Hello)
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)
	r.Get("/metrics", metricsHandler.Metrics)
	r.Get("/api-docs", docsHandler.UI)
	r.Get("/api-docs/openapi.json", docsHandler.Spec)

	authCfg := middleware.AuthConfig{
		Logger:         logger,
		Authenticator:  deps.Auth,
		ExposeInternal: exposeInternal,
	}

	rateLimitCfg := middleware.RateLimitConfig{
		Logger:  logger,
		Limiter: limiter,
		Enabled: cfg.RateLimitAuthEnabled,
		Scope:   "auth",
		RPS:     cfg.RateLimitAuthRPS,
		Burst:   cfg.RateLimitAuthBurst,
	}

	r.Route(cfg.BaseAPI, func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(middleware.RateLimitIP(rateLimitCfg))
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
		})

		r.Route("/task", func(r chi.Router) {
			r.Use(middleware.Auth(authCfg))
			r.Post("/create", taskHandler.Create)
			r.Get("/", taskHandler.List)
			r.Get("/get/{id}", taskHandler.Get)
			r.Put("/update/{id}", taskHandler.Update)
			r.Delete("/delete/{id}", taskHandler.Delete)
		})
	})

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	logger.Debug("routes registered", slog.String("base_path", cfg.BaseAPI))

	return r, nil
}
