// Package main is the entrypoint for the blood donation API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/bloodlink/bloodlink/internal/cache"
	"github.com/bloodlink/bloodlink/internal/config"
	"github.com/bloodlink/bloodlink/internal/handler"
	"github.com/bloodlink/bloodlink/internal/middleware"
	"github.com/bloodlink/bloodlink/internal/payment"
	"github.com/bloodlink/bloodlink/internal/repository"
	"github.com/bloodlink/bloodlink/internal/server"
	"github.com/bloodlink/bloodlink/internal/token"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database",
			slog.String("error", err.Error()),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("connected to database")

	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error("failed to connect to Redis",
			slog.String("error", err.Error()),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	defer cacheClient.Close()
	logger.Info("connected to Redis")

	tokens := token.NewService(cfg.JWTSecret)
	payments := payment.NewClient(cfg.StripeSecretKey)

	h := handler.New()
	healthHandler := handler.NewHealthHandler(repo, cacheClient)
	userHandler := handler.NewUserHandler(repo, tokens, cacheClient, logger)
	donorHandler := handler.NewDonorHandler(repo, logger)
	requestHandler := handler.NewRequestHandler(repo, logger)
	fundingHandler := handler.NewFundingHandler(repo, payments, logger)
	adminHandler := handler.NewAdminHandler(repo, logger)

	r := setupRouter(
		h, healthHandler, userHandler, donorHandler, requestHandler,
		fundingHandler, adminHandler,
		repo, cacheClient, tokens, cfg, logger,
	)

	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(
	h *handler.Handler,
	healthHandler *handler.HealthHandler,
	userHandler *handler.UserHandler,
	donorHandler *handler.DonorHandler,
	requestHandler *handler.RequestHandler,
	fundingHandler *handler.FundingHandler,
	adminHandler *handler.AdminHandler,
	repo *repository.Repository,
	cacheClient *cache.Cache,
	tokens *token.Service,
	cfg *config.Config,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))

	// Health endpoints (no auth required)
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)

	// Root liveness endpoint
	r.Get("/", h.Root)

	// Public endpoints
	r.Post("/users", userHandler.Register)
	r.Post("/auth/jwt", userHandler.IssueToken)

	rateLimitCfg := middleware.RateLimitConfig{
		Logger:  logger,
		Cache:   cacheClient,
		Enabled: cfg.RateLimitDonorsEnabled,
		RPS:     cfg.RateLimitDonorsRPS,
		Burst:   cfg.RateLimitDonorsBurst,
	}
	r.With(middleware.RateLimitPublic(rateLimitCfg)).Get("/donors", donorHandler.Search)

	// Bearer-token routes
	authCfg := middleware.AuthConfig{
		Logger: logger,
		Tokens: tokens,
		Store:  repo,
		Cache:  cacheClient,
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(authCfg))

		r.Get("/users/me", userHandler.Me)

		// Admin-only user management
		r.With(middleware.RequireAdmin()).Get("/users", userHandler.List)
		r.With(middleware.RequireAdmin()).Patch("/users/role/{id}", userHandler.UpdateRole)
		r.With(middleware.RequireAdmin()).Patch("/users/status/{id}", userHandler.UpdateStatus)

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin())
			r.Get("/stats", adminHandler.Stats)
			r.Get("/chart-stats", adminHandler.ChartStats)
		})

		r.Route("/donation-requests", func(r chi.Router) {
			r.Post("/", requestHandler.Create)
			r.Get("/", requestHandler.List)
			r.Get("/{id}", requestHandler.Get)
			r.Patch("/status/{id}", requestHandler.UpdateStatus)
			r.Patch("/{id}", requestHandler.Update)
			r.Delete("/{id}", requestHandler.Delete)
		})

		r.Post("/create-payment-intent", fundingHandler.CreatePaymentIntent)

		r.Route("/fundings", func(r chi.Router) {
			r.Post("/", fundingHandler.Create)
			r.Get("/", fundingHandler.List)
			r.Get("/total", fundingHandler.Total)
		})
	})

	// 404 and 405 handlers
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}

// redactURL strips credentials from a connection URL for logging.
func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}
