// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/solution-ledger/internal/admin"
	"github.com/carterperez-dev/solution-ledger/internal/auth"
	"github.com/carterperez-dev/solution-ledger/internal/cash"
	"github.com/carterperez-dev/solution-ledger/internal/config"
	"github.com/carterperez-dev/solution-ledger/internal/core"
	"github.com/carterperez-dev/solution-ledger/internal/dashboard"
	"github.com/carterperez-dev/solution-ledger/internal/event"
	"github.com/carterperez-dev/solution-ledger/internal/expense"
	"github.com/carterperez-dev/solution-ledger/internal/health"
	"github.com/carterperez-dev/solution-ledger/internal/mail"
	"github.com/carterperez-dev/solution-ledger/internal/middleware"
	"github.com/carterperez-dev/solution-ledger/internal/server"
	"github.com/carterperez-dev/solution-ledger/internal/storage"
	"github.com/carterperez-dev/solution-ledger/internal/user"
)

const (
	drainDelay = 5 * time.Second

	credentialAttemptsPerMinute = 10
	uploadRequestCost           = 5
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	genKeys := flag.Bool("gen-keys", false, "write a new ES256 key pair to the configured paths and exit")
	flag.Parse()

	if err := run(*configPath, *genKeys); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string, genKeys bool) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	if genKeys {
		if err := auth.GenerateKeyPair(cfg.JWT.PrivateKeyPath, cfg.JWT.PublicKeyPath); err != nil {
			return fmt.Errorf("generate keys: %w", err)
		}
		logger.Info("key pair written",
			"private", cfg.JWT.PrivateKeyPath,
			"public", cfg.JWT.PublicKeyPath,
		)
		return nil
	}

	decimal.MarshalJSONWithoutQuotes = true

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	redis, err := core.NewRedis(ctx, cfg.Redis)
	switch {
	case errors.Is(err, core.ErrUpstream):
		logger.Warn("redis unreachable, denylist and rate limits run degraded",
			"error", err,
		)
	case err != nil:
		return err
	default:
		logger.Info("redis connected",
			"pool_size", cfg.Redis.PoolSize,
		)
	}

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.GetKeyID(),
	)

	mailer := mail.NewSender(cfg.Mail, logger)

	var store storage.Store = storage.Disabled{}
	if cfg.Storage.Enabled {
		s3Store, storeErr := storage.NewS3Store(ctx, cfg.Storage)
		if storeErr != nil {
			return storeErr
		}
		store = s3Store
		logger.Info("attachment storage configured",
			"bucket", cfg.Storage.Bucket,
			"endpoint", cfg.Storage.Endpoint,
		)
	} else {
		logger.Warn("attachment storage disabled, UPI payments will be rejected")
	}

	userRepo := user.NewRepository(db.DB)
	userSvc := user.NewService(userRepo, mailer, cfg.Mail.FrontendBaseURL)

	authSvc := auth.NewService(auth.ServiceConfig{
		Repo:            auth.NewRepository(db.DB),
		JWT:             jwtManager,
		Users:           userSvc,
		Denylist:        auth.NewRedisDenylist(redis.Client),
		Mailer:          mailer,
		FrontendBaseURL: cfg.Mail.FrontendBaseURL,
		Logger:          logger,
	})
	authHandler := auth.NewHandler(authSvc)

	eventSvc := event.NewService(event.NewRepository(db.DB), userSvc)
	eventHandler := event.NewHandler(eventSvc)
	userHandler := user.NewHandler(userSvc, eventSvc)

	expenseSvc := expense.NewService(expense.ServiceConfig{
		Repo:           expense.NewRepository(db.DB),
		Events:         eventSvc,
		Users:          userSvc,
		Store:          store,
		Logger:         logger,
		MaxAttachments: expense.DefaultMaxAttachments,
	})
	expenseHandler := expense.NewHandler(
		expenseSvc,
		cfg.Storage.MaxUploadBytes,
		expense.DefaultMaxAttachments,
	)

	cashHandler := cash.NewHandler(
		cash.NewService(cash.NewRepository(db.DB), eventSvc, userSvc),
	)

	dashboardHandler := dashboard.NewHandler(
		dashboard.NewService(dashboard.NewRepository(db.DB), eventSvc),
	)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:        db.Stats,
		DBPing:         db.Ping,
		RedisStats:     redis.PoolStats,
		RedisPing:      redis.Ping,
		StorageEnabled: cfg.Storage.Enabled,
	})

	healthHandler := health.NewHandler(
		health.Dependency{Name: "database", Checker: db, Critical: true},
		health.Dependency{Name: "redis", Checker: redis},
	)

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Tracing)
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recoverer(logger, cfg.IsDevelopment()))
	router.Use(middleware.Metrics)
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.Window(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
				cfg.RateLimit.Window,
			),
			KeyFunc:   middleware.KeyByIP,
			CostFunc:  middleware.CostByUpload(uploadRequestCost),
			SkipPaths: []string{"/healthz", "/livez", "/readyz", cfg.Metrics.Path},
			FailOpen:  true,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	if cfg.Metrics.Enabled {
		router.Handle(cfg.Metrics.Path, promhttp.Handler())
	}

	router.Get("/.well-known/jwks.json", jwtManager.GetJWKSHandler())

	authenticator := middleware.Authenticator(authSvc)
	credentialLimiter := middleware.AuthEndpointLimiter(
		redis.Client,
		credentialAttemptsPerMinute,
	)

	router.Route("/v1", func(r chi.Router) {
		authHandler.RegisterRoutes(r, authenticator, credentialLimiter)

		userHandler.RegisterRoutes(r, authenticator)
		userHandler.RegisterAdminRoutes(
			r,
			authenticator,
			middleware.RequireAdmin,
			middleware.RequireSuperAdmin,
		)
		adminHandler.RegisterRoutes(r, authenticator, middleware.RequireAdmin)

		eventHandler.RegisterRoutes(
			r,
			authenticator,
			expenseHandler.EventRoutes,
			cashHandler.EventRoutes,
		)
		expenseHandler.RegisterRoutes(r, authenticator)
		cashHandler.RegisterRoutes(r, authenticator)
		dashboardHandler.RegisterRoutes(r, authenticator)
	})

	applied, err := core.Migrate(ctx, db.DB, logger)
	if err != nil {
		return err
	}
	logger.Info("migrations complete", "applied", applied)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	healthHandler.SetReady(true)

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
