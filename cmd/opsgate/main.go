package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opsgate/opsgate/internal/app"
	"github.com/opsgate/opsgate/internal/audit"
	"github.com/opsgate/opsgate/internal/auth"
	"github.com/opsgate/opsgate/internal/endpoints"
	"github.com/opsgate/opsgate/internal/observability"
	"github.com/opsgate/opsgate/internal/platform/cache"
	"github.com/opsgate/opsgate/internal/platform/db"
	"github.com/opsgate/opsgate/internal/rbac"
	"github.com/opsgate/opsgate/internal/shared"
	"github.com/opsgate/opsgate/internal/sqlexec"
	"github.com/opsgate/opsgate/internal/token"
	"github.com/opsgate/opsgate/internal/users"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	// Login throttling degrades to open when Redis is unreachable, so a
	// failed connection is a warning rather than a startup failure.
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, login throttling disabled", slog.Any("error", err))
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(dbpool, logger)
	tokenManager := token.NewManager(cfg.JWTSecret, cfg.TokenTTL)

	rbacRepo := rbac.NewRepository(dbpool)
	rbacService := rbac.NewService(rbacRepo, auditLogger)
	guard := rbac.Middleware{
		Logger:   logger,
		Mode:     cfg.PermissionMode,
		Resolver: rbacService,
		Metrics:  metrics,
	}
	rbacHandler := rbac.NewHandler(logger, rbacService, guard)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo, tokenManager, rbacService)
	throttle := auth.NewThrottle(redisClient, cfg.LoginAttemptLimit, cfg.LoginAttemptWindow)
	authHandler := auth.NewHandler(logger, authService, throttle)

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo, auditLogger)
	usersHandler := users.NewHandler(logger, usersService, guard)

	sqlStore := sqlexec.NewStore(dbpool)
	sqlEngine := sqlexec.NewEngine(sqlStore, auditLogger, metrics)
	sqlHandler := sqlexec.NewHandler(logger, sqlEngine, guard)

	endpointsRepo := endpoints.NewRepository(dbpool)
	endpointsService := endpoints.NewService(endpointsRepo, auditLogger)
	endpointsHandler := endpoints.NewHandler(logger, endpointsService, guard)

	auditRepo := audit.NewRepository(dbpool)
	auditService := audit.NewService(auditRepo)
	auditHandler := audit.NewHandler(logger, auditService, guard)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		TokenManager:     tokenManager,
		AuthHandler:      authHandler,
		UsersHandler:     usersHandler,
		RBACHandler:      rbacHandler,
		SQLHandler:       sqlHandler,
		EndpointsHandler: endpointsHandler,
		AuditHandler:     auditHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", slog.Any("error", err))
	}
}
