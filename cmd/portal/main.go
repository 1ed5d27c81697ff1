package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clubhub/member-portal/internal/access"
	"github.com/clubhub/member-portal/internal/app"
	"github.com/clubhub/member-portal/internal/auth"
	"github.com/clubhub/member-portal/internal/communities"
	"github.com/clubhub/member-portal/internal/identity"
	"github.com/clubhub/member-portal/internal/members"
	"github.com/clubhub/member-portal/internal/observability"
	"github.com/clubhub/member-portal/internal/platform/cache"
	"github.com/clubhub/member-portal/internal/platform/db"
	"github.com/clubhub/member-portal/internal/users"
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

	dbpool, err := db.New(ctx, cfg.DatabaseURL, db.PoolOptions{})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := identity.NewSessionManager(redisClient, cfg.SessionCookie, cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	resolvers := identity.Chain{sessionManager}
	if cfg.TokenResolverEnabled() {
		resolvers = append(resolvers, identity.NewTokenResolver(cfg.AuthTokenCookie, cfg.AuthTokenSecret))
	}

	userService := users.NewService(users.NewRepository(dbpool))
	communityRepo := communities.NewRepository(dbpool)
	memberService := members.NewService(members.NewRepository(dbpool), logger)

	authService := auth.NewService(auth.NewRepository(dbpool), communityRepo)
	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Access:             access.NewEngine(resolvers, userService, logger),
		AuthHandler:        auth.NewHandler(logger, authService, sessionManager),
		MembersHandler:     members.NewHandler(logger, memberService, userService),
		CommunitiesHandler: communities.NewHandler(logger, communityRepo),
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("env", cfg.AppEnv))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
