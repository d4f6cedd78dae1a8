package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shopgrid/platform/shared/config"
	"github.com/shopgrid/platform/shared/events"
	"github.com/shopgrid/platform/shared/logging"
	"github.com/shopgrid/platform/shared/models"
	sharedredis "github.com/shopgrid/platform/shared/redis"
	"github.com/shopgrid/platform/shared/telemetry"
	"github.com/shopgrid/platform/user-service/internal/app"
	"github.com/shopgrid/platform/user-service/internal/repository"
)

func main() {
	var cfg config.UserService
	if err := config.Load(&cfg, app.ServiceName, "4001"); err != nil {
		panic(err)
	}

	logger := logging.NewLogger(cfg.App.Name, cfg.App.Env, cfg.App.LogLevel)
	gin.SetMode(cfg.App.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.App.Name, cfg.Telemetry.OTLPEndpoint)
	if err != nil {
		logger.WithError(err).Fatal("failed to set up tracing")
	}

	// Write store
	repo, closeRepo, err := repository.Open(ctx, cfg.RepositoryURL, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to open user repository")
	}
	defer closeRepo()

	// Redis: optional view cache and stream transport
	var (
		rdb   *sharedredis.Client
		cache *sharedredis.ViewCache[models.UserView]
	)
	if cfg.Redis.Enabled() {
		rdb, err = sharedredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			logger.WithError(err).Fatal("failed to connect to redis")
		}
		defer rdb.Close()
		cache = sharedredis.NewViewCache[models.UserView](rdb.Client, "user:view", cfg.Redis.CacheTTL, logger)
	}

	fwd, err := events.NewForwarder(cfg.Broker, rdb.Raw(), cfg.App.Name)
	if err != nil {
		logger.WithError(err).Fatal("failed to set up event forwarding")
	}
	defer fwd.Close()

	svc, err := app.New(app.Deps{
		Repo:      repo,
		Cache:     cache,
		Forwarder: fwd,
		Logger:    logger,
		Origins:   cfg.App.AllowedOrigins,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to wire user service")
	}

	srv := &http.Server{Addr: ":" + cfg.App.Port, Handler: svc.Router}
	go func() {
		logger.WithField("port", cfg.App.Port).Info("user service starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("listen failed")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down user service")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("server forced to shutdown")
	}
	svc.Events.Close()
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.WithError(err).Warn("trace flush failed")
	}
	logger.Info("user service exited")
}
