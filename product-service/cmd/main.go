package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shopgrid/platform/product-service/internal/app"
	"github.com/shopgrid/platform/product-service/internal/repository"
	"github.com/shopgrid/platform/shared/config"
	"github.com/shopgrid/platform/shared/events"
	"github.com/shopgrid/platform/shared/logging"
	"github.com/shopgrid/platform/shared/telemetry"
)

func main() {
	var cfg config.ProductService
	if err := config.Load(&cfg, app.ServiceName, "4002"); err != nil {
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

	repo, closeRepo, err := repository.Open(ctx, cfg.RepositoryURL, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to open product repository")
	}
	defer closeRepo()

	// The redis transport is not offered here; the product service has no redis client.
	fwd, err := events.NewForwarder(cfg.Broker, nil, cfg.App.Name)
	if err != nil {
		logger.WithError(err).Fatal("failed to set up event forwarding")
	}
	defer fwd.Close()

	svc, err := app.New(app.Deps{Repo: repo, Forwarder: fwd, Logger: logger, Origins: cfg.App.AllowedOrigins})
	if err != nil {
		logger.WithError(err).Fatal("failed to wire product service")
	}

	srv := &http.Server{Addr: ":" + cfg.App.Port, Handler: svc.Router}
	go func() {
		logger.WithField("port", cfg.App.Port).Info("product service starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("listen failed")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down product service")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("server forced to shutdown")
	}
	svc.Events.Close()
	_ = shutdownTracing(shutdownCtx)
}
