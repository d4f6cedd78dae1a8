package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shopgrid/platform/api-gateway/internal/app"
	"github.com/shopgrid/platform/shared/config"
	"github.com/shopgrid/platform/shared/logging"
	"github.com/shopgrid/platform/shared/telemetry"
)

func main() {
	var cfg config.Gateway
	if err := config.Load(&cfg, app.ServiceName, "4000"); err != nil {
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

	// Subgraph deadlines are applied per request; the client itself has none.
	client := &http.Client{Transport: http.DefaultTransport}
	router, err := app.New(ctx, cfg, client, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to compose gateway")
	}

	srv := &http.Server{Addr: ":" + cfg.App.Port, Handler: router}
	go func() {
		logger.WithField("port", cfg.App.Port).Info("api gateway starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("listen failed")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down api gateway")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("server forced to shutdown")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.WithError(err).Warn("trace flush failed")
	}
	logger.Info("api gateway exited")
}
