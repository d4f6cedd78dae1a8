package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/shopgrid/platform/notification-service/internal/app"
	"github.com/shopgrid/platform/notification-service/internal/mailer"
	"github.com/shopgrid/platform/shared/config"
	"github.com/shopgrid/platform/shared/events"
	"github.com/shopgrid/platform/shared/logging"
	sharedredis "github.com/shopgrid/platform/shared/redis"
	"github.com/shopgrid/platform/shared/telemetry"
)

func main() {
	var cfg config.NotificationService
	if err := config.Load(&cfg, app.ServiceName, "4005"); err != nil {
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

	var rdb *sharedredis.Client
	if cfg.Redis.Enabled() {
		rdb, err = sharedredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			logger.WithError(err).Fatal("failed to connect to redis")
		}
		defer rdb.Close()
	}

	var m mailer.Mailer = mailer.LogMailer{Logger: logger}
	if cfg.Mailgun.Enabled() {
		m = mailer.NewMailgun(cfg.Mailgun.Domain, cfg.Mailgun.APIKey, cfg.Mailgun.Sender)
	} else {
		logger.Warn("MAILGUN_DOMAIN/MAILGUN_API_KEY not set; welcome emails are logged only")
	}

	fwd, err := events.NewForwarder(cfg.Broker, rdb.Raw(), cfg.App.Name)
	if err != nil {
		logger.WithError(err).Fatal("failed to set up event forwarding")
	}
	defer fwd.Close()

	svc, err := app.New(app.Deps{Mailer: m, Forwarder: fwd, Logger: logger, Origins: cfg.App.AllowedOrigins})
	if err != nil {
		logger.WithError(err).Fatal("failed to wire notification service")
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Broker.Transport == config.TransportNone || cfg.Broker.Transport == "" {
		logger.Warn("EVENT_TRANSPORT=none; user events will not be consumed")
	} else {
		consumer, err := events.NewConsumer(cfg.Broker, rdb.Raw(), events.ConsumerOptions{
			Stream:   events.UserEventsStream,
			Group:    cfg.ConsumerGroup,
			Consumer: cfg.ConsumerName,
			Handler:  svc.UserEvents,
			Logger:   logger,
		})
		if err != nil {
			logger.WithError(err).Fatal("failed to set up user event consumer")
		}
		g.Go(func() error { return consumer.Start(gctx) })
	}

	srv := &http.Server{Addr: ":" + cfg.App.Port, Handler: svc.Router}
	g.Go(func() error {
		logger.WithField("port", cfg.App.Port).Info("notification service starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.WithError(err).Error("notification service stopped with error")
	}
	svc.Events.Close()

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = shutdownTracing(flushCtx)
	logger.Info("notification service exited")
}
