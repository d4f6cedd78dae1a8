package app

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/shopgrid/platform/notification-service/internal/command"
	"github.com/shopgrid/platform/notification-service/internal/consumer"
	"github.com/shopgrid/platform/notification-service/internal/handler"
	"github.com/shopgrid/platform/notification-service/internal/mailer"
	"github.com/shopgrid/platform/notification-service/internal/query"
	"github.com/shopgrid/platform/notification-service/internal/repository"
	"github.com/shopgrid/platform/shared/cqrs"
	"github.com/shopgrid/platform/shared/events"
	"github.com/shopgrid/platform/shared/graph"
	"github.com/shopgrid/platform/shared/logging"
	"github.com/shopgrid/platform/shared/middleware"
)

const ServiceName = "notification-service"

type Deps struct {
	Mailer    mailer.Mailer
	Log       repository.NotificationLog
	Forwarder events.Forwarder
	Logger    *logrus.Logger
	Origins   []string
}

type App struct {
	Commands *cqrs.CommandBus
	Queries  *cqrs.QueryBus
	Events   *events.Bus
	Router   *gin.Engine
	// UserEvents is the handler fed by the broker consumer.
	UserEvents events.Handler
}

func New(deps Deps) (*App, error) {
	logger := logging.OrDiscard(deps.Logger)
	m := deps.Mailer
	if m == nil {
		m = mailer.LogMailer{Logger: logger}
	}
	log := deps.Log
	if log == nil {
		log = repository.NewMemoryNotificationLog()
	}
	fwd := deps.Forwarder
	if fwd == nil {
		fwd = events.NopForwarder{}
	}

	bus := events.NewBus(logger)
	bus.Subscribe(events.NotificationSent, "forward-notification-events", func(ctx context.Context, e events.Event) error {
		return fwd.Publish(ctx, events.NotificationEventsStream, e.Type, e.Data)
	})

	commands, err := cqrs.NewCommandBus(logger, command.NewNotificationCommandHandlers(m, log, bus, logger).Routes()...)
	if err != nil {
		return nil, err
	}
	queries, err := cqrs.NewQueryBus(logger, query.NewNotificationQueryHandlers(log).Routes()...)
	if err != nil {
		return nil, err
	}

	schema, err := handler.NewNotificationHandler(queries, logger).Schema()
	if err != nil {
		return nil, err
	}

	router := middleware.NewEngine(logger, deps.Origins)
	graph.Mount(router, schema)
	router.GET("/health", middleware.Health(ServiceName))

	return &App{
		Commands:   commands,
		Queries:    queries,
		Events:     bus,
		Router:     router,
		UserEvents: consumer.UserEvents(commands, logger),
	}, nil
}
