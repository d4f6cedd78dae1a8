package app

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/shopgrid/platform/product-service/internal/command"
	"github.com/shopgrid/platform/product-service/internal/handler"
	"github.com/shopgrid/platform/product-service/internal/query"
	"github.com/shopgrid/platform/product-service/internal/repository"
	"github.com/shopgrid/platform/shared/cqrs"
	"github.com/shopgrid/platform/shared/events"
	"github.com/shopgrid/platform/shared/graph"
	"github.com/shopgrid/platform/shared/logging"
	"github.com/shopgrid/platform/shared/middleware"
)

const ServiceName = "product-service"

type Deps struct {
	Repo      repository.ProductRepository
	Forwarder events.Forwarder
	Logger    *logrus.Logger
	Origins   []string
}

type App struct {
	Commands *cqrs.CommandBus
	Queries  *cqrs.QueryBus
	Events   *events.Bus
	Router   *gin.Engine
}

func New(deps Deps) (*App, error) {
	logger := logging.OrDiscard(deps.Logger)
	fwd := deps.Forwarder
	if fwd == nil {
		fwd = events.NopForwarder{}
	}

	bus := events.NewBus(logger)
	bus.Subscribe(events.ProductCreated, "log-product-created", func(ctx context.Context, e events.Event) error {
		data, _ := e.Data.(events.ProductCreatedEvent)
		logger.WithFields(logrus.Fields{"product_id": data.ProductID, "name": data.Name}).Info("product created")
		return nil
	})
	bus.Subscribe(events.ProductCreated, "forward-product-events", func(ctx context.Context, e events.Event) error {
		return fwd.Publish(ctx, events.ProductEventsStream, e.Type, e.Data)
	})

	commands, err := cqrs.NewCommandBus(logger, command.NewProductCommandHandlers(deps.Repo, bus).Routes()...)
	if err != nil {
		return nil, err
	}
	queries, err := cqrs.NewQueryBus(logger, query.NewProductQueryHandlers(deps.Repo).Routes()...)
	if err != nil {
		return nil, err
	}

	schema, err := handler.NewProductHandler(commands, queries, logger).Schema()
	if err != nil {
		return nil, err
	}

	router := middleware.NewEngine(logger, deps.Origins)
	graph.Mount(router, schema)
	router.GET("/health", middleware.Health(ServiceName))

	return &App{Commands: commands, Queries: queries, Events: bus, Router: router}, nil
}
