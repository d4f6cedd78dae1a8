package app

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/shopgrid/platform/shared/cqrs"
	"github.com/shopgrid/platform/shared/events"
	"github.com/shopgrid/platform/shared/graph"
	"github.com/shopgrid/platform/shared/logging"
	"github.com/shopgrid/platform/shared/middleware"
	"github.com/shopgrid/platform/shared/models"
	sharedredis "github.com/shopgrid/platform/shared/redis"
	"github.com/shopgrid/platform/user-service/internal/command"
	"github.com/shopgrid/platform/user-service/internal/eventhandler"
	"github.com/shopgrid/platform/user-service/internal/handler"
	"github.com/shopgrid/platform/user-service/internal/query"
	"github.com/shopgrid/platform/user-service/internal/repository"
)

const ServiceName = "user-service"

// Deps are the collaborators the user service is assembled from.
type Deps struct {
	Repo      repository.UserRepository
	Cache     *sharedredis.ViewCache[models.UserView] // optional
	Forwarder events.Forwarder
	Logger    *logrus.Logger
	Origins   []string
}

// App is a fully wired user service.
type App struct {
	Commands *cqrs.CommandBus
	Queries  *cqrs.QueryBus
	Events   *events.Bus
	Router   *gin.Engine
}

// New wires repositories, buses, event subscriptions and the HTTP surface.
func New(deps Deps) (*App, error) {
	logger := logging.OrDiscard(deps.Logger)
	fwd := deps.Forwarder
	if fwd == nil {
		fwd = events.NopForwarder{}
	}

	bus := events.NewBus(logger)
	eventhandler.Register(bus, logger, fwd)

	readRepo := repository.NewUserReadRepository(deps.Repo, deps.Cache)
	commands, err := cqrs.NewCommandBus(logger,
		command.NewUserCommandHandlers(deps.Repo, readRepo, bus, logger).Routes()...)
	if err != nil {
		return nil, err
	}
	queries, err := cqrs.NewQueryBus(logger, query.NewUserQueryHandlers(readRepo).Routes()...)
	if err != nil {
		return nil, err
	}

	schema, err := handler.NewUserHandler(commands, queries, logger).Schema()
	if err != nil {
		return nil, err
	}

	router := middleware.NewEngine(logger, deps.Origins)
	graph.Mount(router, schema)
	router.GET("/health", middleware.Health(ServiceName))

	return &App{Commands: commands, Queries: queries, Events: bus, Router: router}, nil
}
