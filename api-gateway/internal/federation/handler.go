package federation

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/shopgrid/platform/shared/graph"
)

// Gateway serves the composed graph over HTTP.
type Gateway struct {
	supergraph *Supergraph
	planner    *Planner
	executor   *Executor
	logger     *logrus.Logger
}

func NewGateway(sg *Supergraph, client *Client, logger *logrus.Logger) *Gateway {
	return &Gateway{
		supergraph: sg,
		planner:    NewPlanner(sg),
		executor:   NewExecutor(client, logger),
		logger:     logger,
	}
}

// Register mounts the gateway routes on r.
func (g *Gateway) Register(r gin.IRoutes) {
	r.POST("/graphql", g.GraphQL)
	r.GET("/schema", g.Schema)
}

func (g *Gateway) GraphQL(c *gin.Context) {
	var req graph.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []any{
			fieldError{Message: "request body must be JSON", Extensions: map[string]any{"code": CodeBadRequest}},
		}})
		return
	}

	plan, err := g.planner.Plan(req)
	if err != nil {
		var reqErr *RequestError
		if errors.As(err, &reqErr) {
			c.JSON(http.StatusBadRequest, gin.H{"errors": []any{reqErr.fieldError()}})
			return
		}
		g.logger.WithError(err).Error("failed to plan operation")
		c.JSON(http.StatusInternalServerError, gin.H{"errors": []any{
			fieldError{Message: "internal server error", Extensions: map[string]any{"code": "INTERNAL_SERVER_ERROR"}},
		}})
		return
	}

	ctx := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
	c.JSON(http.StatusOK, g.executor.Execute(ctx, plan))
}

// Schema reports which subgraph owns which root field.
func (g *Gateway) Schema(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"subgraphs": g.supergraph.Summary()})
}
