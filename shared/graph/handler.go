package graph

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/graphql-go/graphql"
	gqlerrors "github.com/graphql-go/graphql/gqlerrors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// Request is the JSON body of a GraphQL POST.
type Request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

// Handler executes POSTed operations against schema.
func Handler(schema graphql.Schema) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req Request
		if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Query) == "" {
			c.JSON(http.StatusBadRequest, graphql.Result{
				Errors: []gqlerrors.FormattedError{gqlerrors.NewFormattedError("request body must be JSON with a non-empty query")},
			})
			return
		}

		ctx := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		res := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        ctx,
		})
		c.JSON(http.StatusOK, res)
	}
}

// Mount registers the handler at /graphql and /api/graphql.
func Mount(r gin.IRoutes, schema graphql.Schema) {
	h := Handler(schema)
	r.POST("/graphql", h)
	r.POST("/api/graphql", h)
}
