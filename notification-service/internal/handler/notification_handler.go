package handler

import (
	"github.com/graphql-go/graphql"
	"github.com/sirupsen/logrus"

	"github.com/shopgrid/platform/shared/cqrs"
	"github.com/shopgrid/platform/shared/graph"
	"github.com/shopgrid/platform/shared/models"
)

type NotificationHandler struct {
	queries cqrs.Asker
	logger  *logrus.Logger
}

func NewNotificationHandler(queries cqrs.Asker, logger *logrus.Logger) *NotificationHandler {
	return &NotificationHandler{queries: queries, logger: logger}
}

var notificationType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Notification",
	Fields: graphql.Fields{
		"id":        &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"channel":   &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"recipient": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"subject":   &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"delivered": &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
		"createdAt": &graphql.Field{Type: graphql.NewNonNull(graphql.DateTime)},
	},
})

// Schema builds the read-only notification subgraph.
func (h *NotificationHandler) Schema() (graphql.Schema, error) {
	return graphql.NewSchema(graphql.SchemaConfig{
		Query: graphql.NewObject(graphql.ObjectConfig{
			Name: "Query",
			Fields: graphql.Fields{
				"notifications": &graphql.Field{
					Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(notificationType))),
					Args: graph.PageArgs(),
					Resolve: graph.Resolve(h.logger, func(p graphql.ResolveParams) ([]*models.Notification, error) {
						return cqrs.Ask[[]*models.Notification](p.Context, h.queries, cqrs.GetNotificationsQuery{
							Limit:  graph.IntArg(p.Args, "limit"),
							Offset: graph.IntArg(p.Args, "offset"),
						})
					}),
				},
			},
		}),
	})
}
