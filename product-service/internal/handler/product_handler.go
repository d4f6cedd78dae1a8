package handler

import (
	"github.com/graphql-go/graphql"
	"github.com/sirupsen/logrus"

	"github.com/shopgrid/platform/shared/cqrs"
	"github.com/shopgrid/platform/shared/graph"
	"github.com/shopgrid/platform/shared/logging"
	"github.com/shopgrid/platform/shared/middleware"
	"github.com/shopgrid/platform/shared/models"
)

type ProductHandler struct {
	commands cqrs.Dispatcher
	queries  cqrs.Asker
	logger   *logrus.Logger
}

type CreateProductRequest struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Description string  `json:"description" validate:"max=2000"`
	Price       float64 `json:"price" validate:"gte=0"`
	Currency    string  `json:"currency" validate:"required,len=3"`
	Stock       int     `json:"stock" validate:"gte=0"`
}

func NewProductHandler(commands cqrs.Dispatcher, queries cqrs.Asker, logger *logrus.Logger) *ProductHandler {
	return &ProductHandler{commands: commands, queries: queries, logger: logging.OrDiscard(logger)}
}

var productType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Product",
	Fields: graphql.Fields{
		"id":          &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"name":        &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"description": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"price":       &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
		"currency":    &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"stock":       &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"createdAt":   &graphql.Field{Type: graphql.NewNonNull(graphql.DateTime)},
		"updatedAt":   &graphql.Field{Type: graphql.NewNonNull(graphql.DateTime)},
	},
})

var createProductInput = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "CreateProductInput",
	Fields: graphql.InputObjectConfigFieldMap{
		"name":        &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		"description": &graphql.InputObjectFieldConfig{Type: graphql.String, DefaultValue: ""},
		"price":       &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
		"currency":    &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		"stock":       &graphql.InputObjectFieldConfig{Type: graphql.Int, DefaultValue: 0},
	},
})

// Schema builds the product subgraph.
func (h *ProductHandler) Schema() (graphql.Schema, error) {
	return graphql.NewSchema(graphql.SchemaConfig{
		Query: graphql.NewObject(graphql.ObjectConfig{
			Name: "Query",
			Fields: graphql.Fields{
				"product": &graphql.Field{
					Type:    productType,
					Args:    graphql.FieldConfigArgument{"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)}},
					Resolve: graph.Resolve(h.logger, h.GetProduct),
				},
				"products": &graphql.Field{
					Type:    graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(productType))),
					Args:    graph.PageArgs(),
					Resolve: graph.Resolve(h.logger, h.GetProducts),
				},
			},
		}),
		Mutation: graphql.NewObject(graphql.ObjectConfig{
			Name: "Mutation",
			Fields: graphql.Fields{
				"createProduct": &graphql.Field{
					Type:    graphql.NewNonNull(productType),
					Args:    graphql.FieldConfigArgument{"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(createProductInput)}},
					Resolve: graph.Resolve(h.logger, h.CreateProduct),
				},
			},
		}),
	})
}

func (h *ProductHandler) CreateProduct(p graphql.ResolveParams) (any, error) {
	in := graph.InputArg(p.Args, "input")
	req := CreateProductRequest{
		Name:        graph.StringArg(in, "name"),
		Description: graph.StringArg(in, "description"),
		Price:       graph.FloatArg(in, "price"),
		Currency:    graph.StringArg(in, "currency"),
		Stock:       graph.IntArg(in, "stock"),
	}
	if err := middleware.Validate(req); err != nil {
		return nil, err
	}

	return cqrs.Dispatch[*models.Product](p.Context, h.commands, cqrs.CreateProductCommand{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Currency:    req.Currency,
		Stock:       req.Stock,
	})
}

func (h *ProductHandler) GetProduct(p graphql.ResolveParams) (any, error) {
	product, err := cqrs.Ask[*models.Product](p.Context, h.queries, cqrs.GetProductQuery{ProductID: graph.StringArg(p.Args, "id")})
	if err != nil || product == nil {
		return nil, err
	}
	return product, nil
}

func (h *ProductHandler) GetProducts(p graphql.ResolveParams) ([]*models.Product, error) {
	return cqrs.Ask[[]*models.Product](p.Context, h.queries, cqrs.GetProductsQuery{
		Limit:  graph.IntArg(p.Args, "limit"),
		Offset: graph.IntArg(p.Args, "offset"),
	})
}
