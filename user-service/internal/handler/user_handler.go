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

// UserHandler turns GraphQL operations into commands and queries.
type UserHandler struct {
	commands cqrs.Dispatcher
	queries  cqrs.Asker
	logger   *logrus.Logger
}

type CreateUserRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"required,max=100"`
}

type UpdateUserRequest struct {
	Email     *string `json:"email" validate:"omitempty,email"`
	FirstName *string `json:"firstName" validate:"omitempty,min=1,max=100"`
	LastName  *string `json:"lastName" validate:"omitempty,min=1,max=100"`
	Status    *string `json:"status" validate:"omitempty,oneof=active disabled"`
}

func NewUserHandler(commands cqrs.Dispatcher, queries cqrs.Asker, logger *logrus.Logger) *UserHandler {
	return &UserHandler{commands: commands, queries: queries, logger: logging.OrDiscard(logger)}
}

var userType = graphql.NewObject(graphql.ObjectConfig{
	Name:        "User",
	Description: "A registered customer. The password hash is never exposed.",
	Fields: graphql.Fields{
		"id":        &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"email":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"firstName": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"lastName":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"status":    &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"createdAt": &graphql.Field{Type: graphql.NewNonNull(graphql.DateTime)},
		"updatedAt": &graphql.Field{Type: graphql.NewNonNull(graphql.DateTime)},
	},
})

var createUserInput = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "CreateUserInput",
	Fields: graphql.InputObjectConfigFieldMap{
		"email":     &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		"password":  &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		"firstName": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		"lastName":  &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
	},
})

var updateUserInput = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "UpdateUserInput",
	Fields: graphql.InputObjectConfigFieldMap{
		"email":     &graphql.InputObjectFieldConfig{Type: graphql.String},
		"firstName": &graphql.InputObjectFieldConfig{Type: graphql.String},
		"lastName":  &graphql.InputObjectFieldConfig{Type: graphql.String},
		"status":    &graphql.InputObjectFieldConfig{Type: graphql.String},
	},
})

// Schema builds the user subgraph.
func (h *UserHandler) Schema() (graphql.Schema, error) {
	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"user": &graphql.Field{
				Type: userType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: graph.Resolve(h.logger, h.GetUser),
			},
			"users": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(userType))),
				Args:    graph.PageArgs(),
				Resolve: graph.Resolve(h.logger, h.GetUsers),
			},
		},
	})

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"createUser": &graphql.Field{
				Type: graphql.NewNonNull(userType),
				Args: graphql.FieldConfigArgument{
					"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(createUserInput)},
				},
				Resolve: graph.Resolve(h.logger, h.CreateUser),
			},
			"updateUser": &graphql.Field{
				Type: userType,
				Args: graphql.FieldConfigArgument{
					"id":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(updateUserInput)},
				},
				Resolve: graph.Resolve(h.logger, h.UpdateUser),
			},
			"deleteUser": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Boolean),
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: graph.Resolve(h.logger, h.DeleteUser),
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{Query: query, Mutation: mutation})
}

func (h *UserHandler) CreateUser(p graphql.ResolveParams) (any, error) {
	in := graph.InputArg(p.Args, "input")
	req := CreateUserRequest{
		Email:     graph.StringArg(in, "email"),
		Password:  graph.StringArg(in, "password"),
		FirstName: graph.StringArg(in, "firstName"),
		LastName:  graph.StringArg(in, "lastName"),
	}
	if err := middleware.Validate(req); err != nil {
		return nil, err
	}

	return cqrs.Dispatch[*models.UserView](p.Context, h.commands, cqrs.CreateUserCommand{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
}

func (h *UserHandler) UpdateUser(p graphql.ResolveParams) (any, error) {
	in := graph.InputArg(p.Args, "input")
	req := UpdateUserRequest{
		Email:     graph.OptionalString(in, "email"),
		FirstName: graph.OptionalString(in, "firstName"),
		LastName:  graph.OptionalString(in, "lastName"),
		Status:    graph.OptionalString(in, "status"),
	}
	if err := middleware.Validate(req); err != nil {
		return nil, err
	}

	view, err := cqrs.Dispatch[*models.UserView](p.Context, h.commands, cqrs.UpdateUserCommand{
		UserID:    graph.StringArg(p.Args, "id"),
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Status:    req.Status,
	})
	if err != nil || view == nil {
		return nil, err
	}
	return view, nil
}

func (h *UserHandler) DeleteUser(p graphql.ResolveParams) (bool, error) {
	return cqrs.Dispatch[bool](p.Context, h.commands, cqrs.DeleteUserCommand{
		UserID: graph.StringArg(p.Args, "id"),
	})
}

func (h *UserHandler) GetUser(p graphql.ResolveParams) (any, error) {
	view, err := cqrs.Ask[*models.UserView](p.Context, h.queries, cqrs.GetUserQuery{
		UserID: graph.StringArg(p.Args, "id"),
	})
	if err != nil || view == nil {
		return nil, err
	}
	return view, nil
}

func (h *UserHandler) GetUsers(p graphql.ResolveParams) ([]*models.UserView, error) {
	return cqrs.Ask[[]*models.UserView](p.Context, h.queries, cqrs.GetUsersQuery{
		Limit:  graph.IntArg(p.Args, "limit"),
		Offset: graph.IntArg(p.Args, "offset"),
	})
}
