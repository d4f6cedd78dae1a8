package query

import (
	"context"

	"github.com/shopgrid/platform/shared/cqrs"
	"github.com/shopgrid/platform/shared/models"
	"github.com/shopgrid/platform/user-service/internal/repository"
)

// UserQueryHandlers reads user views. They never write or publish.
type UserQueryHandlers struct {
	readRepo *repository.UserReadRepository
}

func NewUserQueryHandlers(readRepo *repository.UserReadRepository) *UserQueryHandlers {
	return &UserQueryHandlers{readRepo: readRepo}
}

// Routes is the query registration table of the user service.
func (h *UserQueryHandlers) Routes() []cqrs.QueryRoute {
	return []cqrs.QueryRoute{
		{Name: cqrs.GetUserQueryName, Handler: cqrs.HandleQuery(h.GetUser)},
		{Name: cqrs.GetUsersQueryName, Handler: cqrs.HandleQuery(h.GetUsers)},
	}
}

// GetUser returns nil, not an error, for an unknown id.
func (h *UserQueryHandlers) GetUser(ctx context.Context, q cqrs.GetUserQuery) (*models.UserView, error) {
	return h.readRepo.GetByID(ctx, q.UserID)
}

func (h *UserQueryHandlers) GetUsers(ctx context.Context, q cqrs.GetUsersQuery) ([]*models.UserView, error) {
	limit, offset, err := cqrs.ResolvePage(q.Limit, q.Offset)
	if err != nil {
		return nil, err
	}
	return h.readRepo.List(ctx, limit, offset)
}
