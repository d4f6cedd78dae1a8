package repository

import (
	"context"
	"errors"

	"github.com/shopgrid/platform/shared/models"
)

var (
	// ErrDuplicate marks a write rejected by the email uniqueness constraint.
	ErrDuplicate = errors.New("unique constraint violated")
	// ErrUnknownField is returned by FindByField for fields that cannot be looked up.
	ErrUnknownField = errors.New("unknown lookup field")
)

// Lookup fields accepted by FindByField.
const (
	FieldID     = "id"
	FieldEmail  = "email"
	FieldStatus = "status"
)

// UserRepository is the write store for users. Find methods return (nil, nil)
// when nothing matches. Implementations must reject a second user with the
// same email with ErrDuplicate and report other failures as *models.PersistenceError.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByField(ctx context.Context, field, value string) (*models.User, error)
	// FindPage returns users in creation order.
	FindPage(ctx context.Context, limit, offset int) ([]*models.User, error)
	UpdateByID(ctx context.Context, id string, patch models.UserPatch) (*models.User, error)
	DeleteByID(ctx context.Context, id string) (bool, error)
}
