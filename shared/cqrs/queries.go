package cqrs

import (
	"fmt"

	"github.com/shopgrid/platform/shared/models"
)

// Query is an intent to read state. Handlers must not mutate state or publish events.
type Query interface {
	QueryName() string
}

const (
	GetUserQueryName          = "user.get"
	GetUsersQueryName         = "user.list"
	GetProductQueryName       = "product.get"
	GetProductsQueryName      = "product.list"
	GetNotificationsQueryName = "notification.list"
)

// Page defaults shared by every list query.
const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// ---------- User queries ----------

// GetUserQuery fetches a single user by ID. A missing user is an empty result, not an error.
type GetUserQuery struct {
	UserID string
}

func (GetUserQuery) QueryName() string { return GetUserQueryName }

// GetUsersQuery fetches a page of users in creation order.
type GetUsersQuery struct {
	Limit  int
	Offset int
}

func (GetUsersQuery) QueryName() string { return GetUsersQueryName }

// ---------- Product queries ----------

type GetProductQuery struct {
	ProductID string
}

func (GetProductQuery) QueryName() string { return GetProductQueryName }

type GetProductsQuery struct {
	Limit  int
	Offset int
}

func (GetProductsQuery) QueryName() string { return GetProductsQueryName }

// ---------- Notification queries ----------

type GetNotificationsQuery struct {
	Limit  int
	Offset int
}

func (GetNotificationsQuery) QueryName() string { return GetNotificationsQueryName }

// ResolvePage applies the list defaults. A zero limit means DefaultLimit and
// limits above MaxLimit are capped. Negative values are validation errors.
func ResolvePage(limit, offset int) (int, int, error) {
	if limit < 0 || offset < 0 {
		return 0, 0, fmt.Errorf("limit and offset must not be negative: %w", models.ErrValidation)
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	return min(limit, MaxLimit), offset, nil
}
