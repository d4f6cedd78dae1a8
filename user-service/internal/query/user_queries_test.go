package query

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopgrid/platform/shared/cqrs"
	"github.com/shopgrid/platform/shared/models"
	"github.com/shopgrid/platform/user-service/internal/repository"
)

func seededHandlers(t *testing.T, n int) *UserQueryHandlers {
	t.Helper()
	repo := repository.NewMemoryUserRepository()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= n; i++ {
		_, err := repo.Create(t.Context(), &models.User{
			ID:        fmt.Sprintf("usr-%d", i),
			Email:     fmt.Sprintf("user%d@example.com", i),
			FirstName: "User",
			LastName:  fmt.Sprint(i),
			Status:    models.UserStatusActive,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			UpdatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return NewUserQueryHandlers(repository.NewUserReadRepository(repo, nil))
}

func TestGetUserMissingIsEmptyResult(t *testing.T) {
	h := seededHandlers(t, 1)

	view, err := h.GetUser(t.Context(), cqrs.GetUserQuery{UserID: "does-not-exist"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if view != nil {
		t.Fatalf("expected nil, got %+v", view)
	}

	view, err = h.GetUser(t.Context(), cqrs.GetUserQuery{UserID: "usr-1"})
	if err != nil || view == nil || view.Email != "user1@example.com" {
		t.Fatalf("GetUser = %+v, %v", view, err)
	}
}

func TestGetUsersPaging(t *testing.T) {
	h := seededHandlers(t, 5)

	tests := []struct {
		name    string
		query   cqrs.GetUsersQuery
		wantIDs []string
		wantErr error
	}{
		{name: "limit 2 offset 0", query: cqrs.GetUsersQuery{Limit: 2}, wantIDs: []string{"usr-1", "usr-2"}},
		{name: "limit 2 offset 4", query: cqrs.GetUsersQuery{Limit: 2, Offset: 4}, wantIDs: []string{"usr-5"}},
		{name: "defaults", query: cqrs.GetUsersQuery{}, wantIDs: []string{"usr-1", "usr-2", "usr-3", "usr-4", "usr-5"}},
		{name: "negative offset", query: cqrs.GetUsersQuery{Offset: -1}, wantErr: models.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			views, err := h.GetUsers(t.Context(), tt.query)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if len(views) != len(tt.wantIDs) {
				t.Fatalf("got %d users, want %d", len(views), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if views[i].ID != id {
					t.Fatalf("position %d = %s, want %s", i, views[i].ID, id)
				}
			}
		})
	}
}

func TestRoutesRegisterOnQueryBus(t *testing.T) {
	h := seededHandlers(t, 3)
	bus, err := cqrs.NewQueryBus(nil, h.Routes()...)
	if err != nil {
		t.Fatalf("NewQueryBus: %v", err)
	}

	views, err := cqrs.Ask[[]*models.UserView](t.Context(), bus, cqrs.GetUsersQuery{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if len(views) != 2 || views[0].ID != "usr-2" {
		t.Fatalf("views = %+v", views)
	}
}
