package repository

import (
	"context"

	"github.com/shopgrid/platform/shared/models"
	sharedredis "github.com/shopgrid/platform/shared/redis"
)

// UserReadRepository serves UserView reads. Single-user reads go through the
// Redis view cache when one is configured and fall back to the write store.
type UserReadRepository struct {
	repo  UserRepository
	cache *sharedredis.ViewCache[models.UserView]
}

// NewUserReadRepository builds a read repository. cache may be nil.
func NewUserReadRepository(repo UserRepository, cache *sharedredis.ViewCache[models.UserView]) *UserReadRepository {
	return &UserReadRepository{repo: repo, cache: cache}
}

// GetByID returns the user's view, or nil when the user does not exist.
func (r *UserReadRepository) GetByID(ctx context.Context, id string) (*models.UserView, error) {
	if r.cache != nil {
		if view, ok := r.cache.Get(ctx, id); ok {
			return view, nil
		}
	}

	user, err := r.repo.FindByID(ctx, id)
	if err != nil || user == nil {
		return nil, err
	}

	view := user.ToView()
	r.CacheUserView(ctx, view)
	return view, nil
}

// List returns one page of views in creation order. Pages bypass the cache.
func (r *UserReadRepository) List(ctx context.Context, limit, offset int) ([]*models.UserView, error) {
	users, err := r.repo.FindPage(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	views := make([]*models.UserView, 0, len(users))
	for _, u := range users {
		views = append(views, u.ToView())
	}
	return views, nil
}

// CacheUserView stores or refreshes the cached view.
// Called by the command handlers after every mutation.
func (r *UserReadRepository) CacheUserView(ctx context.Context, view *models.UserView) {
	if r.cache == nil || view == nil {
		return
	}
	r.cache.Set(ctx, view.ID, view)
}

// InvalidateUserView removes the cached view of a deleted user.
func (r *UserReadRepository) InvalidateUserView(ctx context.Context, userID string) {
	if r.cache == nil {
		return
	}
	r.cache.Delete(ctx, userID)
}
