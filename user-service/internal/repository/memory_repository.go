package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopgrid/platform/shared/models"
)

// MemoryUserRepository keeps users in process memory. The mutex makes the
// email check and the insert one atomic step.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]models.User
	now   func() time.Time
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID: make(map[string]models.User),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, models.Persistence("create user", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[user.ID]; exists {
		return nil, models.Persistence("create user", fmt.Errorf("id %s already exists", user.ID))
	}
	if r.emailTaken(user.Email, "") {
		return nil, fmt.Errorf("create user %s: %w", user.Email, ErrDuplicate)
	}

	stored := *user
	r.byID[stored.ID] = stored
	r.order = append(r.order, stored.ID)
	return &stored, nil
}

func (r *MemoryUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *MemoryUserRepository) FindByField(ctx context.Context, field, value string) (*models.User, error) {
	match, err := fieldMatcher(field)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.order {
		if u := r.byID[id]; match(&u, value) {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *MemoryUserRepository) FindPage(ctx context.Context, limit, offset int) ([]*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]*models.User, 0, limit)
	for i := offset; i < len(r.order) && len(users) < limit; i++ {
		u := r.byID[r.order[i]]
		users = append(users, &u)
	}
	return users, nil
}

func (r *MemoryUserRepository) UpdateByID(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	if patch.Email != nil && r.emailTaken(*patch.Email, id) {
		return nil, fmt.Errorf("update user %s: %w", id, ErrDuplicate)
	}

	applyPatch(&u, patch)
	u.UpdatedAt = r.now()
	r.byID[id] = u
	return &u, nil
}

func (r *MemoryUserRepository) DeleteByID(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return false, nil
	}
	delete(r.byID, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true, nil
}

// emailTaken must be called with mu held.
func (r *MemoryUserRepository) emailTaken(email, exceptID string) bool {
	for id, u := range r.byID {
		if id != exceptID && u.Email == email {
			return true
		}
	}
	return false
}

func fieldMatcher(field string) (func(u *models.User, v string) bool, error) {
	switch field {
	case FieldID:
		return func(u *models.User, v string) bool { return u.ID == v }, nil
	case FieldEmail:
		return func(u *models.User, v string) bool { return u.Email == v }, nil
	case FieldStatus:
		return func(u *models.User, v string) bool { return u.Status == v }, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
}

func applyPatch(u *models.User, patch models.UserPatch) {
	if patch.Email != nil {
		u.Email = *patch.Email
	}
	if patch.FirstName != nil {
		u.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		u.LastName = *patch.LastName
	}
	if patch.Status != nil {
		u.Status = *patch.Status
	}
}
