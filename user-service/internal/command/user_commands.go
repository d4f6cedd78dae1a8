package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/shopgrid/platform/shared/cqrs"
	"github.com/shopgrid/platform/shared/events"
	"github.com/shopgrid/platform/shared/logging"
	"github.com/shopgrid/platform/shared/models"
	"github.com/shopgrid/platform/shared/utils"
	"github.com/shopgrid/platform/user-service/internal/repository"
)

// EventPublisher is the part of events.Bus the handlers need.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event)
}

// UserCommandHandlers writes users to the repository, keeps the view cache
// current and publishes a user event after every committed change.
type UserCommandHandlers struct {
	repo      repository.UserRepository
	readRepo  *repository.UserReadRepository
	publisher EventPublisher
	logger    *logrus.Logger

	hashPassword func(string) (string, error)
	newID        func() string
	now          func() time.Time
}

func NewUserCommandHandlers(
	repo repository.UserRepository,
	readRepo *repository.UserReadRepository,
	publisher EventPublisher,
	logger *logrus.Logger,
) *UserCommandHandlers {
	return &UserCommandHandlers{
		repo:         repo,
		readRepo:     readRepo,
		publisher:    publisher,
		logger:       logging.OrDiscard(logger),
		hashPassword: utils.HashPassword,
		newID:        utils.NewID,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Routes is the command registration table of the user service.
func (h *UserCommandHandlers) Routes() []cqrs.CommandRoute {
	return []cqrs.CommandRoute{
		{Name: cqrs.CreateUserCommandName, Handler: cqrs.HandleCommand(h.CreateUser)},
		{Name: cqrs.UpdateUserCommandName, Handler: cqrs.HandleCommand(h.UpdateUser)},
		{Name: cqrs.DeleteUserCommandName, Handler: cqrs.HandleCommand(h.DeleteUser)},
	}
}

// CreateUser registers a new active user. The returned view never carries the
// password hash. No event is published unless the insert committed.
func (h *UserCommandHandlers) CreateUser(ctx context.Context, cmd cqrs.CreateUserCommand) (*models.UserView, error) {
	existing, err := h.repo.FindByField(ctx, repository.FieldEmail, cmd.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.ErrDuplicateEmail
	}

	passwordHash, err := h.hashPassword(cmd.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := h.now()
	user, err := h.repo.Create(ctx, &models.User{
		ID:           h.newID(),
		Email:        cmd.Email,
		PasswordHash: passwordHash,
		FirstName:    cmd.FirstName,
		LastName:     cmd.LastName,
		Status:       models.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		// Lost a race with a concurrent create for the same email.
		return nil, models.ErrDuplicateEmail
	}
	if err != nil {
		return nil, err
	}

	view := user.ToView()
	h.readRepo.CacheUserView(ctx, view)
	h.publisher.Publish(ctx, events.NewEvent(events.UserCreated, events.UserCreatedEvent{
		UserID:    user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}))
	h.logger.WithField("user_id", user.ID).Info("user created")
	return view, nil
}

// UpdateUser applies a partial update. It returns nil when the user does not exist.
func (h *UserCommandHandlers) UpdateUser(ctx context.Context, cmd cqrs.UpdateUserCommand) (*models.UserView, error) {
	patch := models.UserPatch{
		Email:     cmd.Email,
		FirstName: cmd.FirstName,
		LastName:  cmd.LastName,
		Status:    cmd.Status,
	}
	if patch.Empty() {
		return h.readRepo.GetByID(ctx, cmd.UserID)
	}

	user, err := h.repo.UpdateByID(ctx, cmd.UserID, patch)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, models.ErrDuplicateEmail
	}
	if err != nil || user == nil {
		return nil, err
	}

	view := user.ToView()
	h.readRepo.CacheUserView(ctx, view)
	h.publisher.Publish(ctx, events.NewEvent(events.UserUpdated, events.UserUpdatedEvent{
		UserID:    user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Status:    user.Status,
	}))
	return view, nil
}

// DeleteUser removes the user and reports whether anything was deleted.
func (h *UserCommandHandlers) DeleteUser(ctx context.Context, cmd cqrs.DeleteUserCommand) (bool, error) {
	deleted, err := h.repo.DeleteByID(ctx, cmd.UserID)
	if err != nil || !deleted {
		return false, err
	}

	h.readRepo.InvalidateUserView(ctx, cmd.UserID)
	h.publisher.Publish(ctx, events.NewEvent(events.UserDeleted, events.UserDeletedEvent{UserID: cmd.UserID}))
	return true, nil
}
