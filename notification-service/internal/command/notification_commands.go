package command

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/shopgrid/platform/notification-service/internal/mailer"
	"github.com/shopgrid/platform/notification-service/internal/repository"
	"github.com/shopgrid/platform/shared/cqrs"
	"github.com/shopgrid/platform/shared/events"
	"github.com/shopgrid/platform/shared/models"
	"github.com/shopgrid/platform/shared/utils"
)

const welcomeSubject = "Welcome to ShopGrid"

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event)
}

type NotificationCommandHandlers struct {
	mailer    mailer.Mailer
	log       repository.NotificationLog
	publisher EventPublisher
	logger    *logrus.Logger
	now       func() time.Time
}

func NewNotificationCommandHandlers(m mailer.Mailer, log repository.NotificationLog, publisher EventPublisher, logger *logrus.Logger) *NotificationCommandHandlers {
	return &NotificationCommandHandlers{
		mailer:    m,
		log:       log,
		publisher: publisher,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (h *NotificationCommandHandlers) Routes() []cqrs.CommandRoute {
	return []cqrs.CommandRoute{
		{Name: cqrs.SendWelcomeEmailCommandName, Handler: cqrs.HandleCommand(h.SendWelcomeEmail)},
	}
}

// SendWelcomeEmail emails a newly registered user. A delivery failure is
// recorded with Delivered=false rather than returned; there is no retry.
func (h *NotificationCommandHandlers) SendWelcomeEmail(ctx context.Context, cmd cqrs.SendWelcomeEmailCommand) (*models.Notification, error) {
	body := fmt.Sprintf("Hi %s,\n\nThanks for signing up. Your account is ready.\n", cmd.FirstName)

	n := &models.Notification{
		ID:        utils.NewID(),
		Channel:   h.mailer.Channel(),
		Recipient: cmd.Email,
		Subject:   welcomeSubject,
		Body:      body,
		Delivered: true,
		CreatedAt: h.now(),
	}
	if err := h.mailer.Send(ctx, cmd.Email, welcomeSubject, body); err != nil {
		n.Delivered = false
		h.logger.WithFields(logrus.Fields{"user_id": cmd.UserID, "error": err.Error()}).Warn("welcome email failed")
	}

	if err := h.log.Append(ctx, n); err != nil {
		return nil, models.Persistence("record notification", err)
	}

	h.publisher.Publish(ctx, events.NewEvent(events.NotificationSent, events.NotificationSentEvent{
		NotificationID: n.ID,
		Recipient:      n.Recipient,
		Channel:        n.Channel,
		Delivered:      n.Delivered,
	}))
	return n, nil
}
