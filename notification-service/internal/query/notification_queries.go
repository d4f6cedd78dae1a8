package query

import (
	"context"

	"github.com/shopgrid/platform/notification-service/internal/repository"
	"github.com/shopgrid/platform/shared/cqrs"
	"github.com/shopgrid/platform/shared/models"
)

type NotificationQueryHandlers struct {
	log repository.NotificationLog
}

func NewNotificationQueryHandlers(log repository.NotificationLog) *NotificationQueryHandlers {
	return &NotificationQueryHandlers{log: log}
}

func (h *NotificationQueryHandlers) Routes() []cqrs.QueryRoute {
	return []cqrs.QueryRoute{
		{Name: cqrs.GetNotificationsQueryName, Handler: cqrs.HandleQuery(h.GetNotifications)},
	}
}

func (h *NotificationQueryHandlers) GetNotifications(ctx context.Context, q cqrs.GetNotificationsQuery) ([]*models.Notification, error) {
	limit, offset, err := cqrs.ResolvePage(q.Limit, q.Offset)
	if err != nil {
		return nil, err
	}
	return h.log.FindPage(ctx, limit, offset)
}
