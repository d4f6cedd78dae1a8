package eventhandler

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/shopgrid/platform/shared/events"
)

// Subscription names, as they appear in event bus logs.
const (
	LogUserCreatedName         = "log-user-created"
	ForwardToNotificationsName = "forward-to-notifications"
)

// LogUserCreated records every new user in the service log.
func LogUserCreated(logger *logrus.Logger) events.Handler {
	return func(ctx context.Context, event events.Event) error {
		data, ok := event.Data.(events.UserCreatedEvent)
		if !ok {
			return fmt.Errorf("unexpected %s payload %T", event.Type, event.Data)
		}
		logger.WithFields(logrus.Fields{
			"user_id":    data.UserID,
			"email":      data.Email,
			"event_time": event.Timestamp,
		}).Info("user registered")
		return nil
	}
}

// ForwardToNotifications relays a user event to the notification service
// over the configured transport.
func ForwardToNotifications(fwd events.Forwarder) events.Handler {
	return func(ctx context.Context, event events.Event) error {
		if err := fwd.Publish(ctx, events.UserEventsStream, event.Type, event.Data); err != nil {
			return fmt.Errorf("forward %s: %w", event.Type, err)
		}
		return nil
	}
}

// Register subscribes the user service's event handlers to bus. Logging and
// forwarding of user.created are separate subscriptions so that a broker
// outage never suppresses the log line.
func Register(bus *events.Bus, logger *logrus.Logger, fwd events.Forwarder) {
	bus.Subscribe(events.UserCreated, LogUserCreatedName, LogUserCreated(logger))
	bus.Subscribe(events.UserCreated, ForwardToNotificationsName, ForwardToNotifications(fwd))
	bus.Subscribe(events.UserUpdated, ForwardToNotificationsName, ForwardToNotifications(fwd))
	bus.Subscribe(events.UserDeleted, ForwardToNotificationsName, ForwardToNotifications(fwd))
}
