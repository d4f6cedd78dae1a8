package consumer

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/shopgrid/platform/shared/cqrs"
	"github.com/shopgrid/platform/shared/events"
)

// UserEvents translates user events arriving from the broker into commands.
// Event types other than user.created are acknowledged and ignored.
func UserEvents(commands cqrs.Dispatcher, logger *logrus.Logger) events.Handler {
	return func(ctx context.Context, event events.Event) error {
		if event.Type != events.UserCreated {
			logger.WithField("event_type", event.Type).Debug("ignoring user event")
			return nil
		}

		var data events.UserCreatedEvent
		if err := event.Decode(&data); err != nil {
			return err
		}
		if data.UserID == "" || data.Email == "" {
			return fmt.Errorf("user.created event without user id or email")
		}

		_, err := commands.Dispatch(ctx, cqrs.SendWelcomeEmailCommand{
			UserID:    data.UserID,
			Email:     data.Email,
			FirstName: data.FirstName,
			LastName:  data.LastName,
		})
		return err
	}
}
