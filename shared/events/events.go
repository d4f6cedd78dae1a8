package events

import "time"

// Event types
const (
	UserCreated = "user.created"
	UserUpdated = "user.updated"
	UserDeleted = "user.deleted"

	ProductCreated = "product.created"

	NotificationSent = "notification.sent"
)

// Stream names
const (
	UserEventsStream         = "user.events"
	ProductEventsStream      = "product.events"
	NotificationEventsStream = "notification.events"
)

// Event is an immutable fact. Timestamp is stamped on publish when left zero.
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

func NewEvent(eventType string, data any) Event {
	return Event{Type: eventType, Timestamp: time.Now().UTC(), Data: data}
}

// User events
type UserCreatedEvent struct {
	UserID    string `json:"userId"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type UserUpdatedEvent struct {
	UserID    string `json:"userId"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Status    string `json:"status"`
}

type UserDeletedEvent struct {
	UserID string `json:"userId"`
}

// Product events
type ProductCreatedEvent struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Currency  string  `json:"currency"`
}

// Notification events
type NotificationSentEvent struct {
	NotificationID string `json:"notificationId"`
	Recipient      string `json:"recipient"`
	Channel        string `json:"channel"`
	Delivered      bool   `json:"delivered"`
}
