package repository

import (
	"context"
	"sync"

	"github.com/shopgrid/platform/shared/models"
)

// NotificationLog is an append-only record of sent notifications.
type NotificationLog interface {
	Append(ctx context.Context, n *models.Notification) error
	FindPage(ctx context.Context, limit, offset int) ([]*models.Notification, error)
}

// MemoryNotificationLog keeps notifications in process memory, oldest first.
type MemoryNotificationLog struct {
	mu    sync.RWMutex
	items []models.Notification
}

func NewMemoryNotificationLog() *MemoryNotificationLog {
	return &MemoryNotificationLog{}
}

func (l *MemoryNotificationLog) Append(ctx context.Context, n *models.Notification) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append(l.items, *n)
	return nil
}

func (l *MemoryNotificationLog) FindPage(ctx context.Context, limit, offset int) ([]*models.Notification, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]*models.Notification, 0, limit)
	for i := offset; i < len(l.items) && len(out) < limit; i++ {
		n := l.items[i]
		out = append(out, &n)
	}
	return out, nil
}
