package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/shopgrid/platform/shared/logging"
)

// Handler reacts to one event. A returned error is logged and contained.
type Handler func(ctx context.Context, event Event) error

// Bus is an in-process publish/subscribe hub for domain events.
//
// Publish never waits for subscribers: each call hands the event to a
// goroutine that invokes the subscribers in subscription order. A failing or
// panicking subscriber is logged and the remaining subscribers still run.
// Nothing is queued or replayed; an event with no subscribers is dropped.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]subscription
	logger   *logrus.Logger
	inflight sync.WaitGroup
	closed   bool
}

type subscription struct {
	name    string
	handler Handler
}

func NewBus(logger *logrus.Logger) *Bus {
	return &Bus{
		handlers: make(map[string][]subscription),
		logger:   logging.OrDiscard(logger),
	}
}

// Subscribe appends h to the subscribers of eventType. name labels the
// subscriber in logs and may repeat.
func (b *Bus) Subscribe(eventType, name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], subscription{name: name, handler: h})
}

// Subscribers returns how many handlers are subscribed to eventType.
func (b *Bus) Subscribers(eventType string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[eventType])
}

// Publish schedules delivery of event to the current subscribers of its type
// and returns immediately. Cancelling ctx after Publish returns does not
// cancel delivery.
func (b *Bus) Publish(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	// inflight.Add happens under the read lock so it cannot overlap Close.
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		b.logger.WithField("event", event.Type).Warn("event dropped, bus closed")
		return
	}
	subs := append([]subscription(nil), b.handlers[event.Type]...)
	if len(subs) > 0 {
		b.inflight.Add(1)
	}
	b.mu.RUnlock()

	if len(subs) == 0 {
		b.logger.WithField("event", event.Type).Debug("event dropped, no subscribers")
		return
	}

	detached := context.WithoutCancel(ctx)
	go func() {
		defer b.inflight.Done()
		for _, s := range subs {
			b.deliver(detached, s, event)
		}
	}()
}

// Wait blocks until every event published so far has been delivered. It
// must not run concurrently with Publish; use Close at shutdown.
func (b *Bus) Wait() {
	b.inflight.Wait()
}

// Close stops accepting events and waits for in-flight deliveries. Events
// published after Close, including by running subscribers, are dropped.
func (b *Bus) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.inflight.Wait()
}

func (b *Bus) deliver(ctx context.Context, s subscription, event Event) {
	fields := logrus.Fields{"event": event.Type, "subscriber": s.name}

	defer func() {
		if r := recover(); r != nil {
			b.logger.WithFields(fields).WithField("panic", fmt.Sprint(r)).Error("event handler panicked")
		}
	}()

	if err := s.handler(ctx, event); err != nil {
		b.logger.WithFields(fields).WithError(err).Error("event handler failed")
	}
}
