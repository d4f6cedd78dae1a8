package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/shopgrid/platform/shared/logging"
)

// Every stream maps to a durable topic exchange; the routing key is the event type.
const exchangeKind = "topic"

func declareExchange(ch *amqp.Channel, name string) error {
	return ch.ExchangeDeclare(name, exchangeKind, true, false, false, false, nil)
}

// RabbitPublisher publishes events to topic exchanges.
type RabbitPublisher struct {
	conn     *amqp.Connection
	mu       sync.Mutex
	ch       *amqp.Channel
	declared map[string]bool
}

func NewRabbitPublisher(url string) (*RabbitPublisher, error) {
	if url == "" {
		return nil, fmt.Errorf("rabbitmq url required")
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	return &RabbitPublisher{conn: conn, ch: ch, declared: make(map[string]bool)}, nil
}

func (p *RabbitPublisher) Publish(ctx context.Context, stream, eventType string, data any) error {
	body, err := encodeEvent(eventType, data)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.declared[stream] {
		if err := declareExchange(p.ch, stream); err != nil {
			return fmt.Errorf("rabbitmq declare exchange %s: %w", stream, err)
		}
		p.declared[stream] = true
	}

	err = p.ch.PublishWithContext(ctx, stream, eventType, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         eventType,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("rabbitmq publish %s: %w", stream, err)
	}
	return nil
}

func (p *RabbitPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// RabbitSubscriber binds a durable queue to a stream's exchange and consumes it.
type RabbitSubscriber struct {
	url      string
	exchange string
	queue    string
	handler  Handler
	logger   *logrus.Logger
}

func NewRabbitSubscriber(url, exchange, queue string, handler Handler, logger *logrus.Logger) *RabbitSubscriber {
	return &RabbitSubscriber{
		url:      url,
		exchange: exchange,
		queue:    queue,
		handler:  handler,
		logger:   logging.OrDiscard(logger),
	}
}

// Start consumes until ctx is cancelled or the connection drops.
func (s *RabbitSubscriber) Start(ctx context.Context) error {
	conn, err := amqp.Dial(s.url)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer ch.Close()

	if err := declareExchange(ch, s.exchange); err != nil {
		return fmt.Errorf("rabbitmq declare exchange %s: %w", s.exchange, err)
	}
	if _, err := ch.QueueDeclare(s.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq declare queue %s: %w", s.queue, err)
	}
	if err := ch.QueueBind(s.queue, "#", s.exchange, false, nil); err != nil {
		return fmt.Errorf("rabbitmq bind queue %s: %w", s.queue, err)
	}

	deliveries, err := ch.Consume(s.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("rabbitmq consume %s: %w", s.queue, err)
	}

	s.logger.WithFields(logrus.Fields{"exchange": s.exchange, "queue": s.queue}).Info("rabbitmq subscriber started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("rabbitmq delivery channel closed")
			}
			s.process(ctx, d)
		}
	}
}

func (s *RabbitSubscriber) process(ctx context.Context, d amqp.Delivery) {
	event, err := decodeEvent(d.Body)
	if err == nil {
		err = s.handler(ctx, event)
	}
	if err != nil {
		// Poison messages are dropped rather than redelivered in a loop.
		s.logger.WithError(err).WithField("routing_key", d.RoutingKey).Error("failed to process message")
		_ = d.Nack(false, false)
		return
	}
	_ = d.Ack(false)
}
