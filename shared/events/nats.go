package events

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"github.com/shopgrid/platform/shared/logging"
)

func dialNATS(url, name string) (*nats.Conn, error) {
	if url == "" {
		return nil, fmt.Errorf("nats url required")
	}
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return nc, nil
}

// publishTimeout bounds a publish whose context carries no deadline.
const publishTimeout = 5 * time.Second

// NATSPublisher publishes events on the subject named after the stream.
type NATSPublisher struct {
	nc      *nats.Conn
	timeout time.Duration
}

func NewNATSPublisher(url, name string) (*NATSPublisher, error) {
	nc, err := dialNATS(url, name)
	if err != nil {
		return nil, err
	}
	return &NATSPublisher{nc: nc, timeout: publishTimeout}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, stream, eventType string, data any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := encodeEvent(eventType, data)
	if err != nil {
		return err
	}

	msg := &nats.Msg{Subject: stream, Data: body, Header: nats.Header{}}
	msg.Header.Set("event-type", eventType)
	if err := p.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("nats publish %s: %w", stream, err)
	}

	// FlushWithContext rejects contexts without a deadline.
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	if err := p.nc.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("nats flush %s: %w", stream, err)
	}
	return nil
}

func (p *NATSPublisher) Close() error {
	if p.nc != nil && !p.nc.IsClosed() {
		_ = p.nc.Drain()
	}
	return nil
}

// NATSSubscriber consumes a subject as a member of a queue group.
type NATSSubscriber struct {
	url     string
	name    string
	subject string
	queue   string
	handler Handler
	logger  *logrus.Logger
}

func NewNATSSubscriber(url, name, subject, queue string, handler Handler, logger *logrus.Logger) *NATSSubscriber {
	return &NATSSubscriber{
		url:     url,
		name:    name,
		subject: subject,
		queue:   queue,
		handler: handler,
		logger:  logging.OrDiscard(logger),
	}
}

// Start consumes until ctx is cancelled.
func (s *NATSSubscriber) Start(ctx context.Context) error {
	nc, err := dialNATS(s.url, s.name)
	if err != nil {
		return err
	}
	defer nc.Close()

	sub, err := nc.QueueSubscribe(s.subject, s.queue, func(m *nats.Msg) {
		event, err := decodeEvent(m.Data)
		if err != nil {
			s.logger.WithError(err).WithField("subject", m.Subject).Error("failed to decode message")
			return
		}
		if err := s.handler(ctx, event); err != nil {
			s.logger.WithError(err).WithField("event", event.Type).Error("failed to process message")
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe %s: %w", s.subject, err)
	}

	s.logger.WithFields(logrus.Fields{"subject": s.subject, "queue": s.queue}).Info("nats subscriber started")
	<-ctx.Done()
	_ = sub.Drain()
	return ctx.Err()
}
