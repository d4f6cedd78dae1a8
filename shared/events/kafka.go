package events

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/shopgrid/platform/shared/logging"
)

// KafkaPublisher produces events to the topic named after the stream, keyed by event type.
type KafkaPublisher struct {
	cl      *kgo.Client
	timeout time.Duration
}

func NewKafkaPublisher(brokers []string, clientID string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers required")
	}
	cl, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ClientID(clientID),
		kgo.AllowAutoTopicCreation(),
		kgo.RecordDeliveryTimeout(publishTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client init: %w", err)
	}
	return &KafkaPublisher{cl: cl, timeout: publishTimeout}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, stream, eventType string, data any) error {
	body, err := encodeEvent(eventType, data)
	if err != nil {
		return err
	}
	rec := &kgo.Record{
		Topic:   stream,
		Key:     []byte(eventType),
		Value:   body,
		Headers: []kgo.RecordHeader{{Key: "event-type", Value: []byte(eventType)}},
	}
	// Without a deadline a down broker would block the caller indefinitely.
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	if err := p.cl.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("kafka produce %s: %w", stream, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	p.cl.Close()
	return nil
}

// KafkaSubscriber consumes a topic as a member of a consumer group.
type KafkaSubscriber struct {
	brokers []string
	group   string
	topic   string
	handler Handler
	logger  *logrus.Logger
}

func NewKafkaSubscriber(brokers []string, group, topic string, handler Handler, logger *logrus.Logger) *KafkaSubscriber {
	return &KafkaSubscriber{
		brokers: brokers,
		group:   group,
		topic:   topic,
		handler: handler,
		logger:  logging.OrDiscard(logger),
	}
}

// Start consumes until ctx is cancelled.
func (s *KafkaSubscriber) Start(ctx context.Context) error {
	cl, err := kgo.NewClient(
		kgo.SeedBrokers(s.brokers...),
		kgo.ConsumerGroup(s.group),
		kgo.ConsumeTopics(s.topic),
	)
	if err != nil {
		return fmt.Errorf("kafka client init: %w", err)
	}
	defer cl.Close()

	s.logger.WithFields(logrus.Fields{"topic": s.topic, "group": s.group}).Info("kafka subscriber started")
	for {
		fetches := cl.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return ctx.Err()
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			s.logger.WithError(err).WithFields(logrus.Fields{"topic": topic, "partition": partition}).Warn("kafka fetch error")
		})
		fetches.EachRecord(func(r *kgo.Record) {
			event, err := decodeEvent(r.Value)
			if err == nil {
				err = s.handler(ctx, event)
			}
			if err != nil {
				s.logger.WithError(err).WithField("offset", r.Offset).Error("failed to process record")
			}
		})
	}
}
