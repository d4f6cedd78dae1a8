package events

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/shopgrid/platform/shared/config"
)

// Forwarder carries events out of the process to other services.
type Forwarder interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
	Close() error
}

// Consumer feeds events from another service into a Handler until ctx ends.
type Consumer interface {
	Start(ctx context.Context) error
}

// NopForwarder accepts and discards every event.
type NopForwarder struct{}

func (NopForwarder) Publish(context.Context, string, string, any) error { return nil }
func (NopForwarder) Close() error                                         { return nil }

// NewForwarder builds the Forwarder selected by cfg.Transport. rdb is only
// consulted for the redis transport.
func NewForwarder(cfg config.Broker, rdb *goredis.Client, clientName string) (Forwarder, error) {
	switch cfg.Transport {
	case "", config.TransportNone:
		return NopForwarder{}, nil
	case config.TransportRedis:
		if rdb == nil {
			return nil, fmt.Errorf("redis transport selected but redis is not configured")
		}
		return NewPublisher(rdb), nil
	case config.TransportNATS:
		return NewNATSPublisher(cfg.NATSURL, clientName)
	case config.TransportRabbitMQ:
		return NewRabbitPublisher(cfg.RabbitMQURL)
	case config.TransportKafka:
		return NewKafkaPublisher(cfg.KafkaBrokers, clientName)
	default:
		return nil, fmt.Errorf("unknown event transport %q", cfg.Transport)
	}
}

// ConsumerOptions identify the reader of a stream.
type ConsumerOptions struct {
	Stream   string
	Group    string
	Consumer string
	Handler  Handler
	Logger   *logrus.Logger
}

// NewConsumer builds the Consumer matching cfg.Transport.
func NewConsumer(cfg config.Broker, rdb *goredis.Client, opts ConsumerOptions) (Consumer, error) {
	switch cfg.Transport {
	case config.TransportRedis:
		if rdb == nil {
			return nil, fmt.Errorf("redis transport selected but redis is not configured")
		}
		return NewSubscriber(rdb, SubscriberConfig{
			Group:    opts.Group,
			Consumer: opts.Consumer,
			Stream:   opts.Stream,
			Handler:  opts.Handler,
			Logger:   opts.Logger,
		}), nil
	case config.TransportNATS:
		return NewNATSSubscriber(cfg.NATSURL, opts.Consumer, opts.Stream, opts.Group, opts.Handler, opts.Logger), nil
	case config.TransportRabbitMQ:
		return NewRabbitSubscriber(cfg.RabbitMQURL, opts.Stream, opts.Group, opts.Handler, opts.Logger), nil
	case config.TransportKafka:
		return NewKafkaSubscriber(cfg.KafkaBrokers, opts.Group, opts.Stream, opts.Handler, opts.Logger), nil
	case "", config.TransportNone:
		return nil, fmt.Errorf("no event transport configured")
	default:
		return nil, fmt.Errorf("unknown event transport %q", cfg.Transport)
	}
}
