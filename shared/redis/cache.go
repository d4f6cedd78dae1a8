package redis

import (
	"context"
	"encoding/json"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/shopgrid/platform/shared/logging"
)

// ViewCache is a JSON-backed Redis cache for read model projections of type T.
// A zero TTL stores keys without expiry.
type ViewCache[T any] struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
	logger *logrus.Logger
}

// NewViewCache creates a ViewCache whose keys are prefix + ":" + id.
func NewViewCache[T any](client *goredis.Client, prefix string, ttl time.Duration, logger *logrus.Logger) *ViewCache[T] {
	return &ViewCache[T]{client: client, prefix: prefix, ttl: ttl, logger: logging.OrDiscard(logger)}
}

func (c *ViewCache[T]) key(id string) string {
	return c.prefix + ":" + id
}

// Get returns (nil, false) on a miss, a transport error, or an undecodable entry.
func (c *ViewCache[T]) Get(ctx context.Context, id string) (*T, bool) {
	data, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err != nil {
		if err != goredis.Nil {
			c.logger.WithFields(logrus.Fields{"key": c.key(id), "error": err.Error()}).Warn("view cache read failed")
		}
		return nil, false
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		c.logger.WithFields(logrus.Fields{"key": c.key(id), "error": err.Error()}).Warn("view cache entry is corrupt")
		return nil, false
	}
	return &v, true
}

// Set stores value under id. Write failures are logged, not returned.
func (c *ViewCache[T]) Set(ctx context.Context, id string, value *T) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.WithFields(logrus.Fields{"key": c.key(id), "error": err.Error()}).Error("view cache marshal failed")
		return
	}
	if err := c.client.Set(ctx, c.key(id), data, c.ttl).Err(); err != nil {
		c.logger.WithFields(logrus.Fields{"key": c.key(id), "error": err.Error()}).Warn("view cache write failed")
	}
}

// Delete evicts id.
func (c *ViewCache[T]) Delete(ctx context.Context, id string) {
	if err := c.client.Del(ctx, c.key(id)).Err(); err != nil {
		c.logger.WithFields(logrus.Fields{"key": c.key(id), "error": err.Error()}).Warn("view cache delete failed")
	}
}
