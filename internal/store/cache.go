package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"sales-dashboard-service/internal/filter"
	"sales-dashboard-service/internal/metrics"
)

const optionsKeyPrefix = "sales:options:"

// CachedOptions is a read-through Redis cache in front of an OptionStorer.
// Redis failures are logged and fall through to the underlying store.
type CachedOptions struct {
	next   OptionStorer
	rdb    redis.Cmdable
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedOptions wraps next with a cache whose entries expire after ttl.
func NewCachedOptions(next OptionStorer, rdb redis.Cmdable, ttl time.Duration, logger *zap.Logger) *CachedOptions {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedOptions{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

func (c *CachedOptions) DistinctValues(ctx context.Context, field filter.Field) ([]string, error) {
	key := optionsKeyPrefix + string(field)

	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var values []string
		jsonErr := json.Unmarshal(raw, &values)
		if jsonErr == nil {
			metrics.OptionsCacheRequests.WithLabelValues(string(field), "hit").Inc()
			return values, nil
		}
		metrics.OptionsCacheRequests.WithLabelValues(string(field), "error").Inc()
		c.logger.Warn("Discarding corrupt filter option cache entry", zap.String("key", key), zap.Error(jsonErr))
	case errors.Is(err, redis.Nil):
		metrics.OptionsCacheRequests.WithLabelValues(string(field), "miss").Inc()
	default:
		metrics.OptionsCacheRequests.WithLabelValues(string(field), "error").Inc()
		c.logger.Warn("Filter option cache read failed", zap.String("key", key), zap.Error(err))
	}

	values, err := c.next.DistinctValues(ctx, field)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(values); err == nil {
		if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.logger.Warn("Filter option cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return values, nil
}

// Invalidate drops every cached option list.
func (c *CachedOptions) Invalidate(ctx context.Context) error {
	fields := []filter.Field{filter.FieldRegion, filter.FieldCategory, filter.FieldPaymentMethod, filter.FieldTags, filter.FieldGender}
	keys := make([]string, 0, len(fields))
	for _, f := range fields {
		keys = append(keys, optionsKeyPrefix+string(f))
	}
	return c.rdb.Del(ctx, keys...).Err()
}
