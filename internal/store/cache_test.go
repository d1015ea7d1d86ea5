package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"sales-dashboard-service/internal/filter"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type countingOptions struct {
	calls  map[filter.Field]int
	values []string
	err    error
}

func (c *countingOptions) DistinctValues(_ context.Context, field filter.Field) ([]string, error) {
	if c.calls == nil {
		c.calls = map[filter.Field]int{}
	}
	c.calls[field]++
	return c.values, c.err
}

func newTestCache(t *testing.T, next OptionStorer) (*miniredis.Miniredis, *CachedOptions) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, NewCachedOptions(next, rdb, time.Minute, zaptest.NewLogger(t))
}

func TestCachedOptions_ReadThrough(t *testing.T) {
	next := &countingOptions{values: []string{"East", "North"}}
	mr, cache := newTestCache(t, next)
	ctx := context.Background()

	got, err := cache.DistinctValues(ctx, filter.FieldRegion)
	require.NoError(t, err)
	assert.Equal(t, []string{"East", "North"}, got)
	assert.Equal(t, 1, next.calls[filter.FieldRegion])
	assert.True(t, mr.Exists("sales:options:region"))
	assert.Equal(t, time.Minute, mr.TTL("sales:options:region"))

	got, err = cache.DistinctValues(ctx, filter.FieldRegion)
	require.NoError(t, err)
	assert.Equal(t, []string{"East", "North"}, got)
	assert.Equal(t, 1, next.calls[filter.FieldRegion], "second read should be served from redis")
}

func TestCachedOptions_ExpiredEntryReloads(t *testing.T) {
	next := &countingOptions{values: []string{"UPI"}}
	mr, cache := newTestCache(t, next)
	ctx := context.Background()

	_, err := cache.DistinctValues(ctx, filter.FieldPaymentMethod)
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)

	_, err = cache.DistinctValues(ctx, filter.FieldPaymentMethod)
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls[filter.FieldPaymentMethod])
}

func TestCachedOptions_CorruptEntryFallsThrough(t *testing.T) {
	next := &countingOptions{values: []string{"Beauty"}}
	mr, cache := newTestCache(t, next)
	require.NoError(t, mr.Set("sales:options:category", "not-json"))

	got, err := cache.DistinctValues(context.Background(), filter.FieldCategory)
	require.NoError(t, err)
	assert.Equal(t, []string{"Beauty"}, got)
	assert.Equal(t, 1, next.calls[filter.FieldCategory])
}

func TestCachedOptions_RedisDownFallsThrough(t *testing.T) {
	next := &countingOptions{values: []string{"organic"}}
	mr, cache := newTestCache(t, next)
	mr.Close()

	got, err := cache.DistinctValues(context.Background(), filter.FieldTags)
	require.NoError(t, err)
	assert.Equal(t, []string{"organic"}, got)
}

func TestCachedOptions_StoreErrorIsNotCached(t *testing.T) {
	storeErr := errors.New("store down")
	next := &countingOptions{err: storeErr}
	mr, cache := newTestCache(t, next)

	_, err := cache.DistinctValues(context.Background(), filter.FieldRegion)
	assert.ErrorIs(t, err, storeErr)
	assert.False(t, mr.Exists("sales:options:region"))
}

func TestCachedOptions_Invalidate(t *testing.T) {
	next := &countingOptions{values: []string{"North"}}
	mr, cache := newTestCache(t, next)
	ctx := context.Background()

	_, err := cache.DistinctValues(ctx, filter.FieldRegion)
	require.NoError(t, err)
	require.NoError(t, cache.Invalidate(ctx))
	assert.False(t, mr.Exists("sales:options:region"))
}
