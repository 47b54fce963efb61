package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/SebastianMoseres/Praxable/internal/models"
)

const (
	cacheKeyPrefix = "praxable:busy:"

	// DefaultFetchTimeout bounds a shared upstream fetch
	DefaultFetchTimeout = 15 * time.Second
)

// ErrCacheMiss is returned by a Cache when the key is absent
var ErrCacheMiss = errors.New("cache miss")

// Cache is the byte store backing CachedSource
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// RedisCache implements Cache on a Redis client
type RedisCache struct {
	client *redis.Client
}

var _ Cache = (*RedisCache)(nil)

// NewRedisCache wraps client
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Get returns the value for key or ErrCacheMiss
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return val, err
}

// Set stores value with an expiry
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// Delete removes keys
func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	return c.client.Del(ctx, keys...).Err()
}

// CachedSource caches a calendar's busy intervals per day. Concurrent misses
// for the same day share a single upstream fetch. Cache failures are logged
// and fall through to the upstream calendar.
type CachedSource struct {
	upstream     Calendar
	cache        Cache
	ttl          time.Duration
	location     *time.Location
	fetchTimeout time.Duration
	group        singleflight.Group
	logger       *zap.Logger
}

var _ Calendar = (*CachedSource)(nil)

// CachedSourceOption configures a CachedSource
type CachedSourceOption func(*CachedSource)

// WithFetchTimeout bounds each shared upstream fetch
func WithFetchTimeout(d time.Duration) CachedSourceOption {
	return func(c *CachedSource) {
		if d > 0 {
			c.fetchTimeout = d
		}
	}
}

// NewCachedSource wraps upstream with cache. Days are keyed in loc, the
// user's calendar location.
func NewCachedSource(upstream Calendar, cache Cache, ttl time.Duration, loc *time.Location, logger *zap.Logger, opts ...CachedSourceOption) *CachedSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	c := &CachedSource{
		upstream:     upstream,
		cache:        cache,
		ttl:          ttl,
		location:     loc,
		fetchTimeout: DefaultFetchTimeout,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *CachedSource) cacheKey(t time.Time) string {
	return cacheKeyPrefix + t.In(c.location).Format(time.DateOnly)
}

// BusyIntervals returns the cached intervals for day, fetching them on a miss
func (c *CachedSource) BusyIntervals(ctx context.Context, day time.Time) ([]models.BusyInterval, error) {
	key := c.cacheKey(day)

	if data, err := c.cache.Get(ctx, key); err == nil {
		var intervals []models.BusyInterval
		if err := json.Unmarshal(data, &intervals); err == nil {
			for i := range intervals {
				intervals[i].Start = intervals[i].Start.In(day.Location())
				intervals[i].End = intervals[i].End.In(day.Location())
			}
			return intervals, nil
		}
		c.logger.Warn("busy_cache_corrupt", zap.String("key", key))
	} else if !errors.Is(err, ErrCacheMiss) {
		c.logger.Warn("busy_cache_read_failed", zap.String("key", key), zap.Error(err))
	}

	// The flight outlives any single caller, so it gets its own deadline.
	v, err, shared := c.group.Do(key, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
		defer cancel()

		intervals, err := c.upstream.BusyIntervals(fetchCtx, day)
		if err != nil {
			return nil, err
		}
		c.store(fetchCtx, key, intervals)
		return intervals, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch busy intervals: %w", err)
	}
	if shared {
		c.logger.Debug("busy_fetch_shared", zap.String("key", key))
	}

	intervals := v.([]models.BusyInterval)
	out := make([]models.BusyInterval, len(intervals))
	copy(out, intervals)
	return out, nil
}

func (c *CachedSource) store(ctx context.Context, key string, intervals []models.BusyInterval) {
	data, err := json.Marshal(intervals)
	if err != nil {
		c.logger.Warn("busy_cache_encode_failed", zap.Error(err))
		return
	}
	if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("busy_cache_write_failed", zap.String("key", key), zap.Error(err))
	}
}

// AddEvent creates the event upstream and invalidates the cached days it
// touches, resolved in the calendar location.
func (c *CachedSource) AddEvent(ctx context.Context, event models.CalendarEvent) (*models.CalendarEvent, error) {
	created, err := c.upstream.AddEvent(ctx, event)
	if err != nil {
		return nil, err
	}

	keys := []string{}
	for _, ts := range []string{event.Start, event.End} {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			keys = append(keys, c.cacheKey(t))
		}
	}
	if len(keys) > 0 {
		if err := c.cache.Delete(ctx, keys...); err != nil {
			c.logger.Warn("busy_cache_invalidate_failed", zap.Strings("keys", keys), zap.Error(err))
		}
	}
	return created, nil
}
