// Package cache keeps a short-lived Redis copy of the public upcoming
// schedule, the one endpoint anonymous clients poll. It is optional: a nil
// cache disables caching without branching at call sites.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"aulabook/internal/events"
)

const upcomingKey = "aulabook:schedule:upcoming"

// ScheduleCache caches the serialized upcoming-schedule response.
type ScheduleCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// New creates a schedule cache over the given Redis client.
func New(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *ScheduleCache {
	return &ScheduleCache{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "cache").Logger(),
	}
}

// GetUpcoming returns the cached response payload, if any.
func (c *ScheduleCache) GetUpcoming(ctx context.Context) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	payload, err := c.client.Get(ctx, upcomingKey).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.Warn().Err(err).Msg("cache read failed")
		return nil, false
	}
	return payload, true
}

// SetUpcoming stores the response payload. Failures are logged and
// otherwise ignored; the cache is best-effort.
func (c *ScheduleCache) SetUpcoming(ctx context.Context, payload []byte) {
	if c == nil {
		return
	}
	if err := c.client.Set(ctx, upcomingKey, payload, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("cache write failed")
	}
}

// InvalidateUpcoming drops the cached payload.
func (c *ScheduleCache) InvalidateUpcoming(ctx context.Context) {
	if c == nil {
		return
	}
	if err := c.client.Del(ctx, upcomingKey).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("cache invalidation failed")
	}
}

// Subscribe invalidates the cache on every lifecycle event that can change
// the approved schedule.
func (c *ScheduleCache) Subscribe(bus *events.EventBus) {
	if c == nil {
		return
	}
	invalidate := func(events.Event) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		c.InvalidateUpcoming(ctx)
	}
	for _, eventType := range []string{
		events.TypeReservationApproved,
		events.TypeReservationCancelled,
		events.TypeReservationsClosed,
		events.TypeReservationDeleted,
	} {
		bus.Subscribe(eventType, invalidate)
	}
}
