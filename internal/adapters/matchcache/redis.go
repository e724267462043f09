package matchcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/riftstats/riftstats/internal/logging"
	"github.com/riftstats/riftstats/internal/reporting"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Finished matches never change, the TTL only bounds memory use
const DefaultTTL = 30 * 24 * time.Hour

const keyPrefix = "riftstats:match:"

type redisMatchCache struct {
	client *redis.Client
	ttl    time.Duration

	lookupCount metric.Int64Counter
}

func NewRedisMatchCache(ctx context.Context, redisURL string, ttl time.Duration) (*redisMatchCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return NewRedisMatchCacheWithClient(client, ttl)
}

func NewRedisMatchCacheWithClient(client *redis.Client, ttl time.Duration) (*redisMatchCache, error) {
	lookupCount, err := otel.Meter("riftstats/matchcache").Int64Counter("matchcache/lookup_count")
	if err != nil {
		return nil, fmt.Errorf("failed to create lookup count metric: %w", err)
	}

	return &redisMatchCache{
		client:      client,
		ttl:         ttl,
		lookupCount: lookupCount,
	}, nil
}

func matchKey(matchID string) string {
	return keyPrefix + matchID
}

// Get reports a miss on any redis failure so the caller falls back to the API
func (c *redisMatchCache) Get(ctx context.Context, matchID string) ([]byte, bool) {
	data, err := c.client.Get(ctx, matchKey(matchID)).Bytes()
	if errors.Is(err, redis.Nil) {
		c.lookupCount.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "miss")))
		return nil, false
	}
	if err != nil {
		err := fmt.Errorf("failed to get match from redis: %w", err)
		logging.FromContext(ctx).ErrorContext(ctx, "Match cache lookup failed", "matchID", matchID, "error", err.Error())
		reporting.Report(ctx, err, map[string]string{"matchID": matchID})
		c.lookupCount.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "error")))
		return nil, false
	}

	c.lookupCount.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "hit")))
	return data, true
}

func (c *redisMatchCache) Set(ctx context.Context, matchID string, data []byte) {
	if err := c.client.Set(ctx, matchKey(matchID), data, c.ttl).Err(); err != nil {
		err := fmt.Errorf("failed to store match in redis: %w", err)
		logging.FromContext(ctx).ErrorContext(ctx, "Match cache store failed", "matchID", matchID, "error", err.Error())
		reporting.Report(ctx, err, map[string]string{"matchID": matchID})
	}
}

func (c *redisMatchCache) Close() error {
	return c.client.Close()
}
