package ratelimiting

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/time/rate"
)

type RequestLimiter interface {
	Limit(ctx context.Context, minOperationTime time.Duration, operation func(ctx context.Context)) bool
	// LimitCancelable is like Limit, but the operation reports whether it actually ran.
	// An operation returning false is not counted against the limit.
	LimitCancelable(ctx context.Context, minOperationTime time.Duration, operation func(ctx context.Context) bool) bool
}

func alwaysRan(operation func(ctx context.Context)) func(ctx context.Context) bool {
	return func(ctx context.Context) bool {
		operation(ctx)
		return true
	}
}

type RefillPerSecond float64
type BurstSize int

type tokenBucketLimiter struct {
	limiter   *rate.Limiter
	nowFunc   func() time.Time
	afterFunc func(time.Duration) <-chan time.Time
}

func NewTokenBucketLimiter(
	refillPerSecond RefillPerSecond,
	burstSize BurstSize,
	nowFunc func() time.Time,
	afterFunc func(time.Duration) <-chan time.Time,
) *tokenBucketLimiter {
	return &tokenBucketLimiter{
		limiter:   rate.NewLimiter(rate.Limit(refillPerSecond), int(burstSize)),
		nowFunc:   nowFunc,
		afterFunc: afterFunc,
	}
}

func (l *tokenBucketLimiter) Limit(ctx context.Context, minOperationTime time.Duration, operation func(ctx context.Context)) bool {
	return l.LimitCancelable(ctx, minOperationTime, alwaysRan(operation))
}

func (l *tokenBucketLimiter) LimitCancelable(ctx context.Context, minOperationTime time.Duration, operation func(ctx context.Context) bool) bool {
	if ctx.Err() != nil {
		return false
	}

	now := l.nowFunc()
	reservation := l.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return false
	}

	wait := reservation.DelayFrom(now)
	if !fitsBeforeDeadline(ctx, now, wait+minOperationTime) {
		reservation.CancelAt(now)
		return false
	}

	if wait > 0 {
		select {
		case <-ctx.Done():
			reservation.CancelAt(l.nowFunc())
			return false
		case <-l.afterFunc(wait):
		}
	}

	if !operation(ctx) {
		reservation.CancelAt(l.nowFunc())
		return false
	}
	return true
}

type chainedLimiter struct {
	limiters []RequestLimiter
}

// Chain runs the operation only once every limiter has admitted it.
// Limiters are entered in order, so the first one is held the longest.
func Chain(limiters ...RequestLimiter) RequestLimiter {
	return &chainedLimiter{limiters: limiters}
}

func (c *chainedLimiter) Limit(ctx context.Context, minOperationTime time.Duration, operation func(ctx context.Context)) bool {
	return limitAll(ctx, c.limiters, minOperationTime, alwaysRan(operation))
}

func (c *chainedLimiter) LimitCancelable(ctx context.Context, minOperationTime time.Duration, operation func(ctx context.Context) bool) bool {
	return limitAll(ctx, c.limiters, minOperationTime, operation)
}

// limitAll nests the limiters so a refusal further in is handed back out as a cancelled operation
func limitAll(ctx context.Context, limiters []RequestLimiter, minOperationTime time.Duration, operation func(ctx context.Context) bool) bool {
	if len(limiters) == 0 {
		return operation(ctx)
	}

	return limiters[0].LimitCancelable(ctx, minOperationTime, func(ctx context.Context) bool {
		return limitAll(ctx, limiters[1:], minOperationTime, operation)
	})
}

// KeyedLimiter hands out one RequestLimiter per key, e.g. per API host.
type KeyedLimiter struct {
	limiters   *ttlcache.Cache[string, RequestLimiter]
	newLimiter func() RequestLimiter
}

func NewKeyedLimiter(newLimiter func() RequestLimiter) (*KeyedLimiter, func()) {
	limiters := ttlcache.New[string, RequestLimiter](
		ttlcache.WithTTL[string, RequestLimiter](30 * time.Minute),
	)
	go limiters.Start()

	return &KeyedLimiter{
		limiters:   limiters,
		newLimiter: newLimiter,
	}, limiters.Stop
}

func (k *KeyedLimiter) For(key string) RequestLimiter {
	if item := k.limiters.Get(key); item != nil {
		return item.Value()
	}
	item, _ := k.limiters.GetOrSet(key, k.newLimiter())
	return item.Value()
}

func (k *KeyedLimiter) Limit(ctx context.Context, key string, minOperationTime time.Duration, operation func(ctx context.Context)) bool {
	return k.For(key).Limit(ctx, minOperationTime, operation)
}
