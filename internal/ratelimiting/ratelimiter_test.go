package ratelimiting_test

import (
	"context"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/riftstats/riftstats/internal/ratelimiting"
	"github.com/stretchr/testify/require"
)

func TestTokenBucketLimiter(t *testing.T) {
	t.Parallel()

	t.Run("burst then refill", func(t *testing.T) {
		t.Parallel()
		synctest.Test(t, func(t *testing.T) {
			start := time.Now()
			l := ratelimiting.NewTokenBucketLimiter(1, 2, time.Now, time.After)

			for _, expected := range []time.Duration{0, 0, time.Second, 2 * time.Second} {
				ran := l.Limit(t.Context(), 0, func(ctx context.Context) {
					require.Equal(t, start.Add(expected), time.Now())
				})
				require.True(t, ran)
			}
		})
	})

	t.Run("rejected requests give their token back", func(t *testing.T) {
		t.Parallel()
		synctest.Test(t, func(t *testing.T) {
			start := time.Now()
			l := ratelimiting.NewTokenBucketLimiter(1, 1, time.Now, time.After)

			require.True(t, l.Limit(t.Context(), 0, func(ctx context.Context) {}))

			ctx, cancel := context.WithTimeout(t.Context(), 500*time.Millisecond)
			defer cancel()
			require.False(t, l.Limit(ctx, 0, mustNotRun(t)))
			require.Equal(t, start, time.Now())

			ran := l.Limit(t.Context(), 0, func(ctx context.Context) {
				require.Equal(t, start.Add(time.Second), time.Now())
			})
			require.True(t, ran)
		})
	})

	t.Run("cancelled operations give their token back", func(t *testing.T) {
		t.Parallel()
		synctest.Test(t, func(t *testing.T) {
			start := time.Now()
			l := ratelimiting.NewTokenBucketLimiter(1, 1, time.Now, time.After)

			require.False(t, l.LimitCancelable(t.Context(), 0, func(ctx context.Context) bool {
				return false
			}))

			require.True(t, l.Limit(t.Context(), 0, func(ctx context.Context) {
				require.Equal(t, start, time.Now())
			}))
		})
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()
		synctest.Test(t, func(t *testing.T) {
			l := ratelimiting.NewTokenBucketLimiter(1, 1, time.Now, time.After)

			ctx, cancel := context.WithCancel(t.Context())
			cancel()
			require.False(t, l.Limit(ctx, 0, mustNotRun(t)))
		})
	})
}

func TestChain(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		start := time.Now()
		l := ratelimiting.Chain(
			ratelimiting.NewWindowLimiter(3, 10*time.Second, time.Now, time.After),
			ratelimiting.NewTokenBucketLimiter(2, 2, time.Now, time.After),
		)

		var mu sync.Mutex
		startedAt := []time.Duration{}
		for range 4 {
			ran := l.Limit(t.Context(), 0, func(ctx context.Context) {
				mu.Lock()
				defer mu.Unlock()
				startedAt = append(startedAt, time.Since(start))
			})
			require.True(t, ran)
		}

		require.Equal(t, []time.Duration{
			0,
			0,
			500 * time.Millisecond,
			10 * time.Second,
		}, startedAt)
	})

	t.Run("empty chain runs the operation", func(t *testing.T) {
		t.Parallel()

		called := false
		require.True(t, ratelimiting.Chain().Limit(t.Context(), 0, func(ctx context.Context) {
			called = true
		}))
		require.True(t, called)
	})

	t.Run("inner rejection is reported", func(t *testing.T) {
		t.Parallel()
		synctest.Test(t, func(t *testing.T) {
			inner := ratelimiting.NewWindowLimiter(1, time.Minute, time.Now, time.After)
			l := ratelimiting.Chain(
				ratelimiting.NewTokenBucketLimiter(100, 100, time.Now, time.After),
				inner,
			)

			require.True(t, l.Limit(t.Context(), 0, func(ctx context.Context) {}))

			ctx, cancel := context.WithTimeout(t.Context(), time.Second)
			defer cancel()
			require.False(t, l.Limit(ctx, 0, mustNotRun(t)))
		})
	})
}

func TestKeyedLimiter(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		start := time.Now()
		keyed, stop := ratelimiting.NewKeyedLimiter(func() ratelimiting.RequestLimiter {
			return ratelimiting.NewWindowLimiter(1, time.Minute, time.Now, time.After)
		})
		defer stop()

		require.Same(t, keyed.For("europe.api.riotgames.com"), keyed.For("europe.api.riotgames.com"))

		require.True(t, keyed.Limit(t.Context(), "europe.api.riotgames.com", 0, func(ctx context.Context) {}))
		require.True(t, keyed.Limit(t.Context(), "kr.api.riotgames.com", 0, func(ctx context.Context) {}))
		require.Equal(t, start, time.Now())

		ran := keyed.Limit(t.Context(), "europe.api.riotgames.com", 0, func(ctx context.Context) {
			require.Equal(t, start.Add(time.Minute), time.Now())
		})
		require.True(t, ran)
	})
}
