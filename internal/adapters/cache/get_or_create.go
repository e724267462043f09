package cache

import (
	"context"
	"fmt"

	"github.com/riftstats/riftstats/internal/logging"
)

// GetOrCreate returns the cached value for key, calling create on a miss.
// Failed creations are not cached. Returns data, created, error.
func GetOrCreate[T any](ctx context.Context, cache Cache[T], key string, create func() (T, error)) (T, bool, error) {
	// Release the claim if create fails so later callers can try again
	claimed := false
	set := false
	defer func() {
		if claimed && !set {
			cache.delete(key)
		}
	}()

	for {
		result := cache.getOrClaim(key)

		if result.claimed {
			claimed = true

			logging.FromContext(ctx).DebugContext(ctx, "Cache lookup", "key", key, "cache", "miss")

			data, err := create()
			if err != nil {
				var empty T
				return empty, false, fmt.Errorf("failed to create cache entry: %w", err)
			}

			cache.set(key, data)
			set = true

			return data, true, nil
		}

		if result.valid {
			logging.FromContext(ctx).DebugContext(ctx, "Cache lookup", "key", key, "cache", "hit")
			return result.data, false, nil
		}

		if err := ctx.Err(); err != nil {
			var empty T
			return empty, false, fmt.Errorf("stopped waiting for cache entry: %w", err)
		}
		cache.wait()
	}
}
