package app

import (
	"context"
	"fmt"
	"time"

	"github.com/riftstats/riftstats/internal/domain"
	"github.com/riftstats/riftstats/internal/logging"
)

const matchIDPageSize = 100

type ListMatchesSince func(ctx context.Context, puuid string, since time.Time) ([]string, error)

type matchIDProvider interface {
	GetMatchIDs(ctx context.Context, routing string, puuid string, startTime int64, start int, count int) ([]string, error)
}

// BuildListMatchesSince pages through the match history of a player, newest first.
// When a page fails the ids gathered so far are returned along with an error
// wrapping domain.ErrIncompleteMatchList.
func BuildListMatchesSince(provider matchIDProvider, routing string) ListMatchesSince {
	return func(ctx context.Context, puuid string, since time.Time) ([]string, error) {
		logger := logging.FromContext(ctx)
		startTime := since.Unix()

		matchIDs := []string{}
		for start := 0; ; start += matchIDPageSize {
			page, err := provider.GetMatchIDs(ctx, routing, puuid, startTime, start, matchIDPageSize)
			if err != nil {
				// NOTE: provider implementations handle their own error reporting
				return matchIDs, fmt.Errorf("%w: page at %d failed: %w", domain.ErrIncompleteMatchList, start, err)
			}

			matchIDs = append(matchIDs, page...)
			logger.InfoContext(ctx, "Fetched match id page", "start", start, "pageSize", len(page), "total", len(matchIDs))

			if len(page) < matchIDPageSize {
				return matchIDs, nil
			}
		}
	}
}
