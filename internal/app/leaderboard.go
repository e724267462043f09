package app

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/riftstats/riftstats/internal/domain"
	"github.com/riftstats/riftstats/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const LeaderboardSize = 100

const UnknownPlayerName = "Unknown Player"

const rankedSoloQueue = "RANKED_SOLO_5x5"

type BuildLeaderboard func(ctx context.Context, regions []domain.Region) (domain.LeaderboardSnapshot, []domain.Skip)

type leagueProvider interface {
	GetChallengerLeague(ctx context.Context, platform string, queue string) (domain.League, error)
	GetSummonerPUUID(ctx context.Context, platform string, summonerID string) (string, error)
}

// Winrate is a percentage rounded to one decimal, 0 without games
func Winrate(wins, losses int) float64 {
	total := wins + losses
	if total == 0 {
		return 0
	}
	return math.Round(float64(wins)/float64(total)*1000) / 10
}

// TopEntries sorts by league points, highest first, keeping ties in ladder order
func TopEntries(entries []domain.LeagueEntry, n int) []domain.LeagueEntry {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b domain.LeagueEntry) int {
		return cmp.Compare(b.LeaguePoints, a.LeaguePoints)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func BuildBuildLeaderboard(
	provider leagueProvider,
	resolveHandle ResolveHandle,
	routingForPlatform func(platform string) string,
	nowFunc func() time.Time,
) BuildLeaderboard {
	tracer := otel.Tracer("riftstats/app/leaderboard")

	entryName := func(ctx context.Context, platform string, entry domain.LeagueEntry) string {
		routing := routingForPlatform(platform)

		puuid := entry.PUUID
		if puuid == "" && entry.SummonerID != "" {
			var err error
			puuid, err = provider.GetSummonerPUUID(ctx, platform, entry.SummonerID)
			if err != nil {
				return UnknownPlayerName
			}
		}
		if puuid == "" {
			return UnknownPlayerName
		}

		handle, err := resolveHandle(ctx, routing, puuid)
		if err != nil {
			return UnknownPlayerName
		}
		return handle.String()
	}

	buildRegion := func(ctx context.Context, region domain.Region) ([]domain.LeaderboardEntry, error) {
		ctx, span := tracer.Start(ctx, "BuildLeaderboard.region", trace.WithAttributes(attribute.String("region", region.Code)))
		defer span.End()

		league, err := provider.GetChallengerLeague(ctx, region.Platform, rankedSoloQueue)
		if err != nil {
			// NOTE: provider implementations handle their own error reporting
			return nil, fmt.Errorf("could not get challenger league for %s: %w", region.Code, err)
		}

		top := TopEntries(league.Entries, LeaderboardSize)

		entries := make([]domain.LeaderboardEntry, 0, len(top))
		for i, entry := range top {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("cancelled while naming leaderboard entries: %w", ctx.Err())
			}
			entries = append(entries, domain.LeaderboardEntry{
				Rank:    i + 1,
				Name:    entryName(ctx, region.Platform, entry),
				LP:      entry.LeaguePoints,
				Winrate: Winrate(entry.Wins, entry.Losses),
				Wins:    entry.Wins,
				Losses:  entry.Losses,
				Tier:    league.Tier,
			})
		}

		return entries, nil
	}

	return func(ctx context.Context, regions []domain.Region) (domain.LeaderboardSnapshot, []domain.Skip) {
		ctx, span := tracer.Start(ctx, "BuildLeaderboard")
		defer span.End()

		byRegion := make(map[string][]domain.LeaderboardEntry, len(regions))
		skips := []domain.Skip{}

		for _, region := range regions {
			regionCtx := logging.AddMetaToContext(ctx, slog.String("region", region.Code))
			logger := logging.FromContext(regionCtx)

			entries, err := buildRegion(regionCtx, region)
			if err != nil {
				logger.WarnContext(regionCtx, "Skipping leaderboard region", "error", err.Error())
				skips = append(skips, domain.Skip{
					Player: region.Code,
					Reason: domain.SkipLeagueUnavailable,
					Detail: err.Error(),
				})
				continue
			}

			byRegion[region.Code] = entries
			logger.InfoContext(regionCtx, "Built leaderboard region", "entries", len(entries))
		}

		return domain.LeaderboardSnapshot{
			GeneratedAt: nowFunc(),
			Regions:     byRegion,
		}, skips
	}
}
