package app

import (
	"context"
	"fmt"

	"github.com/riftstats/riftstats/internal/domain"
	"github.com/riftstats/riftstats/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Log progress on the first match and every ProgressInterval matches after it
const ProgressInterval = 5

type ExtractMatches func(ctx context.Context, puuid string, matchIDs []string) ([]domain.MatchRecord, []domain.Skip)

type matchProvider interface {
	GetMatch(ctx context.Context, routing string, matchID string) (domain.MatchDetails, error)
}

// MatchRecordFromDetails reduces a match to the performance of one participant.
// Returns false with the reason when the match yields no record.
func MatchRecordFromDetails(details domain.MatchDetails, puuid string) (domain.MatchRecord, domain.SkipReason, bool) {
	if details.DurationSeconds < domain.MinMatchDurationSeconds {
		return domain.MatchRecord{}, domain.SkipRemake, false
	}

	participant, ok := details.Participant(puuid)
	if !ok {
		return domain.MatchRecord{}, domain.SkipParticipantMissing, false
	}

	minutes := float64(details.DurationSeconds) / 60
	csTotal := participant.MinionsKilled + participant.NeutralMinionsKilled

	kda := 0.0
	if participant.KDA != nil {
		kda = *participant.KDA
	}

	return domain.MatchRecord{
		MatchID:          details.MatchID,
		GameEndTimestamp: details.GameEndTimestamp,
		DurationSeconds:  details.DurationSeconds,
		Win:              participant.Win,
		Champion:         participant.ChampionName,
		Role:             domain.ParseRole(participant.TeamPosition),
		Kills:            participant.Kills,
		Deaths:           participant.Deaths,
		Assists:          participant.Assists,
		KDA:              kda,
		DamageTotal:      participant.DamageToChampions,
		DPM:              float64(participant.DamageToChampions) / minutes,
		GoldTotal:        participant.GoldEarned,
		GPM:              float64(participant.GoldEarned) / minutes,
		CSTotal:          csTotal,
		CSPerMin:         float64(csTotal) / minutes,
		VisionScore:      participant.VisionScore,
		WardsPlaced:      participant.WardsPlaced,
		WardsKilled:      participant.WardsKilled,
	}, "", true
}

func BuildExtractMatches(provider matchProvider, routing string) (ExtractMatches, error) {
	processedCount, err := otel.Meter("riftstats/app/extract").Int64Counter("app/extract/processed_count")
	if err != nil {
		return nil, fmt.Errorf("failed to create processed count metric: %w", err)
	}

	return func(ctx context.Context, puuid string, matchIDs []string) ([]domain.MatchRecord, []domain.Skip) {
		logger := logging.FromContext(ctx)

		records := []domain.MatchRecord{}
		skips := []domain.Skip{}

		for i, matchID := range matchIDs {
			if i%ProgressInterval == 0 {
				logger.InfoContext(ctx, "Processing match", "index", i+1, "total", len(matchIDs))
			}

			details, err := provider.GetMatch(ctx, routing, matchID)
			if err != nil {
				// NOTE: provider implementations handle their own error reporting
				skips = append(skips, domain.Skip{
					MatchID: matchID,
					Reason:  domain.SkipMatchUnavailable,
					Detail:  err.Error(),
				})
				processedCount.Add(ctx, 1, metric.WithAttributes(attribute.String("result", string(domain.SkipMatchUnavailable))))
				continue
			}

			record, reason, ok := MatchRecordFromDetails(details, puuid)
			if !ok {
				skips = append(skips, domain.Skip{
					MatchID: matchID,
					Reason:  reason,
				})
				processedCount.Add(ctx, 1, metric.WithAttributes(attribute.String("result", string(reason))))
				continue
			}

			records = append(records, record)
			processedCount.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "ok")))
		}

		return records, skips
	}, nil
}
