package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/riftstats/riftstats/internal/domain"
	"github.com/riftstats/riftstats/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type CollectSnapshot func(ctx context.Context, handles []domain.PlayerHandle, since time.Time) (domain.Snapshot, []domain.Skip)

type collectMetricsCollection struct {
	skipCount   metric.Int64Counter
	recordCount metric.Int64Counter
}

func setupCollectMetrics(meter metric.Meter) (collectMetricsCollection, error) {
	skipCount, err := meter.Int64Counter("app/collect/skip_count")
	if err != nil {
		return collectMetricsCollection{}, fmt.Errorf("failed to create skip count metric: %w", err)
	}

	recordCount, err := meter.Int64Counter("app/collect/record_count")
	if err != nil {
		return collectMetricsCollection{}, fmt.Errorf("failed to create record count metric: %w", err)
	}

	return collectMetricsCollection{
		skipCount:   skipCount,
		recordCount: recordCount,
	}, nil
}

// BuildCollectSnapshot runs resolve, list and extract for one player at a time.
// Unresolvable players are left out of the snapshot. Players without usable
// matches are present with an empty list.
func BuildCollectSnapshot(
	resolveIdentity ResolveIdentity,
	listMatchesSince ListMatchesSince,
	extractMatches ExtractMatches,
	nowFunc func() time.Time,
) (CollectSnapshot, error) {
	const name = "riftstats/app/collect"

	metrics, err := setupCollectMetrics(otel.Meter(name))
	if err != nil {
		return nil, fmt.Errorf("failed to set up metrics: %w", err)
	}
	tracer := otel.Tracer(name)

	collectPlayer := func(ctx context.Context, handle domain.PlayerHandle, since time.Time) ([]domain.MatchRecord, []domain.Skip, bool) {
		ctx, span := tracer.Start(ctx, "CollectSnapshot.player", trace.WithAttributes(attribute.String("player", handle.String())))
		defer span.End()

		player := handle.String()
		logger := logging.FromContext(ctx)
		skips := []domain.Skip{}

		puuid, err := resolveIdentity(ctx, handle)
		if err != nil {
			logger.WarnContext(ctx, "Could not resolve player, leaving them out", "error", err.Error())
			return nil, append(skips, domain.Skip{
				Player: player,
				Reason: domain.SkipIdentityUnresolved,
				Detail: err.Error(),
			}), false
		}

		matchIDs, err := listMatchesSince(ctx, puuid, since)
		if errors.Is(err, domain.ErrIncompleteMatchList) {
			logger.WarnContext(ctx, "Match history is incomplete", "error", err.Error(), "matchCount", len(matchIDs))
			skips = append(skips, domain.Skip{
				Player: player,
				Reason: domain.SkipMatchListIncomplete,
				Detail: err.Error(),
			})
		} else if err != nil {
			logger.WarnContext(ctx, "Could not list matches", "error", err.Error())
			skips = append(skips, domain.Skip{
				Player: player,
				Reason: domain.SkipMatchListIncomplete,
				Detail: err.Error(),
			})
			matchIDs = nil
		}

		if len(matchIDs) == 0 {
			logger.InfoContext(ctx, "No matches since start date")
			return []domain.MatchRecord{}, append(skips, domain.Skip{
				Player: player,
				Reason: domain.SkipNoMatches,
			}), true
		}

		records, extractSkips := extractMatches(ctx, puuid, matchIDs)
		for _, skip := range extractSkips {
			skip.Player = player
			skips = append(skips, skip)
		}

		if len(records) == 0 {
			skips = append(skips, domain.Skip{
				Player: player,
				Reason: domain.SkipNoValidMatches,
			})
		}

		return records, skips, true
	}

	return func(ctx context.Context, handles []domain.PlayerHandle, since time.Time) (domain.Snapshot, []domain.Skip) {
		ctx, span := tracer.Start(ctx, "CollectSnapshot")
		defer span.End()

		dataset := make(domain.PlayerDataset, len(handles))
		allSkips := []domain.Skip{}

		for _, handle := range handles {
			if ctx.Err() != nil {
				break
			}

			playerCtx := logging.AddMetaToContext(ctx, slog.String("player", handle.String()))
			logger := logging.FromContext(playerCtx)
			logger.InfoContext(playerCtx, "Collecting player")

			records, skips, resolved := collectPlayer(playerCtx, handle, since)
			if resolved {
				dataset[handle.String()] = records
			}
			allSkips = append(allSkips, skips...)

			for _, skip := range skips {
				metrics.skipCount.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", string(skip.Reason))))
			}
			metrics.recordCount.Add(ctx, int64(len(records)))

			attrs := []any{
				slog.Bool("resolved", resolved),
				slog.Int("records", len(records)),
				slog.Int("skips", len(skips)),
			}
			if summary, ok := SummarizeRecords(records); ok {
				attrs = append(attrs, slog.Any("summary", summary))
			}
			logger.InfoContext(playerCtx, "Collected player", attrs...)
		}

		snapshot := AssembleSnapshot(dataset, nowFunc)

		summary := []any{slog.Int("players", len(snapshot.Players)), slog.Int("skips", len(allSkips))}
		for reason, count := range domain.CountSkips(allSkips) {
			summary = append(summary, slog.Int("skipped_"+string(reason), count))
		}
		logging.FromContext(ctx).InfoContext(ctx, "Collected snapshot", summary...)

		return snapshot, allSkips
	}, nil
}
