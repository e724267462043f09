package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/riftstats/riftstats/internal/domain"
	"github.com/riftstats/riftstats/internal/logging"
	"github.com/riftstats/riftstats/internal/reporting"
)

type PublishSnapshot func(ctx context.Context, snapshot domain.Snapshot) error

type PublishLeaderboard func(ctx context.Context, snapshot domain.LeaderboardSnapshot) error

type snapshotWriter interface {
	SaveSnapshot(ctx context.Context, snapshot domain.Snapshot) error
	Path() string
}

type leaderboardWriter interface {
	SaveLeaderboard(ctx context.Context, snapshot domain.LeaderboardSnapshot) error
	Path() string
}

type snapshotHistory interface {
	ReplaceSnapshot(ctx context.Context, snapshot domain.Snapshot) (uuid.UUID, error)
}

// BuildPublishSnapshot writes the snapshot file, then records it in the history.
// The file is the product, so only a failed file write fails the publish.
func BuildPublishSnapshot(writer snapshotWriter, history snapshotHistory) PublishSnapshot {
	return func(ctx context.Context, snapshot domain.Snapshot) error {
		logger := logging.FromContext(ctx)

		if err := writer.SaveSnapshot(ctx, snapshot); err != nil {
			return fmt.Errorf("could not write snapshot: %w", err)
		}
		logger.InfoContext(ctx, "Wrote snapshot", "path", writer.Path(), "players", len(snapshot.Players))

		snapshotID, err := history.ReplaceSnapshot(ctx, snapshot)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to store snapshot history", "error", err.Error())
			reporting.Report(ctx, err)
			return nil
		}
		if snapshotID != uuid.Nil {
			logger.InfoContext(ctx, "Stored snapshot history", "snapshotID", snapshotID.String())
		}

		return nil
	}
}

func BuildPublishLeaderboard(writer leaderboardWriter) PublishLeaderboard {
	return func(ctx context.Context, snapshot domain.LeaderboardSnapshot) error {
		if err := writer.SaveLeaderboard(ctx, snapshot); err != nil {
			return fmt.Errorf("could not write leaderboard: %w", err)
		}
		logging.FromContext(ctx).InfoContext(ctx, "Wrote leaderboard", "path", writer.Path(), "regions", len(snapshot.Regions))
		return nil
	}
}
