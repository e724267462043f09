package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/riftstats/riftstats/internal/config"
	"github.com/riftstats/riftstats/internal/logging"
	"github.com/riftstats/riftstats/internal/reporting"
	"github.com/spf13/cobra"
)

// newRootCmd returns the command tree and a func releasing whatever the command set up
func newRootCmd() (*cobra.Command, func()) {
	var p *pipelines
	cleanup := func() {}

	rootCmd := &cobra.Command{
		Use:   "riftstats",
		Short: "Collect ranked League of Legends stats into JSON snapshots",
		Long: `riftstats fetches match history for a configured list of players and the
challenger ladders of the configured regions from the Riot Games API, and writes
them as JSON snapshots for the dashboard.

All behaviour is configured through environment variables (or a .env file).`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			conf, err := config.ConfigFromEnv()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			runID := uuid.New().String()
			logger := logging.NewRunLogger(os.Stdout, runID).With("command", cmd.Name())
			logger.Info("Loaded config", "config", conf.NonSensitiveString())

			ctx := logging.AddToContext(cmd.Context(), logger)
			ctx = reporting.AddHubToContext(ctx)
			ctx = reporting.SetStartedAtInContext(ctx, time.Now())
			ctx = reporting.AddTagsToContext(ctx, map[string]string{
				"runID":   runID,
				"command": cmd.Name(),
			})

			built, release, err := setupPipelines(ctx, conf, logger)
			if err != nil {
				logger.ErrorContext(ctx, "Failed to set up pipelines", "error", err.Error())
				return err
			}
			p, cleanup = built, release

			cmd.SetContext(ctx)
			return nil
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "matches",
		Short: "Collect match records for the configured players",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatches(cmd.Context(), p)
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "leaderboard",
		Short: "Build the challenger leaderboards for the configured regions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLeaderboard(cmd.Context(), p)
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Collect match records, then build the leaderboards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := runMatches(ctx, p); err != nil {
				return err
			}

			if err := runLeaderboard(ctx, p); err != nil {
				// The match snapshot is already written
				logging.FromContext(ctx).WarnContext(ctx, "Leaderboard failed", "error", err.Error())
			}
			return nil
		},
	})

	return rootCmd, func() { cleanup() }
}

func runMatches(ctx context.Context, p *pipelines) error {
	logger := logging.FromContext(ctx)

	snapshot, skips := p.collectSnapshot(ctx, p.conf.Players(), p.conf.StartDate())
	if err := ctx.Err(); err != nil {
		logger.ErrorContext(ctx, "Interrupted, snapshot not written", "error", err.Error())
		return fmt.Errorf("interrupted: %w", err)
	}

	if err := p.publishSnapshot(ctx, snapshot); err != nil {
		logger.ErrorContext(ctx, "Failed to publish snapshot", "error", err.Error())
		reporting.Report(ctx, err)
		return err
	}

	logger.InfoContext(ctx, "Matches done", "players", len(snapshot.Players), "skips", len(skips))
	return nil
}

func runLeaderboard(ctx context.Context, p *pipelines) error {
	logger := logging.FromContext(ctx)

	leaderboard, skips := p.buildLeaderboard(ctx, p.conf.LeaderboardRegions())
	if err := ctx.Err(); err != nil {
		logger.ErrorContext(ctx, "Interrupted, leaderboard not written", "error", err.Error())
		return fmt.Errorf("interrupted: %w", err)
	}

	if err := p.publishLeaderboard(ctx, leaderboard); err != nil {
		logger.ErrorContext(ctx, "Failed to publish leaderboard", "error", err.Error())
		reporting.Report(ctx, err)
		return err
	}

	logger.InfoContext(ctx, "Leaderboard done", "regions", len(leaderboard.Regions), "skips", len(skips))
	return nil
}
