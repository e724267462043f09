package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/riftstats/riftstats/internal/adapters/cache"
	"github.com/riftstats/riftstats/internal/adapters/matchcache"
	"github.com/riftstats/riftstats/internal/adapters/matchrepository"
	"github.com/riftstats/riftstats/internal/adapters/riotapi"
	"github.com/riftstats/riftstats/internal/adapters/snapshotstore"
	"github.com/riftstats/riftstats/internal/app"
	"github.com/riftstats/riftstats/internal/config"
	"github.com/riftstats/riftstats/internal/constants"
	"github.com/riftstats/riftstats/internal/domain"
	"github.com/riftstats/riftstats/internal/reporting"
	"github.com/riftstats/riftstats/internal/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// pipelines holds everything a command needs, built once per invocation
type pipelines struct {
	conf config.Config

	collectSnapshot    app.CollectSnapshot
	publishSnapshot    app.PublishSnapshot
	buildLeaderboard   app.BuildLeaderboard
	publishLeaderboard app.PublishLeaderboard
}

func setupPipelines(ctx context.Context, conf config.Config, logger *slog.Logger) (*pipelines, func(), error) {
	cleanups := []func(){}
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}
	fail := func(msg string, err error) (*pipelines, func(), error) {
		cleanup()
		return nil, nil, fmt.Errorf("%s: %w", msg, err)
	}

	flush, err := reporting.InitSentryOrMock(conf)
	if err != nil {
		return fail("failed to initialize sentry", err)
	}
	cleanups = append(cleanups, flush)
	logger.InfoContext(ctx, "Initialized Sentry")

	shutdownOTel, err := telemetry.SetupOTelSDKIfConfigured(ctx, constants.SERVICE_NAME, conf.OTLPEndpoint())
	if err != nil {
		return fail("failed to initialize telemetry", err)
	}
	cleanups = append(cleanups, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(shutdownCtx); err != nil {
			logger.Warn("Failed to shut down telemetry", "error", err.Error())
		}
	})

	httpClient := &http.Client{
		Timeout:   10 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	limiter, stopLimiter := riotapi.NewRiotRequestLimiter(time.Now, time.After)
	cleanups = append(cleanups, stopLimiter)

	fetcher, err := riotapi.NewFetcher(httpClient, conf.RiotAPIKey(), limiter, riotapi.DefaultFetcherConfig(), time.After)
	if err != nil {
		return fail("failed to initialize fetcher", err)
	}

	// Left as a nil interface unless redis is configured
	var matchPayloadCache riotapi.MatchPayloadCache
	if conf.RedisURL() != "" {
		redisCache, err := matchcache.NewRedisMatchCache(ctx, conf.RedisURL(), matchcache.DefaultTTL)
		if err != nil {
			if !conf.IsDevelopment() {
				return fail("failed to connect to redis", err)
			}
			logger.WarnContext(ctx, "Failed to connect to redis. Running without match cache.", "error", err.Error())
		} else {
			matchPayloadCache = redisCache
			cleanups = append(cleanups, func() { _ = redisCache.Close() })
			logger.InfoContext(ctx, "Initialized match cache")
		}
	}

	client := riotapi.NewClient(fetcher, matchPayloadCache)

	puuidByHandleCache, stopPUUIDCache := cache.NewTTLCache[string](24 * time.Hour)
	cleanups = append(cleanups, stopPUUIDCache)
	handleByPUUIDCache, stopHandleCache := cache.NewTTLCache[domain.PlayerHandle](24 * time.Hour)
	cleanups = append(cleanups, stopHandleCache)

	repo, closeRepo, err := matchrepository.NewPostgresMatchRepositoryOrStub(ctx, conf, logger)
	if err != nil {
		return fail("failed to initialize match history", err)
	}
	cleanups = append(cleanups, closeRepo)

	routing := conf.RegionRouting()

	extractMatches, err := app.BuildExtractMatches(client, routing)
	if err != nil {
		return fail("failed to build match extractor", err)
	}

	collectSnapshot, err := app.BuildCollectSnapshot(
		app.BuildResolveIdentityWithCache(puuidByHandleCache, client, routing),
		app.BuildListMatchesSince(client, routing),
		extractMatches,
		time.Now,
	)
	if err != nil {
		return fail("failed to build snapshot collector", err)
	}

	buildLeaderboard := app.BuildBuildLeaderboard(
		client,
		app.BuildResolveHandleWithCache(handleByPUUIDCache, client),
		riotapi.RoutingForPlatform,
		time.Now,
	)

	return &pipelines{
		conf: conf,

		collectSnapshot:    collectSnapshot,
		publishSnapshot:    app.BuildPublishSnapshot(snapshotstore.NewFileStore(conf.OutputPath()), repo),
		buildLeaderboard:   buildLeaderboard,
		publishLeaderboard: app.BuildPublishLeaderboard(snapshotstore.NewFileStore(conf.LeaderboardOutputPath())),
	}, cleanup, nil
}
