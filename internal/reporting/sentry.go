package reporting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/riftstats/riftstats/internal/config"
	"github.com/riftstats/riftstats/internal/logging"
)

var apiKeyRx = regexp.MustCompile(`RGAPI-[0-9a-fA-F-]+`)
var riotIDRx = regexp.MustCompile(`/by-riot-id/[^/"\s]+/[^/?"\s]+`)
var puuidRx = regexp.MustCompile(`/by-puuid/[A-Za-z0-9_-]+`)
var matchIDRx = regexp.MustCompile(`/matches/[A-Z0-9]+_[0-9]+`)
var summonerRx = regexp.MustCompile(`/summoners/[A-Za-z0-9_-]+`)
var queryRx = regexp.MustCompile(`\?[^"\s]+`)
var hostRx = regexp.MustCompile(`\[:{0,2}([0-9a-f]{0,4}:?){1,8}\]:\d+`)

func sanitizeError(err string) string {
	err = apiKeyRx.ReplaceAllString(err, "<apikey>")
	err = riotIDRx.ReplaceAllString(err, "/by-riot-id/<name>/<tag>")
	err = puuidRx.ReplaceAllString(err, "/by-puuid/<puuid>")
	err = matchIDRx.ReplaceAllString(err, "/matches/<match>")
	err = summonerRx.ReplaceAllString(err, "/summoners/<summoner>")
	err = queryRx.ReplaceAllString(err, "?<query>")
	err = hostRx.ReplaceAllString(err, "<host>")
	return err
}

func Report(ctx context.Context, err error, extras ...map[string]string) {
	hub := sentry.GetHubFromContext(ctx)
	logger := logging.FromContext(ctx)
	if hub == nil {
		logger.WarnContext(ctx, "Failed to get Sentry hub from context", "error", err, "extras", extras)
		return
	}

	logger.ErrorContext(
		ctx,
		"Reporting error to Sentry",
		slog.String("error", err.Error()),
		slog.Any("extras", extras),
	)

	hub.WithScope(func(scope *sentry.Scope) {
		meta := MetaFromContext(ctx)
		scope.SetTags(meta.tags)
		for key, value := range meta.extras {
			scope.SetExtra(key, value)
		}
		if !meta.startedAt.IsZero() {
			scope.SetExtra("secondsSinceStart", time.Since(meta.startedAt).Seconds())
		}

		for _, extra := range extras {
			if extra == nil {
				continue
			}
			for key, value := range extra {
				scope.SetExtra(key, value)
			}
		}

		if err == nil {
			err = errors.New("No error provided")
		}

		scope.SetFingerprint([]string{"{{ default }}", sanitizeError(err.Error())})
		hub.CaptureException(err)
	})
}

// AddHubToContext gives the run its own hub so scopes don't leak between runs
func AddHubToContext(ctx context.Context) context.Context {
	return sentry.SetHubOnContext(ctx, sentry.CurrentHub().Clone())
}

func InitSentry(sentryDSN string, environment string) (func(), error) {
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              sentryDSN,
		Environment:      environment,
		EnableTracing:    true,
		TracesSampleRate: 1.0 / 100.0,
	})
	if err != nil {
		return nil, err
	}

	flush := func() {
		sentry.Flush(5 * time.Second)
	}

	return flush, nil
}

func InitSentryOrMock(conf config.Config) (func(), error) {
	if conf.SentryDSN() != "" {
		return InitSentry(conf.SentryDSN(), conf.Environment())
	}

	if conf.IsDevelopment() {
		return func() {}, nil
	}

	return nil, fmt.Errorf("Missing Sentry DSN in non-development environment")
}
