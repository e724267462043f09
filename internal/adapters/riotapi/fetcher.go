package riotapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/riftstats/riftstats/internal/constants"
	"github.com/riftstats/riftstats/internal/domain"
	"github.com/riftstats/riftstats/internal/logging"
	"github.com/riftstats/riftstats/internal/ratelimiting"
	"github.com/riftstats/riftstats/internal/reporting"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const fetchMinOperationTime = 500 * time.Millisecond

const defaultRetryAfter = 10 * time.Second

type HttpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type RequestLimiter interface {
	Limit(ctx context.Context, key string, minOperationTime time.Duration, operation func(ctx context.Context)) bool
}

type FetcherConfig struct {
	// Pause after every successful response
	Cooldown time.Duration
	// 0 means retry 429s forever
	MaxRateLimitRetries int
	// 0 means no cap on the total time spent waiting out 429s
	MaxRateLimitWait time.Duration
}

func DefaultFetcherConfig() FetcherConfig {
	return FetcherConfig{
		Cooldown:            1200 * time.Millisecond,
		MaxRateLimitRetries: 20,
		MaxRateLimitWait:    10 * time.Minute,
	}
}

// NewRiotRequestLimiter enforces the development key budget per API host
func NewRiotRequestLimiter(nowFunc func() time.Time, afterFunc func(time.Duration) <-chan time.Time) (*ratelimiting.KeyedLimiter, func()) {
	return ratelimiting.NewKeyedLimiter(func() ratelimiting.RequestLimiter {
		return ratelimiting.Chain(
			ratelimiting.NewWindowLimiter(100, 2*time.Minute, nowFunc, afterFunc),
			ratelimiting.NewTokenBucketLimiter(20, 20, nowFunc, afterFunc),
		)
	})
}

type fetcherMetricsCollection struct {
	requestCount     metric.Int64Counter
	rateLimitedCount metric.Int64Counter
}

func setupFetcherMetrics(meter metric.Meter) (fetcherMetricsCollection, error) {
	requestCount, err := meter.Int64Counter("riotapi/fetcher/request_count")
	if err != nil {
		return fetcherMetricsCollection{}, fmt.Errorf("failed to create request count metric: %w", err)
	}

	rateLimitedCount, err := meter.Int64Counter("riotapi/fetcher/rate_limited_count")
	if err != nil {
		return fetcherMetricsCollection{}, fmt.Errorf("failed to create rate limited count metric: %w", err)
	}

	return fetcherMetricsCollection{
		requestCount:     requestCount,
		rateLimitedCount: rateLimitedCount,
	}, nil
}

type fetcher struct {
	httpClient HttpClient
	apiKey     string
	limiter    RequestLimiter
	config     FetcherConfig
	afterFunc  func(time.Duration) <-chan time.Time

	metrics fetcherMetricsCollection
	tracer  trace.Tracer
}

func NewFetcher(
	httpClient HttpClient,
	apiKey string,
	limiter RequestLimiter,
	config FetcherConfig,
	afterFunc func(time.Duration) <-chan time.Time,
) (*fetcher, error) {
	const name = "riftstats/riotapi/fetcher"

	if apiKey == "" {
		return nil, fmt.Errorf("missing riot api key")
	}

	metrics, err := setupFetcherMetrics(otel.Meter(name))
	if err != nil {
		return nil, fmt.Errorf("failed to set up metrics: %w", err)
	}

	return &fetcher{
		httpClient: httpClient,
		apiKey:     apiKey,
		limiter:    limiter,
		config:     config,
		afterFunc:  afterFunc,

		metrics: metrics,
		tracer:  otel.Tracer(name),
	}, nil
}

type response struct {
	statusCode int
	header     http.Header
	data       []byte
}

// Fetch GETs the resource and returns the body of a 200 response.
// 429s are waited out and retried until the configured bounds are hit.
func (f *fetcher) Fetch(ctx context.Context, rawURL string, query url.Values) ([]byte, error) {
	ctx, span := f.tracer.Start(ctx, "Fetcher.Fetch")
	defer span.End()

	target, err := url.Parse(rawURL)
	if err != nil {
		err := fmt.Errorf("%w: failed to parse url: %w", domain.ErrTemporarilyUnavailable, err)
		reporting.Report(ctx, err, map[string]string{"url": rawURL})
		return nil, err
	}
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}

	logger := logging.FromContext(ctx).With(slog.String("url", target.String()))

	retries := 0
	var waited time.Duration
	for {
		resp, err := f.do(ctx, target)
		if err != nil {
			logger.ErrorContext(ctx, "Riot API request failed", "error", err.Error())
			if !errors.Is(err, context.Canceled) {
				reporting.Report(ctx, err, map[string]string{"url": target.String()})
			}
			return nil, err
		}

		f.metrics.requestCount.Add(ctx, 1, metric.WithAttributes(
			attribute.String("status_code", strconv.Itoa(resp.statusCode)),
			attribute.String("host", target.Host),
		))

		switch resp.statusCode {
		case http.StatusOK:
			if err := f.sleep(ctx, f.config.Cooldown); err != nil {
				return nil, fmt.Errorf("%w: cancelled during cool-down: %w", domain.ErrTemporarilyUnavailable, err)
			}
			return resp.data, nil

		case http.StatusTooManyRequests:
			wait := parseRetryAfter(resp.header.Get("Retry-After"))
			retries++
			waited += wait

			if f.config.MaxRateLimitRetries > 0 && retries > f.config.MaxRateLimitRetries ||
				f.config.MaxRateLimitWait > 0 && waited > f.config.MaxRateLimitWait {
				err := fmt.Errorf("%w: gave up after %d retries", domain.ErrRateLimitExceeded, retries-1)
				logger.ErrorContext(ctx, "Giving up on rate limited request", "retries", retries-1, "waited", (waited - wait).String())
				reporting.Report(ctx, err, map[string]string{"url": target.String()})
				return nil, err
			}

			f.metrics.rateLimitedCount.Add(ctx, 1, metric.WithAttributes(attribute.String("host", target.Host)))
			logger.WarnContext(ctx, "Rate limited by Riot API, waiting", "retryAfter", wait.String(), "attempt", retries)

			if err := f.sleep(ctx, wait); err != nil {
				return nil, fmt.Errorf("%w: cancelled while rate limited: %w", domain.ErrTemporarilyUnavailable, err)
			}

		case http.StatusNotFound:
			logger.InfoContext(ctx, "Riot API resource not found")
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, target.Path)

		default:
			err := fmt.Errorf("%w: riot api returned status code %d", domain.ErrTemporarilyUnavailable, resp.statusCode)
			logger.ErrorContext(ctx, "Unexpected Riot API response", "status", resp.statusCode)
			reporting.Report(ctx, err, map[string]string{
				"url":    target.String(),
				"status": strconv.Itoa(resp.statusCode),
				"data":   truncate(string(resp.data), 500),
			})
			return nil, err
		}
	}
}

func (f *fetcher) do(ctx context.Context, target *url.URL) (response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return response{}, fmt.Errorf("%w: failed to create request: %w", domain.ErrTemporarilyUnavailable, err)
	}

	req.Header.Set("User-Agent", constants.USER_AGENT)
	req.Header.Set("X-Riot-Token", f.apiKey)

	var resp response
	ran := f.limiter.Limit(ctx, target.Host, fetchMinOperationTime, func(ctx context.Context) {
		_, span := f.tracer.Start(ctx, "Fetcher.httpget")
		defer span.End()

		var httpResp *http.Response
		httpResp, err = f.httpClient.Do(req)
		if err != nil {
			err = fmt.Errorf("%w: failed to send request: %w", domain.ErrTemporarilyUnavailable, err)
			return
		}
		defer httpResp.Body.Close()

		resp.statusCode = httpResp.StatusCode
		resp.header = httpResp.Header

		resp.data, err = io.ReadAll(httpResp.Body)
		if err != nil {
			err = fmt.Errorf("%w: failed to read response body: %w", domain.ErrTemporarilyUnavailable, err)
			return
		}
	})
	if !ran {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return response{}, fmt.Errorf("%w: cancelled while waiting for rate limiter: %w", domain.ErrTemporarilyUnavailable, ctxErr)
		}
		return response{}, fmt.Errorf("%w: rate limiter wait exceeds deadline", domain.ErrTemporarilyUnavailable)
	}
	if err != nil {
		return response{}, err
	}

	return resp, nil
}

func (f *fetcher) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-f.afterFunc(d):
		return nil
	}
}

func parseRetryAfter(value string) time.Duration {
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds < 0 {
		return defaultRetryAfter
	}
	return time.Duration(seconds) * time.Second
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
