package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/riftstats/riftstats/internal/domain"
)

var ErrMissingRequiredValue = errors.New("missing required value")
var ErrInvalidValue = errors.New("invalid value")

type environment string

const (
	production  environment = "production"
	staging     environment = "staging"
	development environment = "development"
)

const StartDateLayout = "02/01/2006"

const (
	DEFAULT_REGION_ROUTING       = "europe"
	DEFAULT_LEADERBOARD_REGIONS  = "EUW:euw1,KR:kr"
	DEFAULT_OUTPUT_PATH          = "esport_data.json"
	DEFAULT_LEADERBOARD_OUT_PATH = "leaderboard_data.json"
)

type Config struct {
	riotAPIKey            string
	sentryDSN             string
	players               []domain.PlayerHandle
	startDate             time.Time
	regionRouting         string
	leaderboardRegions    []domain.Region
	outputPath            string
	leaderboardOutputPath string
	databaseURL           string
	redisURL              string
	otlpEndpoint          string
	env                   environment
}

func (c *Config) RiotAPIKey() string {
	return c.riotAPIKey
}

func (c *Config) SentryDSN() string {
	return c.sentryDSN
}

func (c *Config) Players() []domain.PlayerHandle {
	players := make([]domain.PlayerHandle, len(c.players))
	copy(players, c.players)
	return players
}

func (c *Config) StartDate() time.Time {
	return c.startDate
}

func (c *Config) RegionRouting() string {
	return c.regionRouting
}

func (c *Config) LeaderboardRegions() []domain.Region {
	regions := make([]domain.Region, len(c.leaderboardRegions))
	copy(regions, c.leaderboardRegions)
	return regions
}

func (c *Config) OutputPath() string {
	return c.outputPath
}

func (c *Config) LeaderboardOutputPath() string {
	return c.leaderboardOutputPath
}

func (c *Config) DatabaseURL() string {
	return c.databaseURL
}

func (c *Config) RedisURL() string {
	return c.redisURL
}

func (c *Config) OTLPEndpoint() string {
	return c.otlpEndpoint
}

func (c *Config) Environment() string {
	return string(c.env)
}

func (c *Config) IsProduction() bool {
	return c.env == production
}

func (c *Config) IsStaging() bool {
	return c.env == staging
}

func (c *Config) IsDevelopment() bool {
	return c.env == development
}

// Return a string representation suitable for logging etc
func (c *Config) NonSensitiveString() string {
	return fmt.Sprintf(
		"Config{env: %s, players: %d, startDate: %s, routing: %s, output: %s, db: %t, redis: %t, ...}",
		string(c.env),
		len(c.players),
		c.startDate.Format(time.DateOnly),
		c.regionRouting,
		c.outputPath,
		c.databaseURL != "",
		c.redisURL != "",
	)
}

func getenvOrDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func parsePlayers(raw string) ([]domain.PlayerHandle, error) {
	var players []domain.PlayerHandle
	for part := range strings.SplitSeq(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		handle, err := domain.ParseHandle(part)
		if err != nil {
			return nil, err
		}
		players = append(players, handle)
	}
	return players, nil
}

func parseRegions(raw string) ([]domain.Region, error) {
	var regions []domain.Region
	for part := range strings.SplitSeq(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		code, platform, ok := strings.Cut(part, ":")
		code = strings.TrimSpace(code)
		platform = strings.ToLower(strings.TrimSpace(platform))
		if !ok || code == "" || platform == "" {
			return nil, fmt.Errorf("malformed region '%s', expected CODE:platform", part)
		}
		regions = append(regions, domain.Region{Code: code, Platform: platform})
	}
	return regions, nil
}

func ConfigFromEnv() (Config, error) {
	missingKey := func(key string) (Config, error) {
		return Config{}, fmt.Errorf("%w: %s", ErrMissingRequiredValue, key)
	}

	var env environment
	rawEnv, ok := os.LookupEnv("RIFTSTATS_ENVIRONMENT")
	if !ok {
		return missingKey("RIFTSTATS_ENVIRONMENT")
	}
	switch rawEnv {
	case "production":
		env = production
	case "staging":
		env = staging
	case "development":
		env = development
	default:
		return Config{}, fmt.Errorf("%w: RIFTSTATS_ENVIRONMENT (%s)", ErrInvalidValue, rawEnv)
	}
	if string(env) == "" {
		panic("logic error: env is empty")
	}

	riotAPIKey := os.Getenv("RIOT_API_KEY")
	if riotAPIKey == "" {
		return missingKey("RIOT_API_KEY")
	}

	sentryDSN := os.Getenv("SENTRY_DSN")
	if (env == production || env == staging) && sentryDSN == "" {
		return missingKey("SENTRY_DSN")
	}

	rawPlayers := os.Getenv("RIFTSTATS_PLAYERS")
	if rawPlayers == "" {
		return missingKey("RIFTSTATS_PLAYERS")
	}
	players, err := parsePlayers(rawPlayers)
	if err != nil {
		return Config{}, fmt.Errorf("%w: RIFTSTATS_PLAYERS: %w", ErrInvalidValue, err)
	}
	if len(players) == 0 {
		return missingKey("RIFTSTATS_PLAYERS")
	}

	rawStartDate := os.Getenv("RIFTSTATS_START_DATE")
	if rawStartDate == "" {
		return missingKey("RIFTSTATS_START_DATE")
	}
	startDate, err := time.ParseInLocation(StartDateLayout, rawStartDate, time.UTC)
	if err != nil {
		return Config{}, fmt.Errorf("%w: RIFTSTATS_START_DATE (%s): %w", ErrInvalidValue, rawStartDate, err)
	}

	leaderboardRegions, err := parseRegions(getenvOrDefault("RIFTSTATS_LEADERBOARD_REGIONS", DEFAULT_LEADERBOARD_REGIONS))
	if err != nil {
		return Config{}, fmt.Errorf("%w: RIFTSTATS_LEADERBOARD_REGIONS: %w", ErrInvalidValue, err)
	}

	return Config{
		riotAPIKey:            riotAPIKey,
		sentryDSN:             sentryDSN,
		players:               players,
		startDate:             startDate,
		regionRouting:         strings.ToLower(getenvOrDefault("RIFTSTATS_REGION_ROUTING", DEFAULT_REGION_ROUTING)),
		leaderboardRegions:    leaderboardRegions,
		outputPath:            getenvOrDefault("RIFTSTATS_OUTPUT", DEFAULT_OUTPUT_PATH),
		leaderboardOutputPath: getenvOrDefault("RIFTSTATS_LEADERBOARD_OUTPUT", DEFAULT_LEADERBOARD_OUT_PATH),
		databaseURL:           os.Getenv("DATABASE_URL"),
		redisURL:              os.Getenv("REDIS_URL"),
		otlpEndpoint:          os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		env:                   env,
	}, nil
}
