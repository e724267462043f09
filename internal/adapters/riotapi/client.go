package riotapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/riftstats/riftstats/internal/domain"
	"github.com/riftstats/riftstats/internal/logging"
	"github.com/riftstats/riftstats/internal/reporting"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// MatchIDPageSize is the largest page the match id endpoint hands out
const MatchIDPageSize = 100

const RankedSoloQueue = "RANKED_SOLO_5x5"

type Fetcher interface {
	Fetch(ctx context.Context, url string, query url.Values) ([]byte, error)
}

// MatchPayloadCache stores minified match payloads. Finished matches never change.
type MatchPayloadCache interface {
	Get(ctx context.Context, matchID string) ([]byte, bool)
	Set(ctx context.Context, matchID string, data []byte)
}

type Client struct {
	fetcher    Fetcher
	matchCache MatchPayloadCache
	baseURL    func(host string) string

	tracer trace.Tracer
}

func NewClient(fetcher Fetcher, matchCache MatchPayloadCache) *Client {
	return &Client{
		fetcher:    fetcher,
		matchCache: matchCache,
		baseURL: func(host string) string {
			return fmt.Sprintf("https://%s.api.riotgames.com", host)
		},

		tracer: otel.Tracer("riftstats/riotapi/client"),
	}
}

// RoutingForPlatform maps a platform id (euw1, kr, ...) to its regional routing host
func RoutingForPlatform(platform string) string {
	switch platform {
	case "euw1", "eun1", "tr1", "ru", "me1":
		return "europe"
	case "kr", "jp1":
		return "asia"
	case "na1", "br1", "la1", "la2":
		return "americas"
	case "oc1", "ph2", "sg2", "th2", "tw2", "vn2":
		return "sea"
	default:
		return "asia"
	}
}

func (c *Client) GetAccountByRiotID(ctx context.Context, routing string, handle domain.PlayerHandle) (domain.Account, error) {
	ctx, span := c.tracer.Start(ctx, "Client.GetAccountByRiotID")
	defer span.End()

	endpoint := fmt.Sprintf(
		"%s/riot/account/v1/accounts/by-riot-id/%s/%s",
		c.baseURL(routing),
		url.PathEscape(handle.GameName),
		url.PathEscape(handle.TagLine),
	)

	var account accountResponse
	if err := c.getJSON(ctx, endpoint, nil, &account); err != nil {
		return domain.Account{}, err
	}

	return account.toDomain(), nil
}

func (c *Client) GetAccountByPUUID(ctx context.Context, routing string, puuid string) (domain.Account, error) {
	ctx, span := c.tracer.Start(ctx, "Client.GetAccountByPUUID")
	defer span.End()

	endpoint := fmt.Sprintf("%s/riot/account/v1/accounts/by-puuid/%s", c.baseURL(routing), url.PathEscape(puuid))

	var account accountResponse
	if err := c.getJSON(ctx, endpoint, nil, &account); err != nil {
		return domain.Account{}, err
	}

	return account.toDomain(), nil
}

// GetMatchIDs returns one page of match ids, most recent first
func (c *Client) GetMatchIDs(ctx context.Context, routing string, puuid string, startTime int64, start int, count int) ([]string, error) {
	ctx, span := c.tracer.Start(ctx, "Client.GetMatchIDs")
	defer span.End()

	endpoint := fmt.Sprintf("%s/lol/match/v5/matches/by-puuid/%s/ids", c.baseURL(routing), url.PathEscape(puuid))
	query := url.Values{}
	query.Set("startTime", strconv.FormatInt(startTime, 10))
	query.Set("start", strconv.Itoa(start))
	query.Set("count", strconv.Itoa(count))

	ids := []string{}
	if err := c.getJSON(ctx, endpoint, query, &ids); err != nil {
		return nil, err
	}

	return ids, nil
}

func (c *Client) GetMatch(ctx context.Context, routing string, matchID string) (domain.MatchDetails, error) {
	ctx, span := c.tracer.Start(ctx, "Client.GetMatch")
	defer span.End()

	if c.matchCache != nil {
		if data, ok := c.matchCache.Get(ctx, matchID); ok {
			var match matchResponse
			if err := json.Unmarshal(data, &match); err == nil {
				return match.toDomain(matchID), nil
			}
			logging.FromContext(ctx).WarnContext(ctx, "Ignoring unparsable cached match", "matchID", matchID)
		}
	}

	endpoint := fmt.Sprintf("%s/lol/match/v5/matches/%s", c.baseURL(routing), url.PathEscape(matchID))

	data, err := c.fetcher.Fetch(ctx, endpoint, nil)
	if err != nil {
		return domain.MatchDetails{}, err
	}

	var match matchResponse
	if err := c.decode(ctx, endpoint, data, &match); err != nil {
		return domain.MatchDetails{}, err
	}

	if c.matchCache != nil {
		minified, err := minifyMatch(match)
		if err != nil {
			logging.FromContext(ctx).WarnContext(ctx, "Failed to minify match, not caching it", "matchID", matchID, "error", err.Error())
		} else {
			c.matchCache.Set(ctx, matchID, minified)
		}
	}

	return match.toDomain(matchID), nil
}

func (c *Client) GetChallengerLeague(ctx context.Context, platform string, queue string) (domain.League, error) {
	ctx, span := c.tracer.Start(ctx, "Client.GetChallengerLeague")
	defer span.End()

	endpoint := fmt.Sprintf("%s/lol/league/v4/challengerleagues/by-queue/%s", c.baseURL(platform), url.PathEscape(queue))

	var league leagueListResponse
	if err := c.getJSON(ctx, endpoint, nil, &league); err != nil {
		return domain.League{}, err
	}

	return league.toDomain(), nil
}

// GetSummonerPUUID looks up the PUUID behind an encrypted summoner id
func (c *Client) GetSummonerPUUID(ctx context.Context, platform string, summonerID string) (string, error) {
	ctx, span := c.tracer.Start(ctx, "Client.GetSummonerPUUID")
	defer span.End()

	endpoint := fmt.Sprintf("%s/lol/summoner/v4/summoners/%s", c.baseURL(platform), url.PathEscape(summonerID))

	var summoner summonerResponse
	if err := c.getJSON(ctx, endpoint, nil, &summoner); err != nil {
		return "", err
	}
	if summoner.PUUID == "" {
		return "", fmt.Errorf("%w: summoner %s has no puuid", domain.ErrNotFound, summonerID)
	}

	return summoner.PUUID, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, query url.Values, target any) error {
	data, err := c.fetcher.Fetch(ctx, endpoint, query)
	if err != nil {
		return err
	}
	return c.decode(ctx, endpoint, data, target)
}

func (c *Client) decode(ctx context.Context, endpoint string, data []byte, target any) error {
	if err := json.Unmarshal(data, target); err != nil {
		err := fmt.Errorf("%w: failed to parse riot api response: %w", domain.ErrTemporarilyUnavailable, err)
		logging.FromContext(ctx).ErrorContext(ctx, "Failed to parse Riot API response", "url", endpoint, "error", err.Error())
		reporting.Report(ctx, err, map[string]string{
			"url":  endpoint,
			"data": truncate(string(data), 500),
		})
		return err
	}
	return nil
}
