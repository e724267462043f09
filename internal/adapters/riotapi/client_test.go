package riotapi

import (
	"context"
	"net/url"
	"testing"

	"github.com/riftstats/riftstats/internal/domain"
	"github.com/stretchr/testify/require"
)

type fetchCall struct {
	url   string
	query url.Values
}

type mockedFetcher struct {
	t         *testing.T
	responses map[string]string
	errs      map[string]error
	calls     []fetchCall
}

func (m *mockedFetcher) Fetch(ctx context.Context, rawURL string, query url.Values) ([]byte, error) {
	m.calls = append(m.calls, fetchCall{url: rawURL, query: query})
	if err, ok := m.errs[rawURL]; ok {
		return nil, err
	}
	body, ok := m.responses[rawURL]
	require.True(m.t, ok, "unexpected fetch of %s", rawURL)
	return []byte(body), nil
}

type mapMatchCache struct {
	data map[string][]byte
}

func (m *mapMatchCache) Get(ctx context.Context, matchID string) ([]byte, bool) {
	data, ok := m.data[matchID]
	return data, ok
}

func (m *mapMatchCache) Set(ctx context.Context, matchID string, data []byte) {
	m.data[matchID] = data
}

const matchPayload = `{
	"metadata": {"matchId": "EUW1_7012345678"},
	"info": {
		"gameEndTimestamp": 1735740000000,
		"gameDuration": 1800,
		"participants": [
			{
				"puuid": "p1",
				"championName": "Ahri",
				"teamPosition": "MIDDLE",
				"win": true,
				"kills": 7,
				"deaths": 2,
				"assists": 9,
				"totalDamageDealtToChampions": 27000,
				"goldEarned": 12600,
				"totalMinionsKilled": 210,
				"neutralMinionsKilled": 12,
				"visionScore": 31,
				"wardsPlaced": 11,
				"wardsKilled": 4,
				"challenges": {"kda": 8.0}
			},
			{
				"puuid": "p2",
				"championName": "Garen",
				"teamPosition": "",
				"win": false,
				"kills": 1,
				"deaths": 0,
				"assists": 0
			}
		]
	}
}`

func TestClient(t *testing.T) {
	t.Parallel()

	t.Run("GetAccountByRiotID", func(t *testing.T) {
		t.Parallel()

		fetcher := &mockedFetcher{
			t: t,
			responses: map[string]string{
				"https://europe.api.riotgames.com/riot/account/v1/accounts/by-riot-id/Hide%20on%20bush/KR1": `{"puuid":"p1","gameName":"Hide on bush","tagLine":"KR1"}`,
			},
		}
		client := NewClient(fetcher, nil)

		account, err := client.GetAccountByRiotID(t.Context(), "europe", domain.PlayerHandle{GameName: "Hide on bush", TagLine: "KR1"})
		require.NoError(t, err)
		require.Equal(t, domain.Account{PUUID: "p1", GameName: "Hide on bush", TagLine: "KR1"}, account)
	})

	t.Run("GetAccountByPUUID passes errors through", func(t *testing.T) {
		t.Parallel()

		fetcher := &mockedFetcher{
			t: t,
			errs: map[string]error{
				"https://asia.api.riotgames.com/riot/account/v1/accounts/by-puuid/p9": domain.ErrNotFound,
			},
		}
		client := NewClient(fetcher, nil)

		_, err := client.GetAccountByPUUID(t.Context(), "asia", "p9")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("GetMatchIDs", func(t *testing.T) {
		t.Parallel()

		const idsURL = "https://europe.api.riotgames.com/lol/match/v5/matches/by-puuid/p1/ids"
		fetcher := &mockedFetcher{
			t:         t,
			responses: map[string]string{idsURL: `["EUW1_2","EUW1_1"]`},
		}
		client := NewClient(fetcher, nil)

		ids, err := client.GetMatchIDs(t.Context(), "europe", "p1", 1735689600, 200, 100)
		require.NoError(t, err)
		require.Equal(t, []string{"EUW1_2", "EUW1_1"}, ids)
		require.Equal(t, []fetchCall{{
			url: idsURL,
			query: url.Values{
				"startTime": {"1735689600"},
				"start":     {"200"},
				"count":     {"100"},
			},
		}}, fetcher.calls)
	})

	t.Run("GetMatch", func(t *testing.T) {
		t.Parallel()

		const matchURL = "https://europe.api.riotgames.com/lol/match/v5/matches/EUW1_7012345678"
		fetcher := &mockedFetcher{t: t, responses: map[string]string{matchURL: matchPayload}}
		cache := &mapMatchCache{data: map[string][]byte{}}
		client := NewClient(fetcher, cache)

		match, err := client.GetMatch(t.Context(), "europe", "EUW1_7012345678")
		require.NoError(t, err)

		kda := 8.0
		require.Equal(t, domain.MatchDetails{
			MatchID:          "EUW1_7012345678",
			GameEndTimestamp: 1735740000000,
			DurationSeconds:  1800,
			Participants: []domain.ParticipantStats{
				{
					PUUID:                "p1",
					ChampionName:         "Ahri",
					TeamPosition:         "MIDDLE",
					Win:                  true,
					Kills:                7,
					Deaths:               2,
					Assists:              9,
					KDA:                  &kda,
					DamageToChampions:    27000,
					GoldEarned:           12600,
					MinionsKilled:        210,
					NeutralMinionsKilled: 12,
					VisionScore:          31,
					WardsPlaced:          11,
					WardsKilled:          4,
				},
				{
					PUUID:        "p2",
					ChampionName: "Garen",
					Kills:        1,
				},
			},
		}, match)

		require.Contains(t, cache.data, "EUW1_7012345678")

		// Served from the cache the second time
		cached, err := client.GetMatch(t.Context(), "europe", "EUW1_7012345678")
		require.NoError(t, err)
		require.Equal(t, match, cached)
		require.Len(t, fetcher.calls, 1)
	})

	t.Run("GetMatch ignores corrupt cache entries", func(t *testing.T) {
		t.Parallel()

		const matchURL = "https://europe.api.riotgames.com/lol/match/v5/matches/EUW1_7012345678"
		fetcher := &mockedFetcher{t: t, responses: map[string]string{matchURL: matchPayload}}
		cache := &mapMatchCache{data: map[string][]byte{"EUW1_7012345678": []byte("{not json")}}
		client := NewClient(fetcher, cache)

		match, err := client.GetMatch(t.Context(), "europe", "EUW1_7012345678")
		require.NoError(t, err)
		require.Equal(t, 1800, match.DurationSeconds)
		require.Len(t, fetcher.calls, 1)

		minified, err := minifyMatchPayload([]byte(matchPayload))
		require.NoError(t, err)
		require.Equal(t, string(minified), string(cache.data["EUW1_7012345678"]))
	})

	t.Run("unparsable response", func(t *testing.T) {
		t.Parallel()

		const matchURL = "https://europe.api.riotgames.com/lol/match/v5/matches/EUW1_1"
		fetcher := &mockedFetcher{t: t, responses: map[string]string{matchURL: `<html>`}}
		cache := &mapMatchCache{data: map[string][]byte{}}
		client := NewClient(fetcher, cache)

		_, err := client.GetMatch(t.Context(), "europe", "EUW1_1")
		require.ErrorIs(t, err, domain.ErrTemporarilyUnavailable)
		require.Empty(t, cache.data)
	})

	t.Run("GetChallengerLeague", func(t *testing.T) {
		t.Parallel()

		fetcher := &mockedFetcher{
			t: t,
			responses: map[string]string{
				"https://kr.api.riotgames.com/lol/league/v4/challengerleagues/by-queue/RANKED_SOLO_5x5": `{
					"tier": "CHALLENGER",
					"queue": "RANKED_SOLO_5x5",
					"entries": [
						{"puuid": "p1", "leaguePoints": 1500, "wins": 300, "losses": 250},
						{"summonerId": "s2", "leaguePoints": 1700, "wins": 10, "losses": 0}
					]
				}`,
			},
		}
		client := NewClient(fetcher, nil)

		league, err := client.GetChallengerLeague(t.Context(), "kr", RankedSoloQueue)
		require.NoError(t, err)
		require.Equal(t, domain.League{
			Tier: "CHALLENGER",
			Entries: []domain.LeagueEntry{
				{PUUID: "p1", LeaguePoints: 1500, Wins: 300, Losses: 250},
				{SummonerID: "s2", LeaguePoints: 1700, Wins: 10, Losses: 0},
			},
		}, league)
	})

	t.Run("GetSummonerPUUID", func(t *testing.T) {
		t.Parallel()

		fetcher := &mockedFetcher{
			t: t,
			responses: map[string]string{
				"https://euw1.api.riotgames.com/lol/summoner/v4/summoners/s1": `{"id":"s1","puuid":"p1"}`,
				"https://euw1.api.riotgames.com/lol/summoner/v4/summoners/s2": `{"id":"s2"}`,
			},
		}
		client := NewClient(fetcher, nil)

		puuid, err := client.GetSummonerPUUID(t.Context(), "euw1", "s1")
		require.NoError(t, err)
		require.Equal(t, "p1", puuid)

		_, err = client.GetSummonerPUUID(t.Context(), "euw1", "s2")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestRoutingForPlatform(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"euw1": "europe",
		"eun1": "europe",
		"kr":   "asia",
		"jp1":  "asia",
		"na1":  "americas",
		"br1":  "americas",
		"oc1":  "sea",
		"vn2":  "sea",
	}

	for platform, routing := range cases {
		t.Run(platform, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, routing, RoutingForPlatform(platform))
		})
	}
}
