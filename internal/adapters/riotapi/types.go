package riotapi

import "github.com/riftstats/riftstats/internal/domain"

type accountResponse struct {
	PUUID    string `json:"puuid"`
	GameName string `json:"gameName"`
	TagLine  string `json:"tagLine"`
}

func (a accountResponse) toDomain() domain.Account {
	return domain.Account{
		PUUID:    a.PUUID,
		GameName: a.GameName,
		TagLine:  a.TagLine,
	}
}

type matchResponse struct {
	Metadata matchMetadata `json:"metadata"`
	Info     matchInfo     `json:"info"`
}

type matchMetadata struct {
	MatchID string `json:"matchId"`
}

type matchInfo struct {
	GameEndTimestamp int64              `json:"gameEndTimestamp"`
	GameDuration     int                `json:"gameDuration"`
	Participants     []matchParticipant `json:"participants"`
}

type matchParticipant struct {
	PUUID                       string                `json:"puuid"`
	ChampionName                string                `json:"championName"`
	TeamPosition                string                `json:"teamPosition"`
	Win                         bool                  `json:"win"`
	Kills                       int                   `json:"kills"`
	Deaths                      int                   `json:"deaths"`
	Assists                     int                   `json:"assists"`
	TotalDamageDealtToChampions int                   `json:"totalDamageDealtToChampions"`
	GoldEarned                  int                   `json:"goldEarned"`
	TotalMinionsKilled          int                   `json:"totalMinionsKilled"`
	NeutralMinionsKilled        int                   `json:"neutralMinionsKilled"`
	VisionScore                 int                   `json:"visionScore"`
	WardsPlaced                 int                   `json:"wardsPlaced"`
	WardsKilled                 int                   `json:"wardsKilled"`
	Challenges                  *participantChallenge `json:"challenges,omitempty"`
}

type participantChallenge struct {
	KDA *float64 `json:"kda,omitempty"`
}

func (m matchResponse) toDomain(matchID string) domain.MatchDetails {
	if m.Metadata.MatchID != "" {
		matchID = m.Metadata.MatchID
	}

	participants := make([]domain.ParticipantStats, 0, len(m.Info.Participants))
	for _, p := range m.Info.Participants {
		var kda *float64
		if p.Challenges != nil {
			kda = p.Challenges.KDA
		}

		participants = append(participants, domain.ParticipantStats{
			PUUID:                p.PUUID,
			ChampionName:         p.ChampionName,
			TeamPosition:         p.TeamPosition,
			Win:                  p.Win,
			Kills:                p.Kills,
			Deaths:               p.Deaths,
			Assists:              p.Assists,
			KDA:                  kda,
			DamageToChampions:    p.TotalDamageDealtToChampions,
			GoldEarned:           p.GoldEarned,
			MinionsKilled:        p.TotalMinionsKilled,
			NeutralMinionsKilled: p.NeutralMinionsKilled,
			VisionScore:          p.VisionScore,
			WardsPlaced:          p.WardsPlaced,
			WardsKilled:          p.WardsKilled,
		})
	}

	return domain.MatchDetails{
		MatchID:          matchID,
		GameEndTimestamp: m.Info.GameEndTimestamp,
		DurationSeconds:  m.Info.GameDuration,
		Participants:     participants,
	}
}

type leagueListResponse struct {
	Tier    string              `json:"tier"`
	Queue   string              `json:"queue"`
	Entries []leagueItemResponse `json:"entries"`
}

type leagueItemResponse struct {
	PUUID        string `json:"puuid"`
	SummonerID   string `json:"summonerId"`
	LeaguePoints int    `json:"leaguePoints"`
	Wins         int    `json:"wins"`
	Losses       int    `json:"losses"`
}

func (l leagueListResponse) toDomain() domain.League {
	entries := make([]domain.LeagueEntry, 0, len(l.Entries))
	for _, e := range l.Entries {
		entries = append(entries, domain.LeagueEntry{
			PUUID:        e.PUUID,
			SummonerID:   e.SummonerID,
			LeaguePoints: e.LeaguePoints,
			Wins:         e.Wins,
			Losses:       e.Losses,
		})
	}
	return domain.League{
		Tier:    l.Tier,
		Entries: entries,
	}
}

type summonerResponse struct {
	ID    string `json:"id"`
	PUUID string `json:"puuid"`
}
