package domain

// League is the ladder of one queue on one platform
type League struct {
	Tier    string
	Entries []LeagueEntry
}

// LeagueEntry may identify the player by PUUID, by summoner id, or both
type LeagueEntry struct {
	PUUID        string
	SummonerID   string
	LeaguePoints int
	Wins         int
	Losses       int
}

// Region pairs the display code used in the leaderboard snapshot with the platform host id
type Region struct {
	Code     string
	Platform string
}
