package domain

import "time"

// PlayerDataset maps a handle string to the player's records in fetch order
type PlayerDataset map[string][]MatchRecord

type Snapshot struct {
	GeneratedAt time.Time
	Players     PlayerDataset
}

type LeaderboardEntry struct {
	Rank    int
	Name    string
	LP      int
	Winrate float64
	Wins    int
	Losses  int
	Tier    string
}

type LeaderboardSnapshot struct {
	GeneratedAt time.Time
	Regions     map[string][]LeaderboardEntry
}
