package app

import (
	"log/slog"

	"github.com/riftstats/riftstats/internal/domain"
)

type ChampionSummary struct {
	Champion string
	Games    int
	Winrate  float64
	DPM      float64
}

type PlayerSummary struct {
	Games   int
	Winrate float64

	MostPlayed  ChampionSummary
	BestWinrate ChampionSummary
	TopDPM      ChampionSummary
}

// SummarizeRecords aggregates a player's records per champion.
// Ties go to the champion that appears first in records.
// Returns false when there are no records.
func SummarizeRecords(records []domain.MatchRecord) (PlayerSummary, bool) {
	if len(records) == 0 {
		return PlayerSummary{}, false
	}

	type totals struct {
		games int
		wins  int
		dpm   float64
	}

	order := []string{}
	byChampion := map[string]*totals{}
	wins := 0
	for _, record := range records {
		t, ok := byChampion[record.Champion]
		if !ok {
			t = &totals{}
			byChampion[record.Champion] = t
			order = append(order, record.Champion)
		}
		t.games++
		t.dpm += record.DPM
		if record.Win {
			t.wins++
			wins++
		}
	}

	champions := make([]ChampionSummary, 0, len(order))
	for _, champion := range order {
		t := byChampion[champion]
		champions = append(champions, ChampionSummary{
			Champion: champion,
			Games:    t.games,
			Winrate:  float64(t.wins) / float64(t.games) * 100,
			DPM:      t.dpm / float64(t.games),
		})
	}

	// One-off games only count towards best winrate when nothing was played twice
	pool := []ChampionSummary{}
	for _, champion := range champions {
		if champion.Games > 1 {
			pool = append(pool, champion)
		}
	}
	if len(pool) == 0 {
		pool = champions
	}

	return PlayerSummary{
		Games:       len(records),
		Winrate:     float64(wins) / float64(len(records)) * 100,
		MostPlayed:  firstMax(champions, func(c ChampionSummary) float64 { return float64(c.Games) }),
		BestWinrate: firstMax(pool, func(c ChampionSummary) float64 { return c.Winrate }),
		TopDPM:      firstMax(champions, func(c ChampionSummary) float64 { return c.DPM }),
	}, true
}

func firstMax(champions []ChampionSummary, key func(ChampionSummary) float64) ChampionSummary {
	best := champions[0]
	for _, champion := range champions[1:] {
		if key(champion) > key(best) {
			best = champion
		}
	}
	return best
}

func (s PlayerSummary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("games", s.Games),
		slog.Float64("winrate", s.Winrate),
		slog.String("mostPlayed", s.MostPlayed.Champion),
		slog.String("bestWinrate", s.BestWinrate.Champion),
		slog.String("topDPM", s.TopDPM.Champion),
	)
}
