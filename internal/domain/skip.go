package domain

type SkipReason string

const (
	SkipIdentityUnresolved  SkipReason = "identity_unresolved"
	SkipMatchListIncomplete SkipReason = "match_list_incomplete"
	SkipNoMatches           SkipReason = "no_matches"
	SkipMatchUnavailable    SkipReason = "match_unavailable"
	SkipRemake              SkipReason = "remake"
	SkipParticipantMissing  SkipReason = "participant_missing"
	SkipNoValidMatches      SkipReason = "no_valid_matches"
	SkipLeagueUnavailable   SkipReason = "league_unavailable"
)

// Skip records an item that was left out of a result without failing the run
type Skip struct {
	Player  string
	MatchID string
	Reason  SkipReason
	Detail  string
}

func CountSkips(skips []Skip) map[SkipReason]int {
	counts := make(map[SkipReason]int)
	for _, skip := range skips {
		counts[skip.Reason]++
	}
	return counts
}
