package domain

// Games shorter than this are remakes and never produce a MatchRecord
const MinMatchDurationSeconds = 300

type Role string

const (
	RoleTop     Role = "TOP"
	RoleJungle  Role = "JUNGLE"
	RoleMiddle  Role = "MIDDLE"
	RoleBottom  Role = "BOTTOM"
	RoleUtility Role = "UTILITY"
	RoleNone    Role = ""
)

// Unknown positions (e.g. "Invalid" in non-draft queues) map to RoleNone
func ParseRole(position string) Role {
	switch Role(position) {
	case RoleTop, RoleJungle, RoleMiddle, RoleBottom, RoleUtility:
		return Role(position)
	default:
		return RoleNone
	}
}

// MatchDetails is the provider agnostic view of one played match
type MatchDetails struct {
	MatchID          string
	GameEndTimestamp int64
	DurationSeconds  int
	Participants     []ParticipantStats
}

type ParticipantStats struct {
	PUUID                string
	ChampionName         string
	TeamPosition         string
	Win                  bool
	Kills                int
	Deaths               int
	Assists              int
	KDA                  *float64
	DamageToChampions    int
	GoldEarned           int
	MinionsKilled        int
	NeutralMinionsKilled int
	VisionScore          int
	WardsPlaced          int
	WardsKilled          int
}

func (m MatchDetails) Participant(puuid string) (ParticipantStats, bool) {
	for _, participant := range m.Participants {
		if participant.PUUID == puuid {
			return participant, true
		}
	}
	return ParticipantStats{}, false
}

// MatchRecord is one player's performance in one match
type MatchRecord struct {
	MatchID          string
	GameEndTimestamp int64
	DurationSeconds  int
	Win              bool
	Champion         string
	Role             Role
	Kills            int
	Deaths           int
	Assists          int
	KDA              float64
	DamageTotal      int
	DPM              float64
	GoldTotal        int
	GPM              float64
	CSTotal          int
	CSPerMin         float64
	VisionScore      int
	WardsPlaced      int
	WardsKilled      int
}
