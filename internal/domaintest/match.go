package domaintest

import (
	"github.com/riftstats/riftstats/internal/domain"
)

type matchBuilder struct {
	match *domain.MatchDetails
}

func (mb *matchBuilder) WithDuration(seconds int) *matchBuilder {
	mb.match.DurationSeconds = seconds
	return mb
}

func (mb *matchBuilder) WithGameEnd(timestampMillis int64) *matchBuilder {
	mb.match.GameEndTimestamp = timestampMillis
	return mb
}

func (mb *matchBuilder) WithParticipant(participant domain.ParticipantStats) *matchBuilder {
	mb.match.Participants = append(mb.match.Participants, participant)
	return mb
}

func (mb *matchBuilder) Build() domain.MatchDetails {
	// Copy the participants, so further mutations to the builder don't affect the returned match
	match := *mb.match
	match.Participants = append([]domain.ParticipantStats{}, mb.match.Participants...)
	return match
}

// NewMatchBuilder starts a 30 minute match without participants
func NewMatchBuilder(matchID string) *matchBuilder {
	return &matchBuilder{
		match: &domain.MatchDetails{
			MatchID:          matchID,
			GameEndTimestamp: 1735740000000,
			DurationSeconds:  1800,
		},
	}
}

type participantBuilder struct {
	participant *domain.ParticipantStats
}

func (pb *participantBuilder) WithChampion(champion string, position string) *participantBuilder {
	pb.participant.ChampionName = champion
	pb.participant.TeamPosition = position
	return pb
}

func (pb *participantBuilder) WithWin(win bool) *participantBuilder {
	pb.participant.Win = win
	return pb
}

func (pb *participantBuilder) WithKDA(kills, deaths, assists int, kda float64) *participantBuilder {
	pb.participant.Kills = kills
	pb.participant.Deaths = deaths
	pb.participant.Assists = assists
	pb.participant.KDA = &kda
	return pb
}

func (pb *participantBuilder) WithoutKDA() *participantBuilder {
	pb.participant.KDA = nil
	return pb
}

func (pb *participantBuilder) WithEconomy(damage, gold, minions, neutralMinions int) *participantBuilder {
	pb.participant.DamageToChampions = damage
	pb.participant.GoldEarned = gold
	pb.participant.MinionsKilled = minions
	pb.participant.NeutralMinionsKilled = neutralMinions
	return pb
}

func (pb *participantBuilder) WithVision(score, placed, killed int) *participantBuilder {
	pb.participant.VisionScore = score
	pb.participant.WardsPlaced = placed
	pb.participant.WardsKilled = killed
	return pb
}

func (pb *participantBuilder) Build() domain.ParticipantStats {
	participant := *pb.participant
	if pb.participant.KDA != nil {
		kda := *pb.participant.KDA
		participant.KDA = &kda
	}
	return participant
}

func NewParticipantBuilder(puuid string) *participantBuilder {
	kda := 3.0
	return &participantBuilder{
		participant: &domain.ParticipantStats{
			PUUID:        puuid,
			ChampionName: "Ahri",
			TeamPosition: "MIDDLE",
			Kills:        5,
			Deaths:       3,
			Assists:      4,
			KDA:          &kda,
		},
	}
}
