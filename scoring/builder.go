package scoring

import (
	"github.com/google/uuid"

	"github.com/Dosada05/debate-tournament/models"
)

// BuildRoundScores returns the zeroed score structure of a round for the
// given side rosters. Round 3 ignores the rosters.
func BuildRoundScores(roundNumber int, sideA, sideB []models.Participant) models.RoundScores {
	names := CriteriaFor(roundNumber)
	kind := KindFor(roundNumber)

	if kind == models.ScoreKindTeam {
		return models.RoundScores{
			Kind: kind,
			Team: map[models.Side]map[string]int{
				models.SideA: zeroCriteria(names),
				models.SideB: zeroCriteria(names),
			},
		}
	}

	return models.RoundScores{
		Kind: kind,
		Participants: map[models.Side]map[string]models.ParticipantScore{
			models.SideA: participantEntries(sideA, names),
			models.SideB: participantEntries(sideB, names),
		},
	}
}

func participantEntries(roster []models.Participant, names []string) map[string]models.ParticipantScore {
	entries := make(map[string]models.ParticipantScore, len(roster))
	for _, p := range roster {
		key := participantKey(p)
		entries[key] = models.ParticipantScore{
			ID:       key,
			Name:     p.Name,
			Role:     p.Role,
			TeamID:   p.TeamID,
			RootID:   p.RootID,
			Criteria: zeroCriteria(names),
		}
	}
	return entries
}

// participantKey prefers the participant id, then the root id, then a fresh id.
func participantKey(p models.Participant) string {
	switch {
	case p.ID != "":
		return p.ID
	case p.RootID != "":
		return p.RootID
	}
	return uuid.NewString()[:8]
}

func zeroCriteria(names []string) map[string]int {
	out := make(map[string]int, len(names))
	for _, n := range names {
		out[n] = 0
	}
	return out
}
