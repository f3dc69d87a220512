package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/debate-tournament/models"
)

func fillRound(t *testing.T, number int, sideA, sideB []models.Participant, value int) models.Round {
	t.Helper()
	scores := BuildRoundScores(number, sideA, sideB)
	for _, side := range models.Sides {
		switch scores.Kind {
		case models.ScoreKindTeam:
			for _, name := range CriteriaFor(number) {
				require.NoError(t, scores.Set(side, "", name, value))
			}
		case models.ScoreKindParticipant:
			for id := range scores.Participants[side] {
				for _, name := range CriteriaFor(number) {
					require.NoError(t, scores.Set(side, id, name, value))
				}
			}
		}
	}
	return models.Round{Number: number, Scores: scores}
}

func TestSideTotalProperties(t *testing.T) {
	const value = 2
	a := roster("ta", "a1", "a2", "a3")
	b := roster("tb", "b1", "b2", "b3")

	participantRound := fillRound(t, 1, a, b, value)
	// N criteria * value * P participants
	assert.Equal(t, 3*value*3, participantRound.Scores.SideTotal(models.SideA))

	teamRound := fillRound(t, 3, a, b, value)
	// N criteria * value
	assert.Equal(t, 3*value, teamRound.Scores.SideTotal(models.SideB))

	rounds := []models.Round{participantRound, fillRound(t, 2, a[:1], b[:1], value), teamRound}
	totalA, totalB := MatchTotals(rounds)
	assert.Equal(t, 18+6+6, totalA)
	assert.Equal(t, totalA, totalB)
	assert.Equal(t, totalA, SideTotal(rounds, models.SideA))
}

func TestWinner(t *testing.T) {
	side, ok := Winner(10, 4)
	assert.True(t, ok)
	assert.Equal(t, models.SideA, side)

	side, ok = Winner(3, 4)
	assert.True(t, ok)
	assert.Equal(t, models.SideB, side)

	_, ok = Winner(5, 5)
	assert.False(t, ok)
}
