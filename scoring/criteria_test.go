package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Dosada05/debate-tournament/models"
)

func TestCriteriaFor(t *testing.T) {
	assert.Equal(t, []string{"matter", "manner", "method"}, CriteriaFor(1))
	assert.Equal(t, []string{"matter", "manner", "feasibilitycreativity"}, CriteriaFor(2))
	assert.Equal(t, []string{"questions", "answers", "answertoadjudicator"}, CriteriaFor(3))
	assert.Nil(t, CriteriaFor(4))
}

func TestMaxFor(t *testing.T) {
	tests := []struct {
		round int
		name  string
		want  int
	}{
		{1, "matter", 8},
		{1, "Manner", 6},
		{2, "matter", 15},
		{2, "FeasibilityCreativity", 10},
		{3, "answertoadjudicator", 5},
		{3, "matter", UnboundedMax},
		{7, "matter", UnboundedMax},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MaxFor(tt.round, tt.name), "round %d %s", tt.round, tt.name)
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0, Clamp(3, "questions", -5))
	assert.Equal(t, 10, Clamp(3, "questions", 999))
	assert.Equal(t, 7, Clamp(1, "matter", 7))
	assert.Equal(t, 9999, Clamp(9, "anything", 20000))
}

func TestRoundNames(t *testing.T) {
	assert.Equal(t, "round 2", RoundName(2))

	n, ok := RoundNumberFromName("Round 3")
	assert.True(t, ok)
	assert.Equal(t, 3, n)

	_, ok = RoundNumberFromName("final")
	assert.False(t, ok)
	_, ok = RoundNumberFromName("round zero")
	assert.False(t, ok)
}

func TestKindFor(t *testing.T) {
	assert.Equal(t, models.ScoreKindParticipant, KindFor(1))
	assert.Equal(t, models.ScoreKindParticipant, KindFor(2))
	assert.Equal(t, models.ScoreKindTeam, KindFor(3))
}
