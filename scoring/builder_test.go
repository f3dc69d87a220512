package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/debate-tournament/models"
)

func roster(teamID string, ids ...string) []models.Participant {
	out := make([]models.Participant, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.Participant{ID: id, Name: "name-" + id, Role: models.RoleSpeaker1, TeamID: teamID})
	}
	return out
}

func TestBuildRoundScoresParticipantLevel(t *testing.T) {
	scores := BuildRoundScores(1, roster("ta", "a1", "a2"), roster("tb", "b1"))

	require.Equal(t, models.ScoreKindParticipant, scores.Kind)
	assert.Nil(t, scores.Team)
	require.Len(t, scores.Participants[models.SideA], 2)
	require.Len(t, scores.Participants[models.SideB], 1)

	entry := scores.Participants[models.SideA]["a1"]
	assert.Equal(t, "a1", entry.ID)
	assert.Equal(t, "name-a1", entry.Name)
	assert.Equal(t, "ta", entry.TeamID)
	assert.Equal(t, map[string]int{"matter": 0, "manner": 0, "method": 0}, entry.Criteria)
}

func TestBuildRoundScoresTeamLevel(t *testing.T) {
	scores := BuildRoundScores(3, roster("ta", "a1"), nil)

	require.Equal(t, models.ScoreKindTeam, scores.Kind)
	assert.Nil(t, scores.Participants)
	want := map[string]int{"questions": 0, "answers": 0, "answertoadjudicator": 0}
	assert.Equal(t, want, scores.Team[models.SideA])
	assert.Equal(t, want, scores.Team[models.SideB])
}

func TestBuildRoundScoresIdentifierFallback(t *testing.T) {
	sideA := []models.Participant{
		{RootID: "root-1", Name: "Rooted"},
		{Name: "Anonymous"},
	}
	scores := BuildRoundScores(2, sideA, nil)

	entries := scores.Participants[models.SideA]
	require.Len(t, entries, 2)
	assert.Contains(t, entries, "root-1")
	for key, entry := range entries {
		assert.NotEmpty(t, key)
		assert.Equal(t, key, entry.ID)
	}
	assert.Empty(t, scores.Participants[models.SideB])
}
