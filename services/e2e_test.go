package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/debate-tournament/models"
)

// TestTournamentFlow runs two teams of three through a judged match and the
// pairing of the next stage.
func TestTournamentFlow(t *testing.T) {
	f := newFixture(t)
	teams := f.registerTeams(t, 2)

	first, err := f.pairingService.Generate(f.ctx, models.StageMatch1, GenerateStageInput{})
	require.NoError(t, err)
	require.Equal(t, []string{"match-1-1"}, first.MatchIDs)

	view, err := f.matchService.GetMatch(f.ctx, "match-1-1")
	require.NoError(t, err)
	for _, side := range models.Sides {
		require.Len(t, view.Rounds[0].Scores.Participants[side], 2)
		require.Len(t, view.Rounds[1].Scores.Participants[side], 1)
	}

	winnerSide := view.Match.SideA
	for _, r := range view.Rounds {
		f.fillRound(t, "match-1-1", r, models.SideA, 4)
		f.fillRound(t, "match-1-1", r, models.SideB, 2)
	}

	live, err := f.matchService.GetMatch(f.ctx, "match-1-1")
	require.NoError(t, err)
	// Round 1: 2 speakers x 3 criteria, round 2: 3 criteria, round 3: 3 criteria.
	assert.Equal(t, 4*12, live.TotalA)
	assert.Equal(t, 2*12, live.TotalB)

	ended, err := f.matchService.FinalizeMatch(f.ctx, "match-1-1")
	require.NoError(t, err)
	assert.Equal(t, winnerSide.TeamID, derefString(ended.Winner))

	ranked, err := f.standingsService.Rankings(f.ctx)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, winnerSide.TeamID, ranked[0].ID)
	assert.Equal(t, 48, ranked[0].TotalScore)
	assert.Equal(t, 1, ranked[1].Losses)

	speakers, err := f.standingsService.SpeakerRankings(f.ctx)
	require.NoError(t, err)
	require.Len(t, speakers, 4)
	assert.Equal(t, 12, speakers[0].TotalScore)
	assert.Equal(t, winnerSide.TeamID, speakers[0].TeamID)

	second, err := f.pairingService.Generate(f.ctx, models.StageMatch2, GenerateStageInput{})
	require.NoError(t, err)
	require.Equal(t, []string{"match-2-1"}, second.MatchIDs)

	rematch, err := f.matches.GetByID(f.ctx, "match-2-1")
	require.NoError(t, err)
	assert.Equal(t, winnerSide.TeamID, rematch.SideA.TeamID)
	assert.ElementsMatch(t, []string{teams[0].ID, teams[1].ID}, []string{rematch.SideA.TeamID, rematch.SideB.TeamID})
}
