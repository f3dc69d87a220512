package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/debate-tournament/brackets"
	"github.com/Dosada05/debate-tournament/models"
	"github.com/Dosada05/debate-tournament/repositories"
	"github.com/Dosada05/debate-tournament/scoring"
)

// pairedMatch registers two teams and pairs them as match-1-1.
func pairedMatch(t *testing.T, f *fixture) (*models.Team, *models.Team, *MatchView) {
	t.Helper()
	teams := f.registerTeams(t, 2)
	_, err := f.pairingService.ManualPairings(f.ctx, models.StageMatch1, []TeamPair{{TeamA: teams[0].ID, TeamB: teams[1].ID}})
	require.NoError(t, err)
	view, err := f.matchService.GetMatch(f.ctx, "match-1-1")
	require.NoError(t, err)
	require.Len(t, view.Rounds, 3)
	return teams[0], teams[1], view
}

func firstParticipant(t *testing.T, round models.Round, side models.Side) string {
	t.Helper()
	for id := range round.Scores.Participants[side] {
		return id
	}
	t.Fatalf("round %d has no participants on %s", round.Number, side)
	return ""
}

func TestSaveRoundScoresClampsValues(t *testing.T) {
	f := newFixture(t)
	_, _, view := pairedMatch(t, f)
	round := view.Rounds[0]
	pid := firstParticipant(t, round, models.SideA)

	saved, err := f.matchService.SaveRoundScores(f.ctx, "match-1-1", round.ID, []ScoreEdit{
		{Side: models.SideA, ParticipantID: pid, Criterion: "Matter", Value: 20},
		{Side: models.SideA, ParticipantID: pid, Criterion: "manner", Value: -3},
		{Side: models.SideA, ParticipantID: pid, Criterion: "method", Value: 4},
	})
	require.NoError(t, err)
	entry := saved.Scores.Participants[models.SideA][pid]
	assert.Equal(t, 8, entry.Criteria["matter"])
	assert.Equal(t, 0, entry.Criteria["manner"])
	assert.Equal(t, 4, entry.Criteria["method"])

	total, err := f.matchService.ComputeSideTotal(f.ctx, "match-1-1", models.SideA)
	require.NoError(t, err)
	assert.Equal(t, 12, total)

	reloaded, err := f.matchService.GetMatch(f.ctx, "match-1-1")
	require.NoError(t, err)
	assert.Equal(t, 12, reloaded.TotalA)
	assert.Equal(t, 0, reloaded.TotalB)
	assert.Contains(t, f.notifier.types(), brackets.EventScoresSaved)
}

func TestSaveRoundScoresSkipsUnchangedEdits(t *testing.T) {
	f := newFixture(t)
	_, _, view := pairedMatch(t, f)
	round := view.Rounds[2]
	countSaved := func() int {
		n := 0
		for _, typ := range f.notifier.types() {
			if typ == brackets.EventScoresSaved {
				n++
			}
		}
		return n
	}

	_, err := f.matchService.SaveRoundScores(f.ctx, "match-1-1", round.ID, []ScoreEdit{
		{Side: models.SideB, Criterion: "questions", Value: 0},
	})
	require.NoError(t, err)
	assert.Zero(t, countSaved(), "zero over zero is not a change")

	_, err = f.matchService.SaveRoundScores(f.ctx, "match-1-1", round.ID, []ScoreEdit{
		{Side: models.SideB, Criterion: "questions", Value: 7},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, countSaved())

	again, err := f.matchService.SaveRoundScores(f.ctx, "match-1-1", round.ID, []ScoreEdit{
		{Side: models.SideB, Criterion: "questions", Value: 7},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, countSaved())
	assert.Equal(t, 7, again.Scores.Team[models.SideB]["questions"])
}

func TestSaveRoundScoresRejectsBadEdits(t *testing.T) {
	f := newFixture(t)
	_, _, view := pairedMatch(t, f)
	round := view.Rounds[0]
	pid := firstParticipant(t, round, models.SideA)

	_, err := f.matchService.SaveRoundScores(f.ctx, "match-1-1", round.ID, nil)
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = f.matchService.SaveRoundScores(f.ctx, "match-1-1", round.ID, []ScoreEdit{
		{Side: models.SideA, ParticipantID: pid, Criterion: "questions", Value: 5},
	})
	assert.ErrorIs(t, err, ErrValidationFailed)
	assert.ErrorIs(t, err, scoring.ErrUnknownCriterion)

	_, err = f.matchService.SaveRoundScores(f.ctx, "match-1-1", round.ID, []ScoreEdit{
		{Side: models.SideA, ParticipantID: "nobody", Criterion: "matter", Value: 5},
	})
	assert.ErrorIs(t, err, models.ErrUnknownParticipant)

	_, err = f.matchService.SaveRoundScores(f.ctx, "match-1-1", "missing", []ScoreEdit{
		{Side: models.SideA, ParticipantID: pid, Criterion: "matter", Value: 5},
	})
	assert.ErrorIs(t, err, repositories.ErrRoundNotFound)

	stored, err := f.rounds.Get(f.ctx, "match-1-1", round.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.Scores.SideTotal(models.SideA), "rejected edits are not persisted")
}

func TestFinalizeMatchUpdatesStandings(t *testing.T) {
	f := newFixture(t)
	a, b, view := pairedMatch(t, f)
	f.fillRound(t, "match-1-1", view.Rounds[0], models.SideA, 5)
	f.fillRound(t, "match-1-1", view.Rounds[0], models.SideB, 3)
	f.fillRound(t, "match-1-1", view.Rounds[2], models.SideB, 2)
	invalidatedBefore := f.cache.invalidated

	m, err := f.matchService.FinalizeMatch(f.ctx, "match-1-1")
	require.NoError(t, err)
	// Side A: two speakers at 5 on three criteria. Side B: 2*3*3 + 3*2.
	assert.Equal(t, 30, m.SideA.TotalScore)
	assert.Equal(t, 24, m.SideB.TotalScore)
	require.NotNil(t, m.Winner)
	assert.Equal(t, a.ID, *m.Winner)
	assert.Equal(t, models.MatchStatusCompleted, m.Status)
	assert.NotNil(t, m.CompletedAt)

	stored, err := f.matches.GetByID(f.ctx, "match-1-1")
	require.NoError(t, err)
	assert.True(t, stored.IsCompleted())
	assert.Equal(t, a.ID, derefString(stored.Winner))

	teamA, teamB := f.team(t, a.ID), f.team(t, b.ID)
	assert.Equal(t, 30, teamA.TotalScore)
	assert.Equal(t, 1, teamA.Wins)
	assert.Equal(t, 0, teamA.Losses)
	assert.Equal(t, 1, teamA.MatchesPlayed)
	assert.Equal(t, 24, teamB.TotalScore)
	assert.Equal(t, 0, teamB.Wins)
	assert.Equal(t, 1, teamB.Losses)
	assert.Equal(t, 1, teamB.MatchesPlayed)

	assert.Equal(t, invalidatedBefore+1, f.cache.invalidated)
	assert.Contains(t, f.notifier.types(), brackets.EventMatchEnded)
}

func TestEndMatchOnlyOnce(t *testing.T) {
	f := newFixture(t)
	a, b, view := pairedMatch(t, f)
	f.fillRound(t, "match-1-1", view.Rounds[0], models.SideB, 1)

	_, err := f.matchService.FinalizeMatch(f.ctx, "match-1-1")
	require.NoError(t, err)

	_, err = f.matchService.EndMatch(f.ctx, EndMatchInput{
		MatchID: "match-1-1", SideATeamID: a.ID, SideBTeamID: b.ID, TotalA: 50, TotalB: 0,
	})
	assert.ErrorIs(t, err, ErrMatchAlreadyCompleted)

	_, err = f.matchService.SaveRoundScores(f.ctx, "match-1-1", view.Rounds[0].ID, []ScoreEdit{
		{Side: models.SideA, ParticipantID: firstParticipant(t, view.Rounds[0], models.SideA), Criterion: "matter", Value: 5},
	})
	assert.ErrorIs(t, err, ErrMatchAlreadyCompleted)

	teamA, teamB := f.team(t, a.ID), f.team(t, b.ID)
	assert.Equal(t, 0, teamA.TotalScore)
	assert.Equal(t, 1, teamA.MatchesPlayed)
	assert.Equal(t, 6, teamB.TotalScore)
	assert.Equal(t, 1, teamB.Wins)
}

func TestConcurrentEndMatchAppliesOnce(t *testing.T) {
	f := newFixture(t)
	a, b, _ := pairedMatch(t, f)
	input := EndMatchInput{MatchID: "match-1-1", SideATeamID: a.ID, SideBTeamID: b.ID, TotalA: 40, TotalB: 35}

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.matchService.EndMatch(f.ctx, input)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrMatchAlreadyCompleted)
	}
	assert.Equal(t, 1, succeeded)

	teamA := f.team(t, a.ID)
	assert.Equal(t, 40, teamA.TotalScore)
	assert.Equal(t, 1, teamA.Wins)
	assert.Equal(t, 1, teamA.MatchesPlayed)
}

func TestPreliminaryTieHasNoWinner(t *testing.T) {
	f := newFixture(t)
	a, b, _ := pairedMatch(t, f)

	m, err := f.matchService.FinalizeMatch(f.ctx, "match-1-1")
	require.NoError(t, err)
	assert.Nil(t, m.Winner)
	assert.True(t, m.IsCompleted())

	for _, id := range []string{a.ID, b.ID} {
		team := f.team(t, id)
		assert.Equal(t, 1, team.MatchesPlayed)
		assert.Zero(t, team.Wins)
		assert.Zero(t, team.Losses)
	}
}

func TestEliminationTieIsRejected(t *testing.T) {
	f := newFixture(t)
	teams := f.registerTeams(t, 2)
	f.saveMatch(t, models.StageQuarterfinal, 1, teams[0], teams[1], 0, 0, false)

	_, err := f.matchService.EndMatch(f.ctx, EndMatchInput{
		MatchID: "match-4-1", SideATeamID: teams[0].ID, SideBTeamID: teams[1].ID, TotalA: 33, TotalB: 33,
	})
	assert.ErrorIs(t, err, ErrTiedEliminationMatch)

	stored, err := f.matches.GetByID(f.ctx, "match-4-1")
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusScheduled, stored.Status)
	assert.Zero(t, f.team(t, teams[0].ID).MatchesPlayed)

	m, err := f.matchService.EndMatch(f.ctx, EndMatchInput{
		MatchID: "match-4-1", SideATeamID: teams[0].ID, SideBTeamID: teams[1].ID, TotalA: 33, TotalB: 34,
	})
	require.NoError(t, err)
	assert.Equal(t, teams[1].ID, derefString(m.Winner))
}

func TestEndMatchValidation(t *testing.T) {
	f := newFixture(t)
	a, b, _ := pairedMatch(t, f)

	tests := []struct {
		name  string
		input EndMatchInput
		want  error
	}{
		{"missing match id", EndMatchInput{SideATeamID: a.ID, SideBTeamID: b.ID}, ErrValidationFailed},
		{"same team twice", EndMatchInput{MatchID: "match-1-1", SideATeamID: a.ID, SideBTeamID: a.ID}, ErrTeamSelectionRequired},
		{"negative total", EndMatchInput{MatchID: "match-1-1", SideATeamID: a.ID, SideBTeamID: b.ID, TotalA: -1}, ErrValidationFailed},
		{"swapped sides", EndMatchInput{MatchID: "match-1-1", SideATeamID: b.ID, SideBTeamID: a.ID, TotalA: 1}, ErrTeamMismatch},
		{"unknown match", EndMatchInput{MatchID: "match-3-9", SideATeamID: a.ID, SideBTeamID: b.ID}, repositories.ErrMatchNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.matchService.EndMatch(f.ctx, tt.input)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	stored, err := f.matches.GetByID(f.ctx, "match-1-1")
	require.NoError(t, err)
	assert.False(t, stored.IsCompleted())
}

func TestListStageMatches(t *testing.T) {
	f := newFixture(t)
	f.registerTeams(t, 4)
	_, err := f.pairingService.Generate(f.ctx, models.StageMatch1, GenerateStageInput{})
	require.NoError(t, err)

	matches, err := f.matchService.ListStageMatches(f.ctx, models.StageMatch1)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "match-1-1", matches[0].ID)

	_, err = f.matchService.ListStageMatches(f.ctx, models.Stage("Match 9"))
	assert.ErrorIs(t, err, ErrUnknownStage)
}
