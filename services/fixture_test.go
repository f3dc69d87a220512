package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/debate-tournament/brackets"
	"github.com/Dosada05/debate-tournament/docstore"
	"github.com/Dosada05/debate-tournament/metrics"
	"github.com/Dosada05/debate-tournament/models"
	"github.com/Dosada05/debate-tournament/repositories"
)

type recordedEvent struct {
	Room    string
	Type    string
	Payload interface{}
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (n *recordingNotifier) Publish(roomID, eventType string, payload interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, recordedEvent{Room: roomID, Type: eventType, Payload: payload})
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.Type)
	}
	return out
}

type memoryCache struct {
	mu          sync.Mutex
	teams       []*models.Team
	set         bool
	generation  int64
	invalidated int
}

func (c *memoryCache) GetRankings(context.Context) ([]*models.Team, int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.teams, c.generation, c.set
}

func (c *memoryCache) SetRankings(_ context.Context, generation int64, teams []*models.Team) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generation {
		return
	}
	c.teams, c.set = teams, true
}

func (c *memoryCache) Invalidate(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teams, c.set = nil, false
	c.generation++
	c.invalidated++
}

type fixture struct {
	ctx          context.Context
	store        *docstore.Memory
	teams        repositories.TeamRepository
	participants repositories.ParticipantRepository
	matches      repositories.MatchRepository
	rounds       repositories.RoundRepository
	notifier     *recordingNotifier
	cache        *memoryCache

	teamService      TeamService
	pairingService   PairingService
	matchService     MatchService
	standingsService StandingsService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := docstore.NewMemory()
	m := metrics.New(prometheus.NewRegistry())

	f := &fixture{
		ctx:          context.Background(),
		store:        store,
		teams:        repositories.NewTeamRepository(store),
		participants: repositories.NewParticipantRepository(store),
		matches:      repositories.NewMatchRepository(store),
		rounds:       repositories.NewRoundRepository(store),
		notifier:     &recordingNotifier{},
		cache:        &memoryCache{},
	}
	roster := NewRosterService(f.participants, logger)
	f.teamService = NewTeamService(f.teams, f.participants, f.cache, f.notifier, logger)
	f.pairingService = NewPairingService(f.teams, f.matches, f.rounds, roster,
		brackets.NewRandomGenerator(rand.New(rand.NewPCG(11, 13))), f.notifier, m, logger)
	f.matchService = NewMatchService(store, f.matches, f.rounds, f.teams, f.cache, f.notifier, m, logger)
	f.standingsService = NewStandingsService(f.teams, f.matches, f.rounds, f.cache, m, logger)
	return f
}

// registerTeams creates n teams named "Team 1".."Team n", each with two
// speakers and a policy speaker.
func (f *fixture) registerTeams(t *testing.T, n int) []*models.Team {
	t.Helper()
	out := make([]*models.Team, 0, n)
	for i := 1; i <= n; i++ {
		team, err := f.teamService.RegisterTeam(f.ctx, RegisterTeamInput{
			Name: fmt.Sprintf("Team %d", i),
			Participants: []ParticipantInput{
				{Name: fmt.Sprintf("T%d Speaker One", i), Role: "Speaker1"},
				{Name: fmt.Sprintf("T%d Speaker Two", i), Role: "speaker2"},
				{Name: fmt.Sprintf("T%d Policy", i), Role: "POLICY"},
			},
		})
		require.NoError(t, err)
		out = append(out, team)
	}
	return out
}

// setRecord overwrites a team's cumulative counters.
func (f *fixture) setRecord(t *testing.T, teamID string, score, wins int) {
	t.Helper()
	require.NoError(t, f.store.Update(f.ctx, docstore.Join("teams", teamID), []docstore.Update{
		{Path: "totalScore", Value: score},
		{Path: "wins", Value: wins},
	}))
}

// saveMatch writes a match directly, bypassing pairing.
func (f *fixture) saveMatch(t *testing.T, stage models.Stage, seq int, a, b *models.Team, totalA, totalB int, completed bool) *models.Match {
	t.Helper()
	m := &models.Match{
		ID:     models.MatchID(stage, seq),
		Stage:  stage,
		Status: models.MatchStatusScheduled,
		SideA:  models.SideBinding{TeamID: a.ID, TeamName: a.Name, TotalScore: totalA},
		SideB:  models.SideBinding{TeamID: b.ID, TeamName: b.Name, TotalScore: totalB},
	}
	if completed {
		m.Status = models.MatchStatusCompleted
		switch {
		case totalA > totalB:
			m.Winner = &a.ID
		case totalB > totalA:
			m.Winner = &b.ID
		}
	}
	require.NoError(t, f.matches.Save(f.ctx, m))
	return m
}

func (f *fixture) team(t *testing.T, id string) *models.Team {
	t.Helper()
	team, err := f.teams.GetByID(f.ctx, id)
	require.NoError(t, err)
	return team
}

// fillRound sets every criterion of every entry on side to value.
func (f *fixture) fillRound(t *testing.T, matchID string, round models.Round, side models.Side, value int) {
	t.Helper()
	var edits []ScoreEdit
	switch round.Scores.Kind {
	case models.ScoreKindTeam:
		for criterion := range round.Scores.Team[side] {
			edits = append(edits, ScoreEdit{Side: side, Criterion: criterion, Value: value})
		}
	case models.ScoreKindParticipant:
		for id, entry := range round.Scores.Participants[side] {
			for criterion := range entry.Criteria {
				edits = append(edits, ScoreEdit{Side: side, ParticipantID: id, Criterion: criterion, Value: value})
			}
		}
	}
	if len(edits) == 0 {
		return
	}
	_, err := f.matchService.SaveRoundScores(f.ctx, matchID, round.ID, edits)
	require.NoError(t, err)
}
