package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/debate-tournament/metrics"
	"github.com/Dosada05/debate-tournament/models"
	"github.com/Dosada05/debate-tournament/repositories"
)

// roundLoadConcurrency bounds parallel round reads when building rankings.
const roundLoadConcurrency = 8

// BracketView groups the elimination matches by stage, each in id order.
type BracketView struct {
	Quarterfinals []*models.Match `json:"quarterfinals"`
	Semifinals    []*models.Match `json:"semifinals"`
	Final         []*models.Match `json:"final"`
}

type StandingsService interface {
	// Rankings orders teams by total score, then wins, both descending.
	Rankings(ctx context.Context) ([]*models.Team, error)
	// SpeakerRankings sums round 1 criteria per participant over the preliminary stages.
	SpeakerRankings(ctx context.Context) ([]models.IndividualStanding, error)
	// PolicyRankings sums round 2 criteria per policy speaker over the preliminary stages.
	PolicyRankings(ctx context.Context) ([]models.IndividualStanding, error)
	Bracket(ctx context.Context) (*BracketView, error)
}

type standingsService struct {
	teams   repositories.TeamRepository
	matches repositories.MatchRepository
	rounds  repositories.RoundRepository
	cache   StandingsCache
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewStandingsService(
	teams repositories.TeamRepository,
	matches repositories.MatchRepository,
	rounds repositories.RoundRepository,
	cache StandingsCache,
	m *metrics.Metrics,
	logger *slog.Logger,
) StandingsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &standingsService{
		teams:   teams,
		matches: matches,
		rounds:  rounds,
		cache:   cacheOrNoop(cache),
		metrics: m,
		logger:  logger,
	}
}

// RankTeams sorts in place; remaining ties are broken by name.
func RankTeams(teams []*models.Team) {
	sort.SliceStable(teams, func(i, j int) bool {
		a, b := teams[i], teams[j]
		if a.TotalScore != b.TotalScore {
			return a.TotalScore > b.TotalScore
		}
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		return a.Name < b.Name
	})
}

func (s *standingsService) Rankings(ctx context.Context) ([]*models.Team, error) {
	cached, generation, ok := s.cache.GetRankings(ctx)
	if ok {
		s.metrics.StandingsCacheLookup(true)
		return cached, nil
	}
	s.metrics.StandingsCacheLookup(false)

	teams, err := s.teams.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load teams for rankings: %w", err)
	}
	RankTeams(teams)
	s.cache.SetRankings(ctx, generation, teams)
	return teams, nil
}

func (s *standingsService) SpeakerRankings(ctx context.Context) ([]models.IndividualStanding, error) {
	return s.individualRankings(ctx, 1, func(p models.ParticipantScore) bool {
		return p.Role == "" || p.Role.IsSpeaker()
	})
}

func (s *standingsService) PolicyRankings(ctx context.Context) ([]models.IndividualStanding, error) {
	return s.individualRankings(ctx, 2, func(p models.ParticipantScore) bool {
		return p.Role == "" || p.Role == models.RolePolicy
	})
}

// individualRankings sums one round's participant criteria across every
// preliminary match.
func (s *standingsService) individualRankings(ctx context.Context, roundNumber int, include func(models.ParticipantScore) bool) ([]models.IndividualStanding, error) {
	matches, err := s.matches.ListThroughDay(ctx, models.PreliminaryStageCount)
	if err != nil {
		return nil, fmt.Errorf("failed to load preliminary matches: %w", err)
	}

	var mu sync.Mutex
	totals := make(map[string]*models.IndividualStanding)
	teamNames := make(map[string]string)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(roundLoadConcurrency)
	for _, m := range matches {
		g.Go(func() error {
			rounds, err := s.rounds.ListByMatch(gCtx, m.ID)
			if err != nil {
				return fmt.Errorf("failed to load rounds of %s: %w", m.ID, err)
			}
			mu.Lock()
			defer mu.Unlock()
			for _, side := range models.Sides {
				binding := m.Binding(side)
				teamNames[binding.TeamID] = binding.TeamName
			}
			for _, r := range rounds {
				if r.Number != roundNumber || r.Scores.Kind != models.ScoreKindParticipant {
					continue
				}
				for _, side := range models.Sides {
					binding := m.Binding(side)
					for id, entry := range r.Scores.Participants[side] {
						if !include(entry) {
							continue
						}
						line, ok := totals[id]
						if !ok {
							teamID := entry.TeamID
							if teamID == "" {
								teamID = binding.TeamID
							}
							line = &models.IndividualStanding{ParticipantID: id, Name: entry.Name, TeamID: teamID}
							totals[id] = line
						}
						line.TotalScore += entry.Total()
					}
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]models.IndividualStanding, 0, len(totals))
	for _, line := range totals {
		line.TeamName = teamNames[line.TeamID]
		out = append(out, *line)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalScore != out[j].TotalScore {
			return out[i].TotalScore > out[j].TotalScore
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ParticipantID < out[j].ParticipantID
	})
	return out, nil
}

func (s *standingsService) Bracket(ctx context.Context) (*BracketView, error) {
	view := &BracketView{}
	targets := map[models.Stage]*[]*models.Match{
		models.StageQuarterfinal: &view.Quarterfinals,
		models.StageSemifinal:    &view.Semifinals,
		models.StageFinal:        &view.Final,
	}

	g, gCtx := errgroup.WithContext(ctx)
	for stage, dst := range targets {
		g.Go(func() error {
			matches, err := s.matches.ListByStage(gCtx, stage, nil)
			if err != nil {
				return fmt.Errorf("failed to load %s matches: %w", stage, err)
			}
			*dst = matches
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return view, nil
}
