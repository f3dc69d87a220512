package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/debate-tournament/brackets"
	"github.com/Dosada05/debate-tournament/metrics"
	"github.com/Dosada05/debate-tournament/models"
	"github.com/Dosada05/debate-tournament/repositories"
)

// StageResult lists the matches written for a stage.
type StageResult struct {
	Stage    models.Stage `json:"stage"`
	Engine   string       `json:"engine"`
	MatchIDs []string     `json:"match_ids"`
}

type GenerateStageInput struct {
	// TeamIDs restricts random pairing to these teams; empty means all teams.
	TeamIDs []string `json:"team_ids,omitempty"`
	// PriorMatchIDs feeds Swiss pairing; empty means every match of the previous stage.
	PriorMatchIDs []string `json:"prior_match_ids,omitempty"`
}

type PairingService interface {
	// Generate picks the engine by stage: random for Match 1, Swiss for
	// Match 2 and 3, bracket seeding for QF, SF and F.
	Generate(ctx context.Context, stage models.Stage, input GenerateStageInput) (*StageResult, error)
	GenerateRandomStage(ctx context.Context, stage models.Stage, teamIDs []string) (*StageResult, error)
	GenerateSwissStage(ctx context.Context, stage models.Stage, priorMatchIDs []string) (*StageResult, error)
	GenerateBracketStage(ctx context.Context, stage models.Stage) (*StageResult, error)
	ManualPairings(ctx context.Context, stage models.Stage, pairs []TeamPair) (*StageResult, error)
	ClearStage(ctx context.Context, stage models.Stage) (int, error)
	ReassignMatch(ctx context.Context, matchID string, pair TeamPair) (*models.Match, error)
}

// bracketStage says where a bracket stage takes its field from. An empty
// source means the overall standings.
type bracketStage struct {
	policy brackets.AdvancePolicy
	source models.Stage
}

var bracketStages = map[models.Stage]bracketStage{
	models.StageQuarterfinal: {policy: brackets.QuarterfinalPolicy},
	models.StageSemifinal:    {policy: brackets.SemifinalPolicy, source: models.StageQuarterfinal},
	models.StageFinal:        {policy: brackets.FinalPolicy, source: models.StageSemifinal},
}

type pairingService struct {
	teams    repositories.TeamRepository
	matches  repositories.MatchRepository
	rounds   repositories.RoundRepository
	roster   RosterService
	builder  *RoundBuilder
	random   brackets.PairingGenerator
	swiss    brackets.PairingGenerator
	notifier Notifier
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

func NewPairingService(
	teams repositories.TeamRepository,
	matches repositories.MatchRepository,
	rounds repositories.RoundRepository,
	roster RosterService,
	random brackets.PairingGenerator,
	notifier Notifier,
	m *metrics.Metrics,
	logger *slog.Logger,
) PairingService {
	if random == nil {
		random = brackets.NewRandomGenerator(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &pairingService{
		teams:    teams,
		matches:  matches,
		rounds:   rounds,
		roster:   roster,
		builder:  NewRoundBuilder(rounds),
		random:   random,
		swiss:    brackets.NewSwissGenerator(logger),
		notifier: notifierOrNoop(notifier),
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *pairingService) Generate(ctx context.Context, stage models.Stage, input GenerateStageInput) (*StageResult, error) {
	switch stage {
	case models.StageMatch1:
		return s.GenerateRandomStage(ctx, stage, input.TeamIDs)
	case models.StageMatch2, models.StageMatch3:
		return s.GenerateSwissStage(ctx, stage, input.PriorMatchIDs)
	case models.StageQuarterfinal, models.StageSemifinal, models.StageFinal:
		return s.GenerateBracketStage(ctx, stage)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStage, stage)
}

func (s *pairingService) GenerateRandomStage(ctx context.Context, stage models.Stage, teamIDs []string) (*StageResult, error) {
	if stage.Index() == 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStage, stage)
	}
	teams, err := s.loadTeams(ctx, teamIDs)
	if err != nil {
		return nil, err
	}
	entrants := make([]brackets.Entrant, 0, len(teams))
	for _, t := range teams {
		entrants = append(entrants, brackets.EntrantFromTeam(t))
	}

	pairs, err := s.random.Generate(ctx, brackets.GenerateParams{Entrants: entrants})
	if err != nil {
		return nil, fmt.Errorf("random pairing for %s: %w", stage, err)
	}
	return s.createMatches(ctx, stage, s.random.GetName(), pairs)
}

func (s *pairingService) loadTeams(ctx context.Context, teamIDs []string) ([]*models.Team, error) {
	if len(teamIDs) == 0 {
		teams, err := s.teams.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load teams: %w", err)
		}
		return teams, nil
	}

	seen := make(map[string]struct{}, len(teamIDs))
	teams := make([]*models.Team, 0, len(teamIDs))
	for _, id := range teamIDs {
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: team %s selected twice", ErrTeamSelectionRequired, id)
		}
		seen[id] = struct{}{}
		team, err := s.teams.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load team %s: %w", id, err)
		}
		teams = append(teams, team)
	}
	return teams, nil
}

func (s *pairingService) GenerateSwissStage(ctx context.Context, stage models.Stage, priorMatchIDs []string) (*StageResult, error) {
	prevStage, ok := stage.Previous()
	if !ok {
		return nil, fmt.Errorf("%w: %s has no previous stage to pair from", ErrStageNotGeneratable, stage)
	}

	var prior []*models.Match
	for _, id := range priorMatchIDs {
		m, err := s.matches.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repositories.ErrMatchNotFound) {
				s.logger.Warn("prior match not found, skipping", slog.String("match_id", id))
				continue
			}
			return nil, fmt.Errorf("failed to load prior match %s: %w", id, err)
		}
		prior = append(prior, m)
	}
	if len(prior) == 0 {
		all, err := s.matches.ListByStage(ctx, prevStage, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s matches: %w", prevStage, err)
		}
		prior = all
	}
	if len(prior) == 0 {
		s.logger.Info("no prior matches, nothing to pair", slog.String("stage", string(stage)))
		return &StageResult{Stage: stage, Engine: s.swiss.GetName(), MatchIDs: []string{}}, nil
	}

	pairs, err := s.swiss.Generate(ctx, brackets.GenerateParams{PriorMatches: prior})
	if err != nil {
		return nil, fmt.Errorf("swiss pairing for %s: %w", stage, err)
	}
	return s.createMatches(ctx, stage, s.swiss.GetName(), pairs)
}

func (s *pairingService) GenerateBracketStage(ctx context.Context, stage models.Stage) (*StageResult, error) {
	cfg, ok := bracketStages[stage]
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a bracket stage", ErrStageNotGeneratable, stage)
	}

	var entrants []brackets.Entrant
	if cfg.source == "" {
		teams, err := s.teams.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load standings: %w", err)
		}
		for _, t := range teams {
			entrants = append(entrants, brackets.EntrantFromTeam(t))
		}
	} else {
		winners, err := s.stageWinners(ctx, cfg.source)
		if err != nil {
			return nil, err
		}
		entrants = winners
	}

	gen := brackets.NewEliminationGenerator(cfg.policy)
	pairs, err := gen.Generate(ctx, brackets.GenerateParams{Entrants: entrants})
	if err != nil {
		return nil, err
	}
	return s.createMatches(ctx, stage, gen.GetName(), pairs)
}

// stageWinners returns the winners of the stage's completed matches in
// bracket-slot (match id) order.
func (s *pairingService) stageWinners(ctx context.Context, stage models.Stage) ([]brackets.Entrant, error) {
	completed := models.MatchStatusCompleted
	matches, err := s.matches.ListByStage(ctx, stage, &completed)
	if err != nil {
		return nil, fmt.Errorf("failed to load completed %s matches: %w", stage, err)
	}

	var winners []brackets.Entrant
	for _, m := range matches {
		winnerID := derefString(m.Winner)
		if winnerID == "" {
			continue
		}
		team, err := s.teams.GetByID(ctx, winnerID)
		if err != nil {
			if errors.Is(err, repositories.ErrTeamNotFound) {
				s.logger.Warn("winning team no longer exists", slog.String("match_id", m.ID), slog.String("team_id", winnerID))
				continue
			}
			return nil, fmt.Errorf("failed to load winner of %s: %w", m.ID, err)
		}
		winners = append(winners, brackets.EntrantFromTeam(team))
	}
	return winners, nil
}

func (s *pairingService) ManualPairings(ctx context.Context, stage models.Stage, pairs []TeamPair) (*StageResult, error) {
	if stage.Index() == 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStage, stage)
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("%w: no pairings supplied", ErrTeamSelectionRequired)
	}

	resolved := make([]brackets.Pairing, 0, len(pairs))
	for i, pair := range pairs {
		if err := validatePair(pair); err != nil {
			return nil, fmt.Errorf("pairing %d: %w", i+1, err)
		}
		a, err := s.teams.GetByID(ctx, pair.TeamA)
		if err != nil {
			return nil, fmt.Errorf("pairing %d: %w", i+1, err)
		}
		b, err := s.teams.GetByID(ctx, pair.TeamB)
		if err != nil {
			return nil, fmt.Errorf("pairing %d: %w", i+1, err)
		}
		resolved = append(resolved, brackets.Pairing{SideA: brackets.EntrantFromTeam(a), SideB: brackets.EntrantFromTeam(b)})
	}
	return s.createMatches(ctx, stage, "Manual", resolved)
}

// createMatches writes match-{stage}-{i} for each pair and its three rounds.
// It refuses to overwrite a completed match; ClearStage removes those first.
// A failure midway leaves the earlier matches in place.
func (s *pairingService) createMatches(ctx context.Context, stage models.Stage, engine string, pairs []brackets.Pairing) (*StageResult, error) {
	result := &StageResult{Stage: stage, Engine: engine, MatchIDs: make([]string, 0, len(pairs))}

	for i := range pairs {
		matchID := models.MatchID(stage, i+1)
		existing, err := s.matches.GetByID(ctx, matchID)
		if err != nil {
			if errors.Is(err, repositories.ErrMatchNotFound) {
				continue
			}
			return result, fmt.Errorf("failed to check existing match %s: %w", matchID, err)
		}
		if existing.IsCompleted() {
			return result, fmt.Errorf("%w: %s cannot be regenerated, clear the stage first", ErrMatchAlreadyCompleted, matchID)
		}
	}

	for i, pair := range pairs {
		matchID := models.MatchID(stage, i+1)
		if _, err := s.rounds.DeleteByMatch(ctx, matchID); err != nil {
			return result, fmt.Errorf("failed to clear previous rounds of %s: %w", matchID, err)
		}

		match := &models.Match{
			ID:        matchID,
			Stage:     stage,
			Status:    models.MatchStatusScheduled,
			SideA:     models.SideBinding{TeamID: pair.SideA.TeamID, TeamName: pair.SideA.Name},
			SideB:     models.SideBinding{TeamID: pair.SideB.TeamID, TeamName: pair.SideB.Name},
			CreatedAt: s.now().UTC(),
		}
		if err := s.matches.Save(ctx, match); err != nil {
			return result, err
		}

		rostersA, rostersB := s.roster.RostersFor(ctx, pair.SideA.TeamID, pair.SideB.TeamID)
		if _, err := s.builder.BuildMatchRounds(ctx, matchID, rostersA, rostersB); err != nil {
			return result, err
		}
		result.MatchIDs = append(result.MatchIDs, matchID)
	}

	s.logger.Info("stage pairings generated",
		slog.String("stage", string(stage)), slog.String("engine", engine), slog.Int("matches", len(result.MatchIDs)))
	s.metrics.MatchesGenerated(string(stage), engine, len(result.MatchIDs))
	publish(s.notifier, brackets.EventPairingsGenerated, result)
	return result, nil
}

func (s *pairingService) ClearStage(ctx context.Context, stage models.Stage) (int, error) {
	if stage.Index() == 0 {
		return 0, fmt.Errorf("%w: %q", ErrUnknownStage, stage)
	}
	matches, err := s.matches.ListByStage(ctx, stage, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to load %s matches: %w", stage, err)
	}

	deleted := 0
	for _, m := range matches {
		if _, err := s.rounds.DeleteByMatch(ctx, m.ID); err != nil {
			return deleted, err
		}
		if err := s.matches.Delete(ctx, m.ID); err != nil {
			return deleted, err
		}
		deleted++
	}

	s.logger.Info("stage cleared", slog.String("stage", string(stage)), slog.Int("matches", deleted))
	s.metrics.StageCleared(string(stage), deleted)
	publish(s.notifier, brackets.EventStageCleared, map[string]interface{}{"stage": stage, "deleted": deleted})
	return deleted, nil
}

func (s *pairingService) ReassignMatch(ctx context.Context, matchID string, pair TeamPair) (*models.Match, error) {
	if err := validatePair(pair); err != nil {
		return nil, err
	}
	match, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.IsCompleted() {
		return nil, fmt.Errorf("%w: %s cannot be reassigned", ErrMatchAlreadyCompleted, matchID)
	}

	teamA, err := s.teams.GetByID(ctx, pair.TeamA)
	if err != nil {
		return nil, err
	}
	teamB, err := s.teams.GetByID(ctx, pair.TeamB)
	if err != nil {
		return nil, err
	}

	if _, err := s.rounds.DeleteByMatch(ctx, matchID); err != nil {
		return nil, err
	}
	match.SideA = models.SideBinding{TeamID: teamA.ID, TeamName: teamA.Name}
	match.SideB = models.SideBinding{TeamID: teamB.ID, TeamName: teamB.Name}
	match.Winner = nil
	if err := s.matches.UpdateSides(ctx, matchID, match.SideA, match.SideB); err != nil {
		return nil, err
	}

	rostersA, rostersB := s.roster.RostersFor(ctx, teamA.ID, teamB.ID)
	if _, err := s.builder.BuildMatchRounds(ctx, matchID, rostersA, rostersB); err != nil {
		return nil, err
	}

	s.logger.Info("match reassigned", slog.String("match_id", matchID),
		slog.String("side_a", teamA.ID), slog.String("side_b", teamB.ID))
	publish(s.notifier, brackets.EventMatchReassigned, match)
	return match, nil
}
