package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/debate-tournament/brackets"
	"github.com/Dosada05/debate-tournament/models"
	"github.com/Dosada05/debate-tournament/repositories"
)

type ParticipantInput struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

type RegisterTeamInput struct {
	Name         string             `json:"name"`
	Institution  string             `json:"institution"`
	Participants []ParticipantInput `json:"participants"`
}

type TeamService interface {
	RegisterTeam(ctx context.Context, input RegisterTeamInput) (*models.Team, error)
	ListTeams(ctx context.Context) ([]*models.Team, error)
	Roster(ctx context.Context, teamID string) ([]models.Participant, error)
	// ResetStats zeros every team's counters; teams and matches are kept.
	ResetStats(ctx context.Context) (int, error)
}

type teamService struct {
	teams        repositories.TeamRepository
	participants repositories.ParticipantRepository
	cache        StandingsCache
	notifier     Notifier
	logger       *slog.Logger
	now          func() time.Time
}

func NewTeamService(
	teams repositories.TeamRepository,
	participants repositories.ParticipantRepository,
	cache StandingsCache,
	notifier Notifier,
	logger *slog.Logger,
) TeamService {
	if logger == nil {
		logger = slog.Default()
	}
	return &teamService{
		teams:        teams,
		participants: participants,
		cache:        cacheOrNoop(cache),
		notifier:     notifierOrNoop(notifier),
		logger:       logger,
		now:          time.Now,
	}
}

func (s *teamService) RegisterTeam(ctx context.Context, input RegisterTeamInput) (*models.Team, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrTeamNameRequired
	}

	members := make([]models.Participant, 0, len(input.Participants))
	for i, p := range input.Participants {
		pName := strings.TrimSpace(p.Name)
		if pName == "" {
			return nil, fmt.Errorf("%w: participant %d has no name", ErrValidationFailed, i+1)
		}
		role, err := models.ParseRole(p.Role)
		if err != nil {
			return nil, fmt.Errorf("%w: participant %d: %w", ErrValidationFailed, i+1, err)
		}
		members = append(members, models.Participant{Name: pName, Role: role})
	}

	team := &models.Team{
		Name:        name,
		Institution: strings.TrimSpace(input.Institution),
		CreatedAt:   s.now().UTC(),
	}
	if err := s.teams.Create(ctx, team); err != nil {
		return nil, err
	}

	for i := range members {
		if err := s.participants.Create(ctx, team.ID, &members[i]); err != nil {
			return nil, err
		}
	}
	team.Participants = members

	s.cache.Invalidate(ctx)
	s.logger.Info("team registered", slog.String("team_id", team.ID), slog.Int("participants", len(members)))
	publish(s.notifier, brackets.EventTeamRegistered, team)
	return team, nil
}

func (s *teamService) ListTeams(ctx context.Context) ([]*models.Team, error) {
	teams, err := s.teams.List(ctx)
	if err != nil {
		return nil, err
	}
	RankTeams(teams)
	return teams, nil
}

func (s *teamService) Roster(ctx context.Context, teamID string) ([]models.Participant, error) {
	if _, err := s.teams.GetByID(ctx, teamID); err != nil {
		return nil, err
	}
	return s.participants.ListByTeam(ctx, teamID)
}

func (s *teamService) ResetStats(ctx context.Context) (int, error) {
	teams, err := s.teams.List(ctx)
	if err != nil {
		return 0, err
	}

	g, gCtx := errgroup.WithContext(ctx)
	for _, t := range teams {
		g.Go(func() error {
			err := s.teams.ResetStats(gCtx, t.ID)
			if errors.Is(err, repositories.ErrTeamNotFound) {
				return nil
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return 0, fmt.Errorf("failed to reset team stats: %w", err)
	}

	s.cache.Invalidate(ctx)
	s.logger.Info("team stats reset", slog.Int("teams", len(teams)))
	publish(s.notifier, brackets.EventStandingsReset, map[string]int{"teams": len(teams)})
	return len(teams), nil
}
