package services

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/debate-tournament/models"
	"github.com/Dosada05/debate-tournament/repositories"
)

// RoundRosters splits a team roster into the participants judged in each round.
type RoundRosters struct {
	Speakers []models.Participant
	Policy   []models.Participant
	All      []models.Participant
}

// ForRound returns speakers for round 1, policy for round 2 and everyone otherwise.
func (r RoundRosters) ForRound(roundNumber int) []models.Participant {
	switch roundNumber {
	case 1:
		return r.Speakers
	case 2:
		return r.Policy
	}
	return r.All
}

func PartitionByRole(members []models.Participant) RoundRosters {
	out := RoundRosters{
		Speakers: []models.Participant{},
		Policy:   []models.Participant{},
		All:      members,
	}
	if out.All == nil {
		out.All = []models.Participant{}
	}
	for _, m := range members {
		role, err := models.ParseRole(string(m.Role))
		if err != nil {
			continue
		}
		switch {
		case role.IsSpeaker():
			out.Speakers = append(out.Speakers, m)
		case role == models.RolePolicy:
			out.Policy = append(out.Policy, m)
		}
	}
	return out
}

type RosterService interface {
	// MembersOf never fails: a store error yields an empty roster and a warning.
	MembersOf(ctx context.Context, teamID string) []models.Participant
	RostersFor(ctx context.Context, teamA, teamB string) (RoundRosters, RoundRosters)
}

type rosterService struct {
	participants repositories.ParticipantRepository
	logger       *slog.Logger
}

func NewRosterService(participants repositories.ParticipantRepository, logger *slog.Logger) RosterService {
	if logger == nil {
		logger = slog.Default()
	}
	return &rosterService{participants: participants, logger: logger}
}

func (s *rosterService) MembersOf(ctx context.Context, teamID string) []models.Participant {
	members, err := s.participants.ListByTeam(ctx, teamID)
	if err != nil {
		s.logger.Warn("failed to load team roster, continuing with an empty roster",
			slog.String("team_id", teamID), slog.Any("error", err))
		return []models.Participant{}
	}
	if members == nil {
		return []models.Participant{}
	}
	return members
}

func (s *rosterService) RostersFor(ctx context.Context, teamA, teamB string) (RoundRosters, RoundRosters) {
	var membersA, membersB []models.Participant
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		membersA = s.MembersOf(gCtx, teamA)
		return nil
	})
	g.Go(func() error {
		membersB = s.MembersOf(gCtx, teamB)
		return nil
	})
	_ = g.Wait()
	return PartitionByRole(membersA), PartitionByRole(membersB)
}
