package brackets

import (
	"context"
	"errors"

	"github.com/Dosada05/debate-tournament/models"
)

var (
	ErrNotEnoughTeams      = errors.New("at least two teams are required to generate pairings")
	ErrOddTeamCount        = errors.New("an even number of teams is required to generate pairings")
	ErrBracketPrecondition = errors.New("bracket stage precondition not met")
)

// Entrant is a team as seen by the pairing algorithms.
type Entrant struct {
	TeamID    string
	Name      string
	Score     int
	Wins      int
	Opponents map[string]struct{}
}

func (e Entrant) HasPlayed(teamID string) bool {
	_, ok := e.Opponents[teamID]
	return ok
}

// Pairing puts two entrants on side A and side B of one match.
type Pairing struct {
	SideA Entrant
	SideB Entrant
}

type GenerateParams struct {
	// Entrants feeds random pairing and bracket advancement.
	Entrants []Entrant
	// PriorMatches feeds Swiss pairing.
	PriorMatches []*models.Match
}

type PairingGenerator interface {
	Generate(ctx context.Context, params GenerateParams) ([]Pairing, error)

	GetName() string
}

// EntrantFromTeam builds an entrant carrying the team's cumulative record.
func EntrantFromTeam(team *models.Team) Entrant {
	return Entrant{
		TeamID: team.ID,
		Name:   team.Name,
		Score:  team.TotalScore,
		Wins:   team.Wins,
	}
}
