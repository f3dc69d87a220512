package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/Dosada05/debate-tournament/brackets"
	"github.com/Dosada05/debate-tournament/models"
)

// Notifier pushes live events to connected operator screens.
type Notifier interface {
	Publish(roomID, eventType string, payload interface{})
}

type noopNotifier struct{}

func (noopNotifier) Publish(string, string, interface{}) {}

// StandingsCache is a read-through cache of the team rankings.
type StandingsCache interface {
	// GetRankings returns the cached list, or on a miss the generation that
	// SetRankings must be given.
	GetRankings(ctx context.Context) (teams []*models.Team, generation int64, ok bool)
	// SetRankings is a no-op when Invalidate ran after generation was read.
	SetRankings(ctx context.Context, generation int64, teams []*models.Team)
	Invalidate(ctx context.Context)
}

type noopCache struct{}

func (noopCache) GetRankings(context.Context) ([]*models.Team, int64, bool) { return nil, 0, false }
func (noopCache) SetRankings(context.Context, int64, []*models.Team)        {}
func (noopCache) Invalidate(context.Context)                                {}

func notifierOrNoop(n Notifier) Notifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}

func cacheOrNoop(c StandingsCache) StandingsCache {
	if c == nil {
		return noopCache{}
	}
	return c
}

func publish(n Notifier, eventType string, payload interface{}) {
	n.Publish(brackets.TournamentRoom, eventType, payload)
}

// ParseStage converts an operator supplied stage into a models.Stage.
func ParseStage(raw string) (models.Stage, error) {
	stage, err := models.ParseStage(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownStage, raw)
	}
	return stage, nil
}

// TeamPair is one explicit pairing chosen by an operator.
type TeamPair struct {
	TeamA string `json:"team_a"`
	TeamB string `json:"team_b"`
}

func validatePair(pair TeamPair) error {
	a, b := strings.TrimSpace(pair.TeamA), strings.TrimSpace(pair.TeamB)
	if a == "" || b == "" || a == b {
		return ErrTeamSelectionRequired
	}
	return nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
