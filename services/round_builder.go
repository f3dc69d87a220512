package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Dosada05/debate-tournament/models"
	"github.com/Dosada05/debate-tournament/repositories"
	"github.com/Dosada05/debate-tournament/scoring"
)

// RoundBuilder persists the zeroed rounds of a match. It is not idempotent:
// callers that rebuild a match delete its rounds first.
type RoundBuilder struct {
	rounds repositories.RoundRepository
	now    func() time.Time
}

func NewRoundBuilder(rounds repositories.RoundRepository) *RoundBuilder {
	return &RoundBuilder{rounds: rounds, now: time.Now}
}

func (b *RoundBuilder) BuildRound(ctx context.Context, matchID string, roundNumber int, roundName string, sideA, sideB []models.Participant) (string, error) {
	round := &models.Round{
		MatchID:   matchID,
		Number:    roundNumber,
		Name:      roundName,
		Scores:    scoring.BuildRoundScores(roundNumber, sideA, sideB),
		CreatedAt: b.now().UTC(),
	}
	if err := b.rounds.Create(ctx, round); err != nil {
		return "", fmt.Errorf("failed to build %s for match %s: %w", roundName, matchID, err)
	}
	return round.ID, nil
}

// BuildMatchRounds creates rounds 1..3 with the participants judged in each.
func (b *RoundBuilder) BuildMatchRounds(ctx context.Context, matchID string, sideA, sideB RoundRosters) ([]string, error) {
	ids := make([]string, 0, scoring.RoundsPerMatch)
	for n := 1; n <= scoring.RoundsPerMatch; n++ {
		id, err := b.BuildRound(ctx, matchID, n, scoring.RoundName(n), sideA.ForRound(n), sideB.ForRound(n))
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
