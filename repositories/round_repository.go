package repositories

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/Dosada05/debate-tournament/docstore"
	"github.com/Dosada05/debate-tournament/models"
	"github.com/Dosada05/debate-tournament/scoring"
)

var ErrRoundNotFound = errors.New("round not found")

type RoundRepository interface {
	Create(ctx context.Context, round *models.Round) error
	Get(ctx context.Context, matchID, roundID string) (*models.Round, error)
	// ListByMatch returns the match's rounds ordered by round number.
	ListByMatch(ctx context.Context, matchID string) ([]models.Round, error)
	SaveScores(ctx context.Context, matchID, roundID string, scores models.RoundScores) error
	SaveScoresTx(tx docstore.Tx, matchID, roundID string, scores models.RoundScores) error
	DeleteByMatch(ctx context.Context, matchID string) (int, error)
}

type docRoundRepository struct {
	store docstore.Store
}

func NewRoundRepository(store docstore.Store) RoundRepository {
	return &docRoundRepository{store: store}
}

func (r *docRoundRepository) Create(ctx context.Context, round *models.Round) error {
	fields, err := encode(round)
	if err != nil {
		return err
	}
	delete(fields, "id")
	id, err := r.store.Add(ctx, matchRoundsPath(round.MatchID), fields)
	if err != nil {
		return fmt.Errorf("failed to create %s of match %s: %w", round.Name, round.MatchID, err)
	}
	round.ID = id
	return nil
}

func (r *docRoundRepository) Get(ctx context.Context, matchID, roundID string) (*models.Round, error) {
	doc, err := r.store.Get(ctx, roundPath(matchID, roundID))
	if err != nil {
		return nil, mapNotFound(err, ErrRoundNotFound)
	}
	return decodeRound(doc, matchID)
}

func (r *docRoundRepository) ListByMatch(ctx context.Context, matchID string) ([]models.Round, error) {
	docs, err := r.store.List(ctx, matchRoundsPath(matchID))
	if err != nil {
		return nil, fmt.Errorf("failed to list rounds of match %s: %w", matchID, err)
	}
	rounds := make([]models.Round, 0, len(docs))
	for _, doc := range docs {
		round, err := decodeRound(doc, matchID)
		if err != nil {
			return nil, err
		}
		rounds = append(rounds, *round)
	}
	sort.SliceStable(rounds, func(i, j int) bool { return rounds[i].Number < rounds[j].Number })
	return rounds, nil
}

func (r *docRoundRepository) SaveScores(ctx context.Context, matchID, roundID string, scores models.RoundScores) error {
	fields, err := encode(scores)
	if err != nil {
		return err
	}
	if err := r.store.Update(ctx, roundPath(matchID, roundID), []docstore.Update{{Path: "scores", Value: fields}}); err != nil {
		return mapNotFound(err, ErrRoundNotFound)
	}
	return nil
}

func (r *docRoundRepository) SaveScoresTx(tx docstore.Tx, matchID, roundID string, scores models.RoundScores) error {
	fields, err := encode(scores)
	if err != nil {
		return err
	}
	if err := tx.Update(roundPath(matchID, roundID), []docstore.Update{{Path: "scores", Value: fields}}); err != nil {
		return mapNotFound(err, ErrRoundNotFound)
	}
	return nil
}

func (r *docRoundRepository) DeleteByMatch(ctx context.Context, matchID string) (int, error) {
	docs, err := r.store.List(ctx, matchRoundsPath(matchID))
	if err != nil {
		return 0, fmt.Errorf("failed to list rounds of match %s: %w", matchID, err)
	}
	for _, doc := range docs {
		if err := r.store.Delete(ctx, doc.Path); err != nil {
			return 0, fmt.Errorf("failed to delete round %s of match %s: %w", doc.ID, matchID, err)
		}
	}
	return len(docs), nil
}

func decodeRound(doc docstore.Document, matchID string) (*models.Round, error) {
	var round models.Round
	if err := doc.DataTo(&round); err != nil {
		return nil, fmt.Errorf("failed to decode round %s: %w", doc.ID, err)
	}
	round.ID = doc.ID
	if round.MatchID == "" {
		round.MatchID = matchID
	}
	// Older round documents carry only the "round N" label.
	if round.Number == 0 {
		if n, ok := scoring.RoundNumberFromName(round.Name); ok {
			round.Number = n
		}
	}
	return &round, nil
}
