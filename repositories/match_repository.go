package repositories

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Dosada05/debate-tournament/docstore"
	"github.com/Dosada05/debate-tournament/models"
)

var ErrMatchNotFound = errors.New("match not found")

type MatchRepository interface {
	// Save creates or replaces the match document under its deterministic id.
	Save(ctx context.Context, match *models.Match) error
	GetByID(ctx context.Context, id string) (*models.Match, error)
	GetByIDTx(tx docstore.Tx, id string) (*models.Match, error)
	// ListByStage returns the stage's matches in id order; status filters when set.
	ListByStage(ctx context.Context, stage models.Stage, status *models.MatchStatus) ([]*models.Match, error)
	// ListThroughDay returns matches whose stage index is at most day.
	ListThroughDay(ctx context.Context, day int) ([]*models.Match, error)
	UpdateSides(ctx context.Context, id string, sideA, sideB models.SideBinding) error
	CompleteTx(tx docstore.Tx, match *models.Match) error
	Delete(ctx context.Context, id string) error
}

type docMatchRepository struct {
	store docstore.Store
}

func NewMatchRepository(store docstore.Store) MatchRepository {
	return &docMatchRepository{store: store}
}

func (r *docMatchRepository) Save(ctx context.Context, match *models.Match) error {
	match.Day = match.Stage.Index()
	fields, err := encode(match)
	if err != nil {
		return err
	}
	if err := r.store.Set(ctx, matchPath(match.ID), fields); err != nil {
		return fmt.Errorf("failed to save match %s: %w", match.ID, err)
	}
	return nil
}

func (r *docMatchRepository) GetByID(ctx context.Context, id string) (*models.Match, error) {
	doc, err := r.store.Get(ctx, matchPath(id))
	if err != nil {
		return nil, mapNotFound(err, ErrMatchNotFound)
	}
	return decodeMatch(doc)
}

func (r *docMatchRepository) GetByIDTx(tx docstore.Tx, id string) (*models.Match, error) {
	doc, err := tx.Get(matchPath(id))
	if err != nil {
		return nil, mapNotFound(err, ErrMatchNotFound)
	}
	return decodeMatch(doc)
}

func (r *docMatchRepository) ListByStage(ctx context.Context, stage models.Stage, status *models.MatchStatus) ([]*models.Match, error) {
	filters := []docstore.Filter{{Field: "stage", Op: docstore.OpEqual, Value: string(stage)}}
	if status != nil {
		filters = append(filters, docstore.Filter{Field: "status", Op: docstore.OpEqual, Value: string(*status)})
	}
	return r.query(ctx, filters)
}

func (r *docMatchRepository) ListThroughDay(ctx context.Context, day int) ([]*models.Match, error) {
	return r.query(ctx, []docstore.Filter{{Field: "day", Op: docstore.OpLessEqual, Value: day}})
}

func (r *docMatchRepository) query(ctx context.Context, filters []docstore.Filter) ([]*models.Match, error) {
	docs, err := r.store.Query(ctx, matchesCollection, filters, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	matches := make([]*models.Match, 0, len(docs))
	for _, doc := range docs {
		m, err := decodeMatch(doc)
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return models.LessMatchID(matches[i].ID, matches[j].ID)
	})
	return matches, nil
}

func (r *docMatchRepository) UpdateSides(ctx context.Context, id string, sideA, sideB models.SideBinding) error {
	a, err := encode(sideA)
	if err != nil {
		return err
	}
	b, err := encode(sideB)
	if err != nil {
		return err
	}
	err = r.store.Update(ctx, matchPath(id), []docstore.Update{
		{Path: "sideA", Value: a},
		{Path: "sideB", Value: b},
		{Path: "winner", Value: nil},
	})
	if err != nil {
		return mapNotFound(err, ErrMatchNotFound)
	}
	return nil
}

func (r *docMatchRepository) CompleteTx(tx docstore.Tx, match *models.Match) error {
	completedAt := time.Now().UTC()
	if match.CompletedAt != nil {
		completedAt = match.CompletedAt.UTC()
	}
	var winner any
	if match.Winner != nil {
		winner = *match.Winner
	}
	err := tx.Update(matchPath(match.ID), []docstore.Update{
		{Path: "sideA.totalScore", Value: match.SideA.TotalScore},
		{Path: "sideB.totalScore", Value: match.SideB.TotalScore},
		{Path: "winner", Value: winner},
		{Path: "status", Value: string(models.MatchStatusCompleted)},
		{Path: "completedAt", Value: completedAt.Format(time.RFC3339Nano)},
	})
	if err != nil {
		return mapNotFound(err, ErrMatchNotFound)
	}
	return nil
}

func (r *docMatchRepository) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, matchPath(id)); err != nil {
		return fmt.Errorf("failed to delete match %s: %w", id, err)
	}
	return nil
}

func decodeMatch(doc docstore.Document) (*models.Match, error) {
	var m models.Match
	if err := doc.DataTo(&m); err != nil {
		return nil, fmt.Errorf("failed to decode match %s: %w", doc.ID, err)
	}
	m.ID = doc.ID
	return &m, nil
}
