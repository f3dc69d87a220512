package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/debate-tournament/docstore"
	"github.com/Dosada05/debate-tournament/models"
)

var ErrTeamNotFound = errors.New("team not found")

// TeamResult is the counter delta one finished match applies to a team.
type TeamResult struct {
	Score int
	Won   bool
	Lost  bool
}

type TeamRepository interface {
	Create(ctx context.Context, team *models.Team) error
	GetByID(ctx context.Context, id string) (*models.Team, error)
	List(ctx context.Context) ([]*models.Team, error)
	ResetStats(ctx context.Context, id string) error
	ApplyResultTx(tx docstore.Tx, id string, result TeamResult) error
}

type docTeamRepository struct {
	store docstore.Store
}

func NewTeamRepository(store docstore.Store) TeamRepository {
	return &docTeamRepository{store: store}
}

func (r *docTeamRepository) Create(ctx context.Context, team *models.Team) error {
	team.TotalScore, team.Wins, team.Losses, team.MatchesPlayed = 0, 0, 0, 0
	fields, err := encode(teamDocument(team))
	if err != nil {
		return err
	}
	id, err := r.store.Add(ctx, teamsCollection, fields)
	if err != nil {
		return fmt.Errorf("failed to create team %q: %w", team.Name, err)
	}
	team.ID = id
	return nil
}

func (r *docTeamRepository) GetByID(ctx context.Context, id string) (*models.Team, error) {
	doc, err := r.store.Get(ctx, teamPath(id))
	if err != nil {
		return nil, mapNotFound(err, ErrTeamNotFound)
	}
	return decodeTeam(doc)
}

func (r *docTeamRepository) List(ctx context.Context) ([]*models.Team, error) {
	docs, err := r.store.List(ctx, teamsCollection)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	teams := make([]*models.Team, 0, len(docs))
	for _, doc := range docs {
		team, err := decodeTeam(doc)
		if err != nil {
			return nil, err
		}
		teams = append(teams, team)
	}
	return teams, nil
}

func (r *docTeamRepository) ResetStats(ctx context.Context, id string) error {
	err := r.store.Update(ctx, teamPath(id), []docstore.Update{
		{Path: "totalScore", Value: 0},
		{Path: "wins", Value: 0},
		{Path: "losses", Value: 0},
		{Path: "matchesPlayed", Value: 0},
	})
	if err != nil {
		return mapNotFound(err, ErrTeamNotFound)
	}
	return nil
}

func (r *docTeamRepository) ApplyResultTx(tx docstore.Tx, id string, result TeamResult) error {
	updates := []docstore.Update{
		{Path: "totalScore", Value: docstore.Increment(int64(result.Score))},
		{Path: "matchesPlayed", Value: docstore.Increment(1)},
	}
	if result.Won {
		updates = append(updates, docstore.Update{Path: "wins", Value: docstore.Increment(1)})
	}
	if result.Lost {
		updates = append(updates, docstore.Update{Path: "losses", Value: docstore.Increment(1)})
	}
	if err := tx.Update(teamPath(id), updates); err != nil {
		return mapNotFound(err, ErrTeamNotFound)
	}
	return nil
}

// teamDocument drops the embedded roster, which lives in its own collection.
func teamDocument(team *models.Team) models.Team {
	doc := *team
	doc.Participants = nil
	return doc
}

func decodeTeam(doc docstore.Document) (*models.Team, error) {
	var team models.Team
	if err := doc.DataTo(&team); err != nil {
		return nil, fmt.Errorf("failed to decode team %s: %w", doc.ID, err)
	}
	team.ID = doc.ID
	return &team, nil
}
