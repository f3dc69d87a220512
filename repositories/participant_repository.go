package repositories

import (
	"context"
	"fmt"

	"github.com/Dosada05/debate-tournament/docstore"
	"github.com/Dosada05/debate-tournament/models"
)

type ParticipantRepository interface {
	// Create writes the top-level participant record and the team roster
	// entry that references it through RootID.
	Create(ctx context.Context, teamID string, p *models.Participant) error
	ListByTeam(ctx context.Context, teamID string) ([]models.Participant, error)
}

type docParticipantRepository struct {
	store docstore.Store
}

func NewParticipantRepository(store docstore.Store) ParticipantRepository {
	return &docParticipantRepository{store: store}
}

func (r *docParticipantRepository) Create(ctx context.Context, teamID string, p *models.Participant) error {
	p.TeamID = teamID

	rootID, err := r.store.Add(ctx, participantsCollection, map[string]any{
		"name":       p.Name,
		"role":       string(p.Role),
		"teamId":     teamID,
		"totalScore": 0,
	})
	if err != nil {
		return fmt.Errorf("failed to create participant %q: %w", p.Name, err)
	}
	p.RootID = rootID

	fields, err := encode(p)
	if err != nil {
		return err
	}
	delete(fields, "id")
	id, err := r.store.Add(ctx, teamParticipantsPath(teamID), fields)
	if err != nil {
		return fmt.Errorf("failed to add participant %q to team %s: %w", p.Name, teamID, err)
	}
	p.ID = id
	return nil
}

func (r *docParticipantRepository) ListByTeam(ctx context.Context, teamID string) ([]models.Participant, error) {
	docs, err := r.store.List(ctx, teamParticipantsPath(teamID))
	if err != nil {
		return nil, fmt.Errorf("failed to list participants of team %s: %w", teamID, err)
	}
	participants := make([]models.Participant, 0, len(docs))
	for _, doc := range docs {
		var p models.Participant
		if err := doc.DataTo(&p); err != nil {
			return nil, fmt.Errorf("failed to decode participant %s: %w", doc.ID, err)
		}
		p.ID = doc.ID
		// Rosters written by hand carry roles such as "Speaker1" or "Policy".
		if role, err := models.ParseRole(string(p.Role)); err == nil {
			p.Role = role
		}
		if p.TeamID == "" {
			p.TeamID = teamID
		}
		participants = append(participants, p)
	}
	return participants, nil
}
