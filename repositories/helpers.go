package repositories

import (
	"errors"
	"fmt"

	"github.com/Dosada05/debate-tournament/docstore"
)

const (
	teamsCollection        = "teams"
	participantsCollection = "participants"
	matchesCollection      = "matches"
	roundsCollection       = "rounds"
)

func teamPath(teamID string) string {
	return docstore.Join(teamsCollection, teamID)
}

func teamParticipantsPath(teamID string) string {
	return docstore.Join(teamsCollection, teamID, participantsCollection)
}

func matchPath(matchID string) string {
	return docstore.Join(matchesCollection, matchID)
}

func matchRoundsPath(matchID string) string {
	return docstore.Join(matchesCollection, matchID, roundsCollection)
}

func roundPath(matchID, roundID string) string {
	return docstore.Join(matchesCollection, matchID, roundsCollection, roundID)
}

// mapNotFound swaps the store's not-found error for the repository's own.
func mapNotFound(err error, notFoundError error) error {
	if errors.Is(err, docstore.ErrNotFound) {
		return notFoundError
	}
	return err
}

func encode(v any) (map[string]any, error) {
	fields, err := docstore.Encode(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return fields, nil
}
