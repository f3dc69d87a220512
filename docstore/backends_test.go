package docstore

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestMapPQError(t *testing.T) {
	missing := fmt.Errorf("failed to query teams: %w", &pq.Error{Code: "42P01"})
	mapped := mapPQError(missing)
	assert.Contains(t, mapped.Error(), "EnsureSchema")
	assert.ErrorIs(t, mapped, missing)

	other := errors.New("connection reset")
	assert.Equal(t, other, mapPQError(other))
}

func TestMapFirestoreError(t *testing.T) {
	err := mapFirestoreError("teams/t1", status.Error(codes.NotFound, "no such document"))
	assert.ErrorIs(t, err, ErrNotFound)

	err = mapFirestoreError("teams/t1", status.Error(codes.Unavailable, "down"))
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "teams/t1")
}

func TestRelativePath(t *testing.T) {
	assert.Equal(t, "matches/match-1-1/rounds/r1",
		relativePath("projects/p/databases/(default)/documents/matches/match-1-1/rounds/r1"))
	assert.Equal(t, "teams/t1", relativePath("teams/t1"))
}

func TestToFirestoreUpdatesConvertsIncrements(t *testing.T) {
	out := toFirestoreUpdates([]Update{
		{Path: "wins", Value: Increment(1)},
		{Path: "status", Value: "completed"},
	})
	assert.Len(t, out, 2)
	_, stillLocal := out[0].Value.(increment)
	assert.False(t, stillLocal)
	assert.Equal(t, "completed", out[1].Value)
	assert.Equal(t, "wins", out[0].Path)
}
