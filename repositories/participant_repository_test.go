package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/debate-tournament/docstore"
	"github.com/Dosada05/debate-tournament/models"
)

func TestListByTeamNormalizesRoles(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemory()
	repo := NewParticipantRepository(store)

	for _, role := range []string{"Speaker1", "Speaker 2", "Policy", "judge"} {
		_, err := store.Add(ctx, teamParticipantsPath("t1"), map[string]any{"name": role, "role": role})
		require.NoError(t, err)
	}

	members, err := repo.ListByTeam(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, members, 4)
	roles := make(map[string]models.Role, len(members))
	for _, m := range members {
		roles[m.Name] = m.Role
		assert.Equal(t, "t1", m.TeamID)
	}
	assert.Equal(t, models.RoleSpeaker1, roles["Speaker1"])
	assert.Equal(t, models.RoleSpeaker2, roles["Speaker 2"])
	assert.Equal(t, models.RolePolicy, roles["Policy"])
	assert.Equal(t, models.Role("judge"), roles["judge"], "unknown roles are kept as stored")
}
