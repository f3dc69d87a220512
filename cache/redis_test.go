package cache

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/debate-tournament/models"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestCache(t *testing.T, ttl time.Duration) (*StandingsCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStandingsCache(client, ttl, quietLogger()), mr
}

func TestStandingsCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t, time.Minute)

	_, gen, ok := c.GetRankings(ctx)
	assert.False(t, ok)
	assert.Zero(t, gen)

	c.SetRankings(ctx, gen, []*models.Team{{ID: "t1", Name: "Owls", TotalScore: 40, Wins: 2}})
	assert.Equal(t, time.Minute, mr.TTL(rankingsKey))

	teams, _, ok := c.GetRankings(ctx)
	require.True(t, ok)
	require.Len(t, teams, 1)
	assert.Equal(t, "Owls", teams[0].Name)
	assert.Equal(t, 40, teams[0].TotalScore)

	c.Invalidate(ctx)
	_, gen, ok = c.GetRankings(ctx)
	assert.False(t, ok)
	assert.Equal(t, int64(1), gen)
}

func TestStandingsCacheDropsFillAfterInvalidate(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t, time.Minute)

	_, gen, ok := c.GetRankings(ctx)
	require.False(t, ok)

	// A result commits while the ranking is being computed.
	c.Invalidate(ctx)
	c.SetRankings(ctx, gen, []*models.Team{{ID: "t1", Name: "Owls", Wins: 0}})

	_, _, ok = c.GetRankings(ctx)
	assert.False(t, ok, "a ranking read before the invalidation must not be cached")
	assert.False(t, mr.Exists(rankingsKey))

	_, gen, _ = c.GetRankings(ctx)
	c.SetRankings(ctx, gen, []*models.Team{{ID: "t1", Name: "Owls", Wins: 1}})
	teams, _, ok := c.GetRankings(ctx)
	require.True(t, ok)
	assert.Equal(t, 1, teams[0].Wins)
}

func TestStandingsCacheFailuresAreMisses(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t, 0)
	assert.Equal(t, defaultTTL, c.ttl)

	require.NoError(t, mr.Set(rankingsKey, "not json"))
	_, _, ok := c.GetRankings(ctx)
	assert.False(t, ok)

	mr.SetError("connection refused")
	_, gen, ok := c.GetRankings(ctx)
	assert.False(t, ok)
	assert.Negative(t, gen)
	c.SetRankings(ctx, 0, nil)
	c.Invalidate(ctx)

	mr.SetError("")
	_, _, ok = c.GetRankings(ctx)
	assert.False(t, ok)
}
