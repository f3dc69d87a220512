// Package cache keeps a read-through copy of the team rankings in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Dosada05/debate-tournament/models"
)

const (
	rankingsKey   = "debate:standings:teams"
	generationKey = "debate:standings:generation"
	defaultTTL    = 5 * time.Minute
)

// NewRedisClient parses REDIS_URL style addresses and checks the connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// StandingsCache stores the ranked team list. Cache failures are logged and
// treated as misses so that rankings always fall back to the store.
//
// Every invalidation advances a generation counter. A fill carries the
// generation read before the store was queried and is dropped when the
// counter has moved since, so a ranking computed before a result commits is
// never written back after that result's invalidation.
type StandingsCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

func NewStandingsCache(client redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *StandingsCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StandingsCache{client: client, ttl: ttl, logger: logger}
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func readGeneration(ctx context.Context, client getter) (int64, error) {
	gen, err := client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// GetRankings returns the cached list on a hit. On a miss it returns the
// generation that a following SetRankings has to present.
func (c *StandingsCache) GetRankings(ctx context.Context) ([]*models.Team, int64, bool) {
	gen, err := readGeneration(ctx, c.client)
	if err != nil {
		c.logger.Warn("standings cache read failed", slog.Any("error", err))
		return nil, -1, false
	}
	raw, err := c.client.Get(ctx, rankingsKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("standings cache read failed", slog.Any("error", err))
		}
		return nil, gen, false
	}
	var teams []*models.Team
	if err := json.Unmarshal(raw, &teams); err != nil {
		c.logger.Warn("standings cache entry is corrupt", slog.Any("error", err))
		return nil, gen, false
	}
	return teams, gen, true
}

// SetRankings writes teams only if the generation still equals generation.
func (c *StandingsCache) SetRankings(ctx context.Context, generation int64, teams []*models.Team) {
	if generation < 0 {
		return
	}
	raw, err := json.Marshal(teams)
	if err != nil {
		c.logger.Warn("failed to encode standings for cache", slog.Any("error", err))
		return
	}

	stale := false
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readGeneration(ctx, tx)
		if err != nil {
			return err
		}
		if current != generation {
			stale = true
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, rankingsKey, raw, c.ttl)
			return nil
		})
		return err
	}, generationKey)

	switch {
	case errors.Is(err, redis.TxFailedErr):
		stale = true
	case err != nil:
		c.logger.Warn("standings cache write failed", slog.Any("error", err))
		return
	}
	if stale {
		c.logger.Debug("standings invalidated while ranking, cache fill skipped",
			slog.Int64("generation", generation))
	}
}

// Invalidate drops the cached list and advances the generation.
func (c *StandingsCache) Invalidate(ctx context.Context) {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey)
		pipe.Del(ctx, rankingsKey)
		return nil
	})
	if err != nil {
		c.logger.Warn("standings cache invalidation failed", slog.Any("error", err))
	}
}
