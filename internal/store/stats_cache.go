package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/roeintheglasses/heimdall/internal/domain"
)

// StatsCacheKey is the Redis key holding the cached downstream stats.
const StatsCacheKey = "heimdall:stats"

// DefaultStatsTTL matches the badge's public cache lifetime.
const DefaultStatsTTL = 300 * time.Second

// StatsSource fetches fresh statistics, normally from the downstream backend.
type StatsSource interface {
	Stats(ctx context.Context) (*domain.Stats, error)
}

// StatsCache serves downstream stats from Redis when available, falling back
// to an in-process copy. Cache failures never fail a read; they only cost a
// downstream fetch.
type StatsCache struct {
	source StatsSource
	redis  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time

	mu       sync.Mutex
	local    *domain.Stats
	localExp time.Time
}

// NewStatsCache creates a cache in front of source. client may be nil, in
// which case only the in-process copy is used.
func NewStatsCache(source StatsSource, client *redis.Client, ttl time.Duration, logger *slog.Logger) *StatsCache {
	if ttl <= 0 {
		ttl = DefaultStatsTTL
	}
	return &StatsCache{
		source: source,
		redis:  client,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// Get returns cached stats or fetches and caches fresh ones.
func (c *StatsCache) Get(ctx context.Context) (*domain.Stats, error) {
	if stats, ok := c.lookup(ctx); ok {
		return stats, nil
	}

	stats, err := c.source.Stats(ctx)
	if err != nil {
		return nil, err
	}

	c.store(ctx, stats)
	return stats, nil
}

func (c *StatsCache) lookup(ctx context.Context) (*domain.Stats, bool) {
	if c.redis != nil {
		data, err := c.redis.Get(ctx, StatsCacheKey).Bytes()
		switch {
		case err == nil:
			var stats domain.Stats
			if err := json.Unmarshal(data, &stats); err == nil {
				return &stats, true
			}
			c.logger.Warn("discarding unreadable cached stats", "key", StatsCacheKey)
		case !errors.Is(err, redis.Nil):
			c.logger.Warn("stats cache read failed", "error", err)
		}
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.local != nil && c.now().Before(c.localExp) {
		return c.local, true
	}
	return nil, false
}

func (c *StatsCache) store(ctx context.Context, stats *domain.Stats) {
	if c.redis != nil {
		data, err := json.Marshal(stats)
		if err != nil {
			return
		}
		if err := c.redis.Set(ctx, StatsCacheKey, data, c.ttl).Err(); err != nil {
			c.logger.Warn("stats cache write failed", "error", err)
		}
		return
	}

	c.mu.Lock()
	c.local = stats
	c.localExp = c.now().Add(c.ttl)
	c.mu.Unlock()
}
