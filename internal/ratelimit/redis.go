package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter implements a per-client sliding window rate limiter using Redis.
// Uses a sorted set where each member is a unique request ID with a timestamp score.
// A Lua script atomically cleans expired entries, checks the count, and adds new entries.
type RedisLimiter struct {
	redisClient *redis.Client
	logger      *slog.Logger
	script      *redis.Script
	limit       int
	window      time.Duration
}

// Lua script for atomic sliding window rate limiting.
// 1. Remove entries older than the window
// 2. Count remaining entries
// 3. If under the limit, add a new entry and return 1 (allowed)
// 4. If at/over the limit, return 0 (denied)
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)

local count = redis.call('ZCARD', key)

if count < limit then
    redis.call('ZADD', key, now, member)
    redis.call('EXPIRE', key, math.floor(window / 1000) + 1)
    return 1
else
    return 0
end
`)

// NewRedisLimiter allows limit requests per window for each key.
func NewRedisLimiter(redisClient *redis.Client, limit int, window time.Duration, logger *slog.Logger) *RedisLimiter {
	return &RedisLimiter{
		redisClient: redisClient,
		logger:      logger,
		script:      slidingWindowScript,
		limit:       limit,
		window:      window,
	}
}

func rlKey(clientKey string) string {
	return fmt.Sprintf("heimdall:rl:%s", clientKey)
}

// Allow checks if a request from this client is within the rate limit.
func (rl *RedisLimiter) Allow(ctx context.Context, clientKey string) bool {
	if rl.limit <= 0 {
		return true
	}

	now := time.Now()
	nowMs := now.UnixMilli()
	member := fmt.Sprintf("%d:%d", nowMs, now.UnixNano()%1000000)

	result, err := rl.script.Run(ctx, rl.redisClient, []string{rlKey(clientKey)},
		nowMs, rl.window.Milliseconds(), rl.limit, member,
	).Int64()
	if err != nil {
		rl.logger.Error("rate limiter script failed", "error", err, "client", clientKey)
		return true // Fail open: Redis trouble must not block webhooks
	}

	if result == 0 {
		rl.logger.Debug("rate limited", "client", clientKey, "limit", rl.limit)
		return false
	}
	return true
}
