package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RateLimiter implements sliding window rate limiting using Redis,
// shared across processes through a sorted set per key
type RateLimiter struct {
	client *Client
	prefix string
}

// RateLimitConfig defines rate limit parameters
type RateLimitConfig struct {
	Key    string        // Unique identifier, e.g. "yahoo"
	Limit  int           // Maximum requests allowed
	Window time.Duration // Time window
}

// YahooRateLimit keeps the chart API well below its anonymous quota
var YahooRateLimit = RateLimitConfig{
	Key:    "yahoo",
	Limit:  5,
	Window: time.Second,
}

// KEYS[1] window key; ARGV: now_ms, window_start_ms, limit, window_ms, member
var slidingWindow = redis.NewScript(`
	redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', ARGV[2])
	local count = redis.call('ZCARD', KEYS[1])
	if count < tonumber(ARGV[3]) then
		redis.call('ZADD', KEYS[1], ARGV[1], ARGV[5])
		redis.call('PEXPIRE', KEYS[1], ARGV[4])
		return {1, tonumber(ARGV[3]) - count - 1}
	end
	return {0, 0}
`)

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(client *Client, prefix string) *RateLimiter {
	return &RateLimiter{
		client: client,
		prefix: prefix,
	}
}

// Allow checks if a request is allowed under the rate limit.
// Returns (allowed, remaining, error). A disabled client allows everything.
func (r *RateLimiter) Allow(ctx context.Context, cfg RateLimitConfig) (bool, int, error) {
	if !r.client.Enabled() {
		return true, cfg.Limit, nil
	}

	now := time.Now().UnixMilli()
	key := fmt.Sprintf("%s:ratelimit:%s", r.prefix, cfg.Key)

	result, err := slidingWindow.Run(ctx, r.client.Redis(), []string{key},
		now,
		now-cfg.Window.Milliseconds(),
		cfg.Limit,
		cfg.Window.Milliseconds(),
		uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit script failed: %w", err)
	}

	return result[0] == 1, int(result[1]), nil
}

// Wait blocks until a request is allowed or ctx is cancelled
func (r *RateLimiter) Wait(ctx context.Context, cfg RateLimitConfig) error {
	for {
		allowed, _, err := r.Allow(ctx, cfg)
		if err != nil {
			return err
		}
		if allowed {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}
