package flow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRateLimiter is a RateLimiter backed by Redis, for limits shared
// across instances.
type RedisRateLimiter struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisRateLimiter(client redis.UniversalClient, prefix string) *RedisRateLimiter {
	if prefix == "" {
		prefix = "notes:ratelimit:"
	}
	return &RedisRateLimiter{
		client: client,
		prefix: prefix,
	}
}

func (r *RedisRateLimiter) key(k string) string {
	return r.prefix + k
}

// slidingWindowScript keeps one sorted set member per attempt, scored by
// its time in milliseconds. It returns {allowed, remaining, retry_ms}.
var slidingWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local limit = tonumber(ARGV[2])
	local window_ms = tonumber(ARGV[3])

	redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window_ms)

	local count = redis.call('ZCARD', key)
	if count >= limit then
		local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
		local retry = window_ms
		if oldest[2] then
			retry = tonumber(oldest[2]) + window_ms - now
		end
		return {0, 0, retry}
	end

	redis.call('ZADD', key, now, now .. ':' .. math.random())
	redis.call('PEXPIRE', key, window_ms)
	return {1, limit - count - 1, 0}
`)

var errUnexpectedReply = errors.New("redis rate limit: unexpected script reply")

// Take records an attempt with a sliding window log shared by every
// instance using the same Redis.
func (r *RedisRateLimiter) Take(ctx context.Context, key string, limit int, window time.Duration) (Quota, error) {
	reply, err := slidingWindowScript.Run(ctx, r.client, []string{r.key(key)},
		time.Now().UnixMilli(), limit, window.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return Quota{}, fmt.Errorf("redis rate limit: %w", err)
	}
	if len(reply) != 3 {
		return Quota{}, errUnexpectedReply
	}
	return Quota{
		Allowed:    reply[0] == 1,
		Remaining:  int(reply[1]),
		RetryAfter: time.Duration(reply[2]) * time.Millisecond,
	}, nil
}

// Reset clears the rate limit counter for the given key.
func (r *RedisRateLimiter) Reset(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("redis rate limit: reset failed: %w", err)
	}
	return nil
}

// NewRedisClient parses a redis:// URL into a client.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}
	return redis.NewClient(opts), nil
}
