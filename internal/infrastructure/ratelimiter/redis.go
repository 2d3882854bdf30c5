package ratelimiter

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/btmxh/gym-tsfr/internal/infrastructure/cache"
	"github.com/redis/go-redis/v9"
)

const redisOpTimeout = 500 * time.Millisecond

// takeScript refills and consumes a milli-token bucket held in one hash.
// KEYS[1] bucket; ARGV now_ms, rate, capacity, cost, ttl_ms.
var takeScript = redis.NewScript(`
local state = redis.call('HMGET', KEYS[1], 'tokens', 'fill')
local now = tonumber(ARGV[1])
local rate = tonumber(ARGV[2])
local capacity = tonumber(ARGV[3])
local cost = tonumber(ARGV[4])
local ttl = tonumber(ARGV[5])

local tokens = tonumber(state[1])
local fill = tonumber(state[2])
if tokens == nil or fill == nil then
	tokens = capacity
	fill = now
end

local elapsed = now - fill
if elapsed > 0 then
	tokens = math.min(capacity, tokens + elapsed * rate)
	fill = now
end

local allowed = 0
if cost > 0 and tokens >= cost then
	tokens = tokens - cost
	allowed = 1
end

redis.call('HSET', KEYS[1], 'tokens', tokens, 'fill', fill)
if ttl > 0 then
	redis.call('PEXPIRE', KEYS[1], ttl)
end

return {allowed, tokens}
`)

// Redis shares buckets between every instance behind the same Redis.
// Bucket updates run as one script so instances never over-admit.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Take(key string, now int64, ratePerSecond, capacity, cost int, ttl time.Duration) (bool, int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	result, err := takeScript.Run(ctx, r.client,
		[]string{cache.RateLimitKey(key)},
		now, ratePerSecond, capacity, cost, ttl.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return false, 0, err
	}
	if len(result) != 2 {
		return false, 0, fmt.Errorf("unexpected bucket reply %v", result)
	}

	return result[0] == 1, int(result[1]), nil
}

func (r *Redis) Get(key string) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	raw, err := r.client.Get(ctx, cache.RateLimitKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, ErrCacheMiss
	}
	if err != nil {
		return 0, err
	}

	return strconv.Atoi(raw)
}

func (r *Redis) Set(key string, value int) error {
	return r.SetWithExpiration(key, value, 0)
}

func (r *Redis) SetWithExpiration(key string, value int, expiration time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	return r.client.Set(ctx, cache.RateLimitKey(key), value, expiration).Err()
}

// Close leaves the shared client open; its owner closes it.
func (r *Redis) Close() error {
	return nil
}
