package ratelimiter

import (
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const BackendRedis = "redis"

var ErrCacheMiss = errors.New("cache miss")

type GetterSetter interface {
	Get(key string) (int, error)
	Set(key string, value int) error
	SetWithExpiration(key string, value int, expiration time.Duration) error
	Close() error
}

// NewCache builds only the selected backend, so the in-memory cleanup
// goroutine never runs when buckets live in Redis.
func NewCache(backend string, client *redis.Client) GetterSetter {
	if backend == BackendRedis {
		return NewRedis(client)
	}
	return NewInMemory()
}
