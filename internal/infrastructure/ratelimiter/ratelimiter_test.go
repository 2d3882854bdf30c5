package ratelimiter

import (
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestLimiter(t *testing.T, rate, burst int, cache GetterSetter) (Limiter, *fakeClock) {
	t.Helper()

	clock := &fakeClock{now: time.UnixMilli(1_700_000_000_000)}
	if cache == nil {
		cache = NewInMemory()
	}
	t.Cleanup(func() { _ = cache.Close() })

	return New(Options{
		MaxRatePerSecond: rate,
		MaxBurst:         burst,
		Cache:            cache,
		CacheTTL:         time.Minute,
		Clock:            clock.Now,
	}), clock
}

func TestAllowConsumesBurst(t *testing.T) {
	req := require.New(t)
	limiter, _ := newTestLimiter(t, 1, 3, nil)

	req.True(limiter.Allow("a"))
	req.True(limiter.Allow("a"))
	req.True(limiter.Allow("a"))
	req.False(limiter.Allow("a"))

	// other sources have their own bucket
	req.True(limiter.Allow("b"))
}

func TestAllowRefillsOverTime(t *testing.T) {
	req := require.New(t)
	limiter, clock := newTestLimiter(t, 2, 2, nil)

	req.True(limiter.Allow("a"))
	req.True(limiter.Allow("a"))
	req.False(limiter.Allow("a"))

	clock.Advance(250 * time.Millisecond)
	req.False(limiter.Allow("a"), "half a token is not enough")

	clock.Advance(250 * time.Millisecond)
	req.True(limiter.Allow("a"))
	req.False(limiter.Allow("a"))

	clock.Advance(time.Hour)
	req.Equal(2, limiter.Remaining("a"), "refill is capped at burst")
}

func TestRemaining(t *testing.T) {
	req := require.New(t)
	limiter, _ := newTestLimiter(t, 10, 5, nil)

	req.Equal(5, limiter.Remaining("a"))
	req.True(limiter.Allow("a"))
	req.Equal(4, limiter.Remaining("a"))
	req.Equal(5, limiter.GetMaxBurst())
}

func TestBurstDefaultsToRate(t *testing.T) {
	limiter := New(Options{MaxRatePerSecond: 7})
	require.Equal(t, 7, limiter.GetMaxBurst())
}

func TestGetSourceKey(t *testing.T) {
	req := require.New(t)
	limiter := New(Options{MaxRatePerSecond: 1, SourceHeaderKey: "X-Forwarded-For"})

	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.1:4444"
	req.Equal("10.0.0.1", limiter.GetSourceKey(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	req.Equal("203.0.113.9", limiter.GetSourceKey(r))
}

func TestRedisBackendSharesBuckets(t *testing.T) {
	req := require.New(t)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	first, clock := newTestLimiter(t, 1, 2, NewRedis(client))
	second := New(Options{
		MaxRatePerSecond: 1,
		MaxBurst:         2,
		Cache:            NewRedis(client),
		Clock:            clock.Now,
	})

	req.True(first.Allow("a"))
	req.True(second.Allow("a"))
	req.False(first.Allow("a"))
	req.False(second.Allow("a"))

	req.True(mr.Exists("ratelimit:rl:bucket:a"))
}

func TestInMemoryExpiry(t *testing.T) {
	req := require.New(t)
	cache := NewInMemory()
	t.Cleanup(func() { _ = cache.Close() })

	_, err := cache.Get("missing")
	req.ErrorIs(err, ErrCacheMiss)

	req.NoError(cache.SetWithExpiration("k", 3, time.Nanosecond))
	time.Sleep(time.Millisecond)
	_, err = cache.Get("k")
	req.ErrorIs(err, ErrCacheMiss)

	req.NoError(cache.Set("k", 4))
	v, err := cache.Get("k")
	req.NoError(err)
	req.Equal(4, v)
}

func countAllowed(limiters []Limiter, perLimiter int) int64 {
	var allowed atomic.Int64
	var wg sync.WaitGroup

	for _, limiter := range limiters {
		for range perLimiter {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if limiter.Allow("a") {
					allowed.Add(1)
				}
			}()
		}
	}
	wg.Wait()

	return allowed.Load()
}

func TestRedisBackendIsAtomicAcrossInstances(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	clock := &fakeClock{now: time.UnixMilli(1_700_000_000_000)}
	limiters := make([]Limiter, 0, 3)
	for range 3 {
		limiters = append(limiters, New(Options{
			MaxRatePerSecond: 1,
			MaxBurst:         5,
			Cache:            NewRedis(client),
			CacheTTL:         time.Minute,
			Clock:            clock.Now,
		}))
	}

	require.Equal(t, int64(5), countAllowed(limiters, 20))
	require.Equal(t, 0, limiters[0].Remaining("a"))
}

func TestInMemoryIsAtomicPerSource(t *testing.T) {
	limiter, _ := newTestLimiter(t, 1, 5, nil)
	require.Equal(t, int64(5), countAllowed([]Limiter{limiter}, 50))
}

func TestLocksAreStriped(t *testing.T) {
	req := require.New(t)
	limiter, _ := newTestLimiter(t, 1, 1, nil)
	rl := limiter.(*RateLimiter)

	req.Same(rl.getLock("203.0.113.9"), rl.getLock("203.0.113.9"))

	seen := make(map[*sync.Mutex]struct{})
	for i := range 10_000 {
		seen[rl.getLock(strconv.Itoa(i))] = struct{}{}
	}
	req.LessOrEqual(len(seen), lockStripes)
}

func TestNewCacheBuildsOnlySelectedBackend(t *testing.T) {
	req := require.New(t)
	client := redis.NewClient(&redis.Options{Addr: miniredis.RunT(t).Addr()})
	t.Cleanup(func() { _ = client.Close() })

	redisCache := NewCache(BackendRedis, client)
	req.IsType(&Redis{}, redisCache)
	req.Implements((*BucketTaker)(nil), redisCache)
	req.NoError(redisCache.Close())

	memoryCache := NewCache("memory", client)
	req.IsType(&InMemory{}, memoryCache)
	req.NoError(memoryCache.Close())
}
