package ratelimiter

import (
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

const (
	bucketKeyPrefix   = "rl:bucket:"
	lastFillKeyPrefix = "rl:fill:"
	defaultSourceKey  = "X-RateLimit-Key"

	// buckets hold milli-tokens so slow refill rates are not lost to rounding
	tokenScale = 1000

	// sources hash onto a fixed set of locks so the table never grows
	lockStripes = 256
)

type Limiter interface {
	Allow(sourceKey string) bool
	GetSourceKey(r *http.Request) string
	Remaining(sourceKey string) int
	GetMaxBurst() int
}

type RateLimiter struct {
	maxRatePerSecond int
	maxBurst         int
	cache            GetterSetter
	cacheTTL         time.Duration
	sourceHeaderKey  string
	now              func() time.Time
	// Striped locks serialize the read-modify-write of a plain GetterSetter.
	locks [lockStripes]sync.Mutex
	// taker is set when the cache can update a bucket atomically on its own.
	taker BucketTaker
}

// BucketTaker is implemented by caches that refill and consume a bucket in
// one atomic step, so several processes can share it.
type BucketTaker interface {
	// Take refills the bucket at key and, when cost > 0, consumes cost
	// milli-tokens if available. It returns the milli-tokens left.
	Take(key string, now int64, ratePerSecond, capacity, cost int, ttl time.Duration) (allowed bool, remaining int, err error)
}

func (rl *RateLimiter) getLock(sourceKey string) *sync.Mutex {
	return &rl.locks[xxhash.Sum64String(sourceKey)%lockStripes]
}

func (rl *RateLimiter) getBucketKeyFor(sourceKey string) string {
	return bucketKeyPrefix + sourceKey
}

func (rl *RateLimiter) getLastFillKeyFor(sourceKey string) string {
	return lastFillKeyPrefix + sourceKey
}

type bucketState struct {
	milliTokens int
	lastFill    int64 // Unix milliseconds
}

func (rl *RateLimiter) fullBucket(now int64) bucketState {
	return bucketState{
		milliTokens: rl.maxBurst * tokenScale,
		lastFill:    now,
	}
}

func (rl *RateLimiter) getState(sourceKey string, now int64) bucketState {
	bucket, bucketErr := rl.cache.Get(rl.getBucketKeyFor(sourceKey))
	lastFill, fillErr := rl.cache.Get(rl.getLastFillKeyFor(sourceKey))

	if errors.Is(bucketErr, ErrCacheMiss) || errors.Is(fillErr, ErrCacheMiss) {
		return rl.fullBucket(now)
	}

	// On cache error (not miss), fail open with full bucket
	if bucketErr != nil || fillErr != nil {
		return rl.fullBucket(now)
	}

	return bucketState{
		milliTokens: bucket,
		lastFill:    int64(lastFill),
	}
}

func (rl *RateLimiter) setState(sourceKey string, state bucketState) {
	_ = rl.cache.SetWithExpiration(rl.getBucketKeyFor(sourceKey), state.milliTokens, rl.cacheTTL)
	_ = rl.cache.SetWithExpiration(rl.getLastFillKeyFor(sourceKey), int(state.lastFill), rl.cacheTTL)
}

// refillTokens adds maxRatePerSecond tokens per elapsed second, capped at
// maxBurst. One millisecond at one token per second is one milli-token.
func (rl *RateLimiter) refillTokens(state bucketState, now int64) bucketState {
	elapsed := now - state.lastFill
	if elapsed <= 0 {
		return state // No time has passed
	}

	capacity := int64(rl.maxBurst) * tokenScale
	refilled := int64(state.milliTokens) + elapsed*int64(rl.maxRatePerSecond)
	if refilled > capacity {
		refilled = capacity
	}

	return bucketState{
		milliTokens: int(refilled),
		lastFill:    now,
	}
}

// take runs one atomic bucket update on the shared backend. Backend
// errors fail open like cache errors do.
func (rl *RateLimiter) take(sourceKey string, cost int) (bool, int) {
	capacity := rl.maxBurst * tokenScale
	allowed, remaining, err := rl.taker.Take(
		rl.getBucketKeyFor(sourceKey),
		rl.now().UnixMilli(),
		rl.maxRatePerSecond,
		capacity,
		cost,
		rl.cacheTTL,
	)
	if err != nil {
		return cost > 0, capacity
	}
	return allowed, remaining
}

func (rl *RateLimiter) Remaining(sourceKey string) int {
	if rl.taker != nil {
		_, remaining := rl.take(sourceKey, 0)
		return remaining / tokenScale
	}

	lock := rl.getLock(sourceKey)
	lock.Lock()
	defer lock.Unlock()

	now := rl.now().UnixMilli()
	state := rl.getState(sourceKey, now)
	newState := rl.refillTokens(state, now)

	// Only update cache if state changed
	if newState != state {
		rl.setState(sourceKey, newState)
	}

	return newState.milliTokens / tokenScale
}

func (rl *RateLimiter) GetMaxBurst() int {
	return rl.maxBurst
}

func (rl *RateLimiter) Allow(sourceKey string) bool {
	if rl.taker != nil {
		allowed, _ := rl.take(sourceKey, tokenScale)
		return allowed
	}

	lock := rl.getLock(sourceKey)
	lock.Lock()
	defer lock.Unlock()

	now := rl.now().UnixMilli()
	state := rl.getState(sourceKey, now)
	newState := rl.refillTokens(state, now)

	// Check if we have a whole token available
	if newState.milliTokens >= tokenScale {
		newState.milliTokens -= tokenScale
		rl.setState(sourceKey, newState)
		return true
	}

	// No tokens available - still update state if refill occurred
	if newState != state {
		rl.setState(sourceKey, newState)
	}

	return false
}

func (rl *RateLimiter) GetSourceKey(r *http.Request) string {
	if key := r.Header.Get(rl.sourceHeaderKey); key != "" {
		// X-Forwarded-For style lists: the first hop is the client
		if first, _, found := strings.Cut(key, ","); found {
			return strings.TrimSpace(first)
		}
		return key
	}

	// Fall back to IP address
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

type Options struct {
	MaxRatePerSecond int
	MaxBurst         int
	Cache            GetterSetter
	CacheTTL         time.Duration
	SourceHeaderKey  string
	Clock            func() time.Time
}

func New(options Options) Limiter {
	if options.Cache == nil {
		options.Cache = NewInMemory()
	}

	if options.CacheTTL == 0 {
		options.CacheTTL = 10 * time.Second
	}

	if options.MaxBurst <= 0 {
		options.MaxBurst = options.MaxRatePerSecond // Reasonable default
	}

	if options.SourceHeaderKey == "" {
		options.SourceHeaderKey = defaultSourceKey
	}

	if options.Clock == nil {
		options.Clock = time.Now
	}

	rl := &RateLimiter{
		maxRatePerSecond: options.MaxRatePerSecond,
		maxBurst:         options.MaxBurst,
		cache:            options.Cache,
		cacheTTL:         options.CacheTTL,
		sourceHeaderKey:  options.SourceHeaderKey,
		now:              options.Clock,
	}
	if taker, ok := options.Cache.(BucketTaker); ok {
		rl.taker = taker
	}

	return rl
}
