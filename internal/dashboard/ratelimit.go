package dashboard

import (
	"sync"
	"time"
)

// loginLimiter throttles credential checks per username using a token
// bucket, so a scripted guess loop cannot hammer the backend's login
// endpoint through this service.
type loginLimiter struct {
	buckets map[string]*tokenBucket
	mu      sync.RWMutex
	limit   int
	period  time.Duration
}

type tokenBucket struct {
	tokens     int
	lastRefill time.Time
	mu         sync.Mutex
}

func newLoginLimiter(limit int, period time.Duration) *loginLimiter {
	return &loginLimiter{
		buckets: make(map[string]*tokenBucket),
		limit:   limit,
		period:  period,
	}
}

// Allow reports whether another attempt for the username may proceed,
// consuming a token when it does.
func (ll *loginLimiter) Allow(username string) bool {
	bucket := ll.getBucket(username)

	bucket.mu.Lock()
	defer bucket.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(bucket.lastRefill)

	if elapsed >= ll.period {
		bucket.tokens = ll.limit
		bucket.lastRefill = now
	} else {
		refill := int(elapsed.Nanoseconds() * int64(ll.limit) / ll.period.Nanoseconds())
		if refill > 0 {
			bucket.tokens = min(bucket.tokens+refill, ll.limit)
			bucket.lastRefill = now
		}
	}

	if bucket.tokens > 0 {
		bucket.tokens--
		return true
	}
	return false
}

// Reset clears the throttle for a username after a successful login.
func (ll *loginLimiter) Reset(username string) {
	ll.mu.RLock()
	bucket, exists := ll.buckets[username]
	ll.mu.RUnlock()
	if !exists {
		return
	}

	bucket.mu.Lock()
	bucket.tokens = ll.limit
	bucket.lastRefill = time.Now()
	bucket.mu.Unlock()
}

func (ll *loginLimiter) getBucket(username string) *tokenBucket {
	ll.mu.RLock()
	bucket, exists := ll.buckets[username]
	ll.mu.RUnlock()
	if exists {
		return bucket
	}

	ll.mu.Lock()
	defer ll.mu.Unlock()
	if bucket, exists = ll.buckets[username]; exists {
		return bucket
	}
	bucket = &tokenBucket{tokens: ll.limit, lastRefill: time.Now()}
	ll.buckets[username] = bucket
	return bucket
}
