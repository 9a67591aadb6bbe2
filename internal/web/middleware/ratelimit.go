package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	interval time.Duration // time to refill one token; zero when disabled
	now      func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows perMinute requests per IP per minute, with bursts
// up to the same size. A non-positive perMinute disables limiting.
func NewRateLimiter(perMinute int) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Inf,
		now:      time.Now,
	}
	if perMinute > 0 {
		rl.interval = time.Minute / time.Duration(perMinute)
		rl.limit = rate.Every(rl.interval)
		rl.burst = perMinute
	}
	return rl
}

// Allow reports whether ip may make a request now and consumes a token if so.
func (rl *RateLimiter) Allow(ip string) bool {
	return rl.visitor(ip).AllowN(rl.now(), 1)
}

func (rl *RateLimiter) visitor(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = rl.now()
	return v.limiter
}

// Prune drops visitors idle for longer than maxIdle and returns how many
// were removed.
func (rl *RateLimiter) Prune(maxIdle time.Duration) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-maxIdle)
	removed := 0
	for ip, v := range rl.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(rl.visitors, ip)
			removed++
		}
	}
	return removed
}

// PruneEvery runs Prune on every tick until ctx is done.
func (rl *RateLimiter) PruneEvery(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Prune(maxIdle)
		}
	}
}

// Len returns the number of tracked visitors.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}

// Handler rejects requests over the limit with 429 and a Retry-After hint.
// It keys on r.RemoteAddr, so mount it after TrustedRealIP.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	retryAfter := "60"
	if rl.interval > 0 {
		retryAfter = strconv.Itoa(int(math.Ceil(rl.interval.Seconds())))
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(r.RemoteAddr) {
			w.Header().Set("Retry-After", retryAfter)
			writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded", "RATE001")
			return
		}
		next.ServeHTTP(w, r)
	})
}
