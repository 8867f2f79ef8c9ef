package api

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ethpandaops/jsbench/pkg/apperr"
	"github.com/ethpandaops/jsbench/pkg/config"
	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"
)

const (
	rateLimitCleanupInterval = 5 * time.Minute
	rateLimitEntryTTL        = 10 * time.Minute
)

type keyedLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type rateLimiterMap struct {
	mu       sync.Mutex
	limiters map[string]*keyedLimiter
	rps      rate.Limit
	burst    int
}

// newRateLimiterMap creates a keyed limiter set. Idle entries are evicted
// until done is closed.
func newRateLimiterMap(requestsPerMinute int, done <-chan struct{}) *rateLimiterMap {
	rl := &rateLimiterMap{
		limiters: make(map[string]*keyedLimiter, 64),
		rps:      rate.Limit(float64(requestsPerMinute) / 60.0),
		burst:    requestsPerMinute,
	}

	go rl.cleanup(done)

	return rl
}

func (rl *rateLimiterMap) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, exists := rl.limiters[key]
	if !exists {
		limiter := rate.NewLimiter(rl.rps, rl.burst)
		rl.limiters[key] = &keyedLimiter{
			limiter:  limiter,
			lastSeen: time.Now(),
		}

		return limiter
	}

	entry.lastSeen = time.Now()

	return entry.limiter
}

func (rl *rateLimiterMap) cleanup(done <-chan struct{}) {
	ticker := time.NewTicker(rateLimitCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()

			for key, entry := range rl.limiters {
				if time.Since(entry.lastSeen) > rateLimitEntryTTL {
					delete(rl.limiters, key)
				}
			}

			rl.mu.Unlock()
		case <-done:
			return
		}
	}
}

// rateKeyFunc derives the bucket a request is counted against.
type rateKeyFunc func(r *http.Request) string

// byClient counts requests per client IP.
func byClient(r *http.Request) string {
	return extractIP(r)
}

// byClientAndSlug counts requests per client IP and target slug. Routes
// without a slug share one bucket per client.
func byClientAndSlug(r *http.Request) string {
	return extractIP(r) + "|" + chi.URLParam(r, "slug")
}

// rateLimitMiddleware returns a rate limiting middleware for the given tier
// configuration, bucketing requests with key.
func (s *server) rateLimitMiddleware(
	tier config.RateLimitTier, key rateKeyFunc,
) func(http.Handler) http.Handler {
	limiterMap := newRateLimiterMap(tier.RequestsPerMinute, s.done)
	retryAfter := strconv.Itoa(int(math.Ceil(60 / float64(tier.RequestsPerMinute))))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiterMap.getLimiter(key(r)).Allow() {
				w.Header().Set("Retry-After", retryAfter)
				s.writeError(w, r, http.StatusTooManyRequests,
					apperr.New(apperr.CodeApplicationError, "Rate limit exceeded."))

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// extractIP returns the client's IP address from the request.
func extractIP(r *http.Request) string {
	// Take the first address of a proxy chain.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")

		return strings.TrimSpace(first)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return ip
}
