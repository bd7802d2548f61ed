package http

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/AlibekovAA/dining-quiz/backend/internal/common/constants"
	commonerrors "github.com/AlibekovAA/dining-quiz/backend/internal/common/errors"
	"github.com/AlibekovAA/dining-quiz/backend/internal/common/httpmetrics"
	"github.com/AlibekovAA/dining-quiz/backend/internal/observability/metrics"
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	limiters   map[string]*limiterEntry
	mu         sync.Mutex
	rate       rate.Limit
	burst      int
	trustProxy bool
}

func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		rate:     rate.Limit(requestsPerSecond),
		burst:    burst,
	}
}

func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	entry, ok := rl.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[key] = entry
	}
	entry.lastSeen = time.Now()
	rl.mu.Unlock()

	return entry.limiter.Allow()
}

// Sweep drops buckets idle for longer than maxIdle.
func (rl *RateLimiter) Sweep(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	removed := 0

	rl.mu.Lock()
	for key, entry := range rl.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(rl.limiters, key)
			removed++
		}
	}
	rl.mu.Unlock()

	return removed
}

func (rl *RateLimiter) Middleware(limiterType string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.Allow(GetClientIP(r, rl.trustProxy)) {
				metrics.RateLimitBlocked.WithLabelValues(httpmetrics.NormalizePath(r.URL.Path), limiterType).Inc()
				writeDomainError(w, r, commonerrors.ErrRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// StrictRateLimiter applies tighter buckets to the credential endpoints,
// which each cost a full PBKDF2 derivation.
type StrictRateLimiter struct {
	loginLimiter    *RateLimiter
	registerLimiter *RateLimiter
	generalLimiter  *RateLimiter
}

// NewStrictRateLimiter keys buckets on the TCP peer address unless
// trustProxy says a reverse proxy sets X-Real-IP or X-Forwarded-For.
func NewStrictRateLimiter(trustProxy bool) *StrictRateLimiter {
	srl := &StrictRateLimiter{
		loginLimiter:    NewRateLimiter(constants.RateLimitLoginRequestsPerSecond, constants.RateLimitLoginBurst),
		registerLimiter: NewRateLimiter(constants.RateLimitRegisterRequestsPerSecond, constants.RateLimitRegisterBurst),
		generalLimiter:  NewRateLimiter(constants.RateLimitGeneralRequestsPerSecond, constants.RateLimitGeneralBurst),
	}
	for _, l := range srl.limiters() {
		l.trustProxy = trustProxy
	}
	return srl
}

func (srl *StrictRateLimiter) limiters() []*RateLimiter {
	return []*RateLimiter{srl.loginLimiter, srl.registerLimiter, srl.generalLimiter}
}

func (srl *StrictRateLimiter) limiterFor(path string) (*RateLimiter, string) {
	switch strings.TrimPrefix(path, constants.APIPrefix) {
	case "/users/login":
		return srl.loginLimiter, "login"
	case "/users/register":
		return srl.registerLimiter, "register"
	default:
		return srl.generalLimiter, "general"
	}
}

func (srl *StrictRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}
		limiter, limiterType := srl.limiterFor(r.URL.Path)
		limiter.Middleware(limiterType)(next).ServeHTTP(w, r)
	})
}

// DeleteExpired drops buckets idle for a full cleanup interval. A bucket
// that old has refilled, so forgetting it changes nothing for the client.
func (srl *StrictRateLimiter) DeleteExpired(ctx context.Context) (int64, error) {
	var removed int64
	for _, l := range srl.limiters() {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		removed += int64(l.Sweep(constants.RateLimitCleanupInterval))
	}
	return removed, nil
}
