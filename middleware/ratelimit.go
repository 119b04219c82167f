// ABOUTME: Fixed-window request quotas for the auth, refresh and API route classes
// ABOUTME: Quotas are keyed by client IP or by a digest of the browser's refresh cookie

package middleware

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/vocalswap/vocalswap-web/services"
)

const detailTooManyRequests = "Too many requests. Please try again later."

type window struct {
	hits    int
	resetAt time.Time
}

// RateLimiter grants limit requests per key in each period.
type RateLimiter struct {
	mu        sync.Mutex
	limit     int
	period    time.Duration
	now       func() time.Time
	windows   map[string]*window
	nextSweep time.Time
}

// NewRateLimiter creates a limiter granting limit requests per period.
func NewRateLimiter(limit int, period time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		period:  period,
		now:     time.Now,
		windows: make(map[string]*window),
	}
}

// Allow counts one request for key. When the quota is spent it returns false
// and the time left until the key's window resets.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if !now.Before(rl.nextSweep) {
		rl.dropExpired(now)
		rl.nextSweep = now.Add(rl.period)
	}

	w, ok := rl.windows[key]
	if !ok || !now.Before(w.resetAt) {
		rl.windows[key] = &window{hits: 1, resetAt: now.Add(rl.period)}
		return true, 0
	}
	if w.hits >= rl.limit {
		return false, w.resetAt.Sub(now)
	}
	w.hits++
	return true, 0
}

// dropExpired runs at most once per period. Caller holds rl.mu.
func (rl *RateLimiter) dropExpired(now time.Time) {
	for k, w := range rl.windows {
		if !now.Before(w.resetAt) {
			delete(rl.windows, k)
		}
	}
}

// ByClientIP keys login, register and general API quotas. It trusts the
// leftmost X-Forwarded-For entry set by the reverse proxy in front of the
// server and falls back to the connection address.
func ByClientIP(r *http.Request) string {
	first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ",")
	if ip := strings.TrimSpace(first); net.ParseIP(ip) != nil {
		return "ip:" + ip
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

// BySession keys refresh quotas by the refresh cookie's digest, so a browser
// keeps one quota when its IP changes. Without the cookie it keys by IP.
func BySession(r *http.Request) string {
	if c, err := r.Cookie(services.RefreshTokenCookie); err == nil && c.Value != "" {
		return "session:" + services.SessionKey(c.Value)
	}
	return ByClientIP(r)
}

// RateLimit answers 429 with Retry-After once key's quota is spent. A nil
// limiter disables the check, and so does an empty key.
func RateLimit(limiter *RateLimiter, key func(*http.Request) string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		if limiter == nil || key == nil {
			return next
		}
		return func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if k == "" {
				next(w, r)
				return
			}
			if ok, retryAfter := limiter.Allow(k); !ok {
				seconds := int(math.Ceil(retryAfter.Seconds()))
				slog.Warn("Rate limit exceeded", "key", k, "path", r.URL.Path, "retry_after", seconds)
				w.Header().Set("Retry-After", strconv.Itoa(seconds))
				writeJSONError(w, detailTooManyRequests, http.StatusTooManyRequests)
				return
			}
			next(w, r)
		}
	}
}
