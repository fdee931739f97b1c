package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/FlashGalatine/xivdyetools-api/internal/pkg/response"
	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	RateLimitMax     = 100
	RateLimitWindow  = 60 * time.Second
	rateLimitMaxKeys = 10_000
)

// RateLimiter is a per-IP sliding-window limiter. The key table is an LRU
// capped at rateLimitMaxKeys so rotating or spoofed IPs cannot grow memory
// without bound; the oldest-touched key is evicted first. State is
// process-local and lost on restart.
type RateLimiter struct {
	mu     sync.Mutex
	keys   *lru.Cache[string, *ipWindow]
	limit  int
	window time.Duration
	now    func() time.Time
}

type ipWindow struct {
	stamps []time.Time
}

// NewRateLimiter creates a limiter allowing limit requests per window per key.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	cache, _ := lru.New[string, *ipWindow](rateLimitMaxKeys)
	return &RateLimiter{
		keys:   cache,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// Check evaluates the key and, if allowed, records the current timestamp.
// Denied attempts are not recorded. It returns the remaining quota and the
// time at which the window frees up.
func (l *RateLimiter) Check(key string) (allowed bool, remaining int, reset time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.keys.Get(key)
	if !ok {
		w = &ipWindow{}
		l.keys.Add(key, w)
	}

	cutoff := now.Add(-l.window)
	keep := w.stamps[:0]
	for _, ts := range w.stamps {
		if ts.After(cutoff) {
			keep = append(keep, ts)
		}
	}
	w.stamps = keep

	if len(w.stamps) >= l.limit {
		return false, 0, w.stamps[0].Add(l.window)
	}

	w.stamps = append(w.stamps, now)
	return true, l.limit - len(w.stamps), w.stamps[0].Add(l.window)
}

// Middleware applies the limiter to every request and exposes the remaining
// quota and reset time as response headers.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := clientKey(c.Request.Header)
		allowed, remaining, reset := l.Check(key)

		c.Header("X-RateLimit-Limit", strconv.Itoa(l.limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))

		if !allowed {
			retryAfter := int(reset.Sub(l.now()).Seconds()) + 1
			if retryAfter < 1 {
				retryAfter = 1
			}
			response.TooManyRequests(c, retryAfter)
			return
		}
		c.Next()
	}
}

// clientKey picks the limiter bucket: trusted proxy header first, then the
// forwarded-for chain's first entry. Requests revealing no IP at all share a
// single "unknown" bucket; the production edge always sets CF-Connecting-IP.
func clientKey(h http.Header) string {
	if ip := strings.TrimSpace(h.Get("CF-Connecting-IP")); ip != "" {
		return ip
	}
	if fwd := h.Get("X-Forwarded-For"); fwd != "" {
		if first := strings.TrimSpace(strings.Split(fwd, ",")[0]); first != "" {
			return first
		}
	}
	return "unknown"
}
