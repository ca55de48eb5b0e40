package kit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

type ipLimiter struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter allows `limit` requests per window for each client IP, with
// bursts up to `limit`.
type IPRateLimiter struct {
	mu     sync.Mutex
	limit  int
	every  rate.Limit
	byIP   map[string]*ipLimiter
	now    func() time.Time
	pruned time.Time
}

func NewIPRateLimiter(limit int, window time.Duration) *IPRateLimiter {
	if limit <= 0 {
		limit = 1
	}
	return &IPRateLimiter{
		limit: limit,
		every: rate.Every(window / time.Duration(limit)),
		byIP:  make(map[string]*ipLimiter),
		now:   time.Now,
	}
}

// PerMinute returns middleware admitting n requests per minute per client
// IP. n <= 0 turns limiting off.
func PerMinute(n int) func(http.Handler) http.Handler {
	if n <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return NewIPRateLimiter(n, time.Minute).Middleware
}

func (l *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(clientIP(r)) {
			w.Header().Set("Retry-After", "60")
			WriteError(w, r, http.StatusTooManyRequests, "too many requests", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *IPRateLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.pruneLocked(now)

	e, ok := l.byIP[ip]
	if !ok {
		e = &ipLimiter{lim: rate.NewLimiter(l.every, l.limit)}
		l.byIP[ip] = e
	}
	e.lastSeen = now
	return e.lim.AllowN(now, 1)
}

func (l *IPRateLimiter) pruneLocked(now time.Time) {
	if now.Sub(l.pruned) < limiterIdleTTL {
		return
	}
	for ip, e := range l.byIP {
		if now.Sub(e.lastSeen) > limiterIdleTTL {
			delete(l.byIP, ip)
		}
	}
	l.pruned = now
}

func clientIP(r *http.Request) string {
	if ip := firstForwardedFor(r.Header.Get("X-Forwarded-For")); ip != "" {
		return ip
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}

	return r.RemoteAddr
}

func firstForwardedFor(xff string) string {
	if xff == "" {
		return ""
	}

	first, _, _ := strings.Cut(xff, ",")
	return strings.TrimSpace(first)
}
