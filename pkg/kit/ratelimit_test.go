package kit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIPRateLimiterPerIP(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewIPRateLimiter(2, time.Minute)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.2"))

	now = now.Add(30 * time.Second)
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))
}

func TestIPRateLimiterPrunesIdle(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewIPRateLimiter(1, time.Minute)
	l.now = func() time.Time { return now }

	l.Allow("10.0.0.1")
	now = now.Add(limiterIdleTTL + time.Second)
	l.Allow("10.0.0.2")

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.NotContains(t, l.byIP, "10.0.0.1")
	assert.Contains(t, l.byIP, "10.0.0.2")
}

func TestIPRateLimiterMiddleware(t *testing.T) {
	l := NewIPRateLimiter(1, time.Minute)
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	send := func(xff string) int {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		if xff != "" {
			req.Header.Set("X-Forwarded-For", xff)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, send(""))
	assert.Equal(t, http.StatusTooManyRequests, send(""))
	assert.Equal(t, http.StatusNoContent, send("203.0.113.9, 10.0.0.1"))
}

func TestPerMinute(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	send := func(h http.Handler) int {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
		return rec.Code
	}

	limited := PerMinute(2)(ok)
	assert.Equal(t, http.StatusNoContent, send(limited))
	assert.Equal(t, http.StatusNoContent, send(limited))
	assert.Equal(t, http.StatusTooManyRequests, send(limited))

	open := PerMinute(0)(ok)
	for i := 0; i < 10; i++ {
		assert.Equal(t, http.StatusNoContent, send(open))
	}
}

func TestFirstForwardedFor(t *testing.T) {
	assert.Equal(t, "", firstForwardedFor(""))
	assert.Equal(t, "1.2.3.4", firstForwardedFor("1.2.3.4"))
	assert.Equal(t, "1.2.3.4", firstForwardedFor(" 1.2.3.4 , 5.6.7.8"))
}
