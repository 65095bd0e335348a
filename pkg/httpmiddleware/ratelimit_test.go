package httpmiddleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func limitedGet(handler http.Handler, remoteAddr string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remoteAddr
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestRateLimit(t *testing.T) {
	t.Run("within budget", func(t *testing.T) {
		handler := RateLimit(RateLimitConfig{Max: 5, Window: time.Minute})(okHandler())

		for i := range 5 {
			w := limitedGet(handler, "192.168.1.1:12345", nil)
			assert.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
			assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
			assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
		}
	})

	t.Run("budget exhausted", func(t *testing.T) {
		handler := RateLimit(RateLimitConfig{Max: 2, Window: time.Minute})(okHandler())

		for range 2 {
			require.Equal(t, http.StatusOK, limitedGet(handler, "10.0.0.1:9999", nil).Code)
		}

		w := limitedGet(handler, "10.0.0.1:9999", nil)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, w.Header().Get("Retry-After"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "rate limit exceeded", body["message"])
	})

	t.Run("budgets are per client", func(t *testing.T) {
		handler := RateLimit(RateLimitConfig{Max: 1, Window: time.Minute})(okHandler())

		assert.Equal(t, http.StatusOK, limitedGet(handler, "10.0.0.1:1234", nil).Code)
		assert.Equal(t, http.StatusOK, limitedGet(handler, "10.0.0.2:1234", nil).Code)
		// Same client, new port: still the same budget.
		assert.Equal(t, http.StatusTooManyRequests, limitedGet(handler, "10.0.0.1:5678", nil).Code)
	})

	t.Run("custom key function", func(t *testing.T) {
		handler := RateLimit(RateLimitConfig{
			Max:    1,
			Window: time.Minute,
			KeyFunc: func(r *http.Request) string {
				return r.Header.Get("X-API-Key")
			},
		})(okHandler())

		keyA := http.Header{"X-Api-Key": []string{"key-a"}}
		keyB := http.Header{"X-Api-Key": []string{"key-b"}}
		assert.Equal(t, http.StatusOK, limitedGet(handler, "1.2.3.4:1", keyA).Code)
		assert.Equal(t, http.StatusTooManyRequests, limitedGet(handler, "1.2.3.4:1", keyA).Code)
		assert.Equal(t, http.StatusOK, limitedGet(handler, "1.2.3.4:1", keyB).Code)
	})

	t.Run("forwarded address wins over socket address", func(t *testing.T) {
		handler := RateLimit(RateLimitConfig{Max: 1, Window: time.Minute})(okHandler())
		fwd := http.Header{"X-Forwarded-For": []string{"203.0.113.50, 70.41.3.18"}}

		assert.Equal(t, http.StatusOK, limitedGet(handler, "192.168.1.1:4444", fwd).Code)
		assert.Equal(t, http.StatusTooManyRequests, limitedGet(handler, "192.168.1.2:5555", fwd).Code)
	})
}

func TestLimiterWindowRollover(t *testing.T) {
	l := newLimiter(RateLimitConfig{Max: 1, Window: time.Minute})
	now := time.Now()

	allowed, _, _ := l.take("client", now)
	require.True(t, allowed)
	allowed, _, _ = l.take("client", now.Add(30*time.Second))
	assert.False(t, allowed, "same window")

	allowed, remaining, _ := l.take("client", now.Add(time.Minute))
	assert.True(t, allowed, "fresh window")
	assert.Equal(t, 0, remaining)
}

func TestLimiterEviction(t *testing.T) {
	l := newLimiter(RateLimitConfig{Max: 1, Window: time.Minute})
	now := time.Now()

	l.take("old", now)
	l.take("fresh", now.Add(90*time.Second))
	l.evictStale(now.Add(2 * time.Minute))

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.NotContains(t, l.clients, "old")
	assert.Contains(t, l.clients, "fresh")
}
