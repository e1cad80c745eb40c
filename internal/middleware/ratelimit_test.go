// AngelaMos | 2026
// ratelimit_test.go

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unreachableRedis forces every limiter onto the local bucket.
func unreachableRedis(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRateLimiterFallsBackToLocalBucket(t *testing.T) {
	limiter := NewRateLimiter(unreachableRedis(t), RateLimitConfig{
		Limit:     Window(2, 2, time.Minute),
		SkipPaths: []string{"/healthz"},
	})
	h := limiter.Handler(okHandler)

	hit := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "203.0.113.7:4000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, hit("/v1/events").Code)
	assert.Equal(t, http.StatusOK, hit("/v1/events").Code)

	limited := hit("/v1/events")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.NotEmpty(t, limited.Header().Get("Retry-After"))
	assert.Contains(t, limited.Body.String(), "RATE_LIMITED")

	assert.Equal(t, http.StatusOK, hit("/healthz").Code, "skipped paths are never limited")
}

func TestCostByUpload(t *testing.T) {
	cost := CostByUpload(5)

	upload := httptest.NewRequest(http.MethodPost, "/v1/events/x/expenses", strings.NewReader(""))
	upload.Header.Set("Content-Type", "multipart/form-data; boundary=abc")
	assert.Equal(t, 5, cost(upload))

	jsonPut := httptest.NewRequest(http.MethodPut, "/v1/expenses/x", strings.NewReader("{}"))
	jsonPut.Header.Set("Content-Type", "application/json")
	assert.Equal(t, 1, cost(jsonPut))

	get := httptest.NewRequest(http.MethodGet, "/v1/expenses/x", nil)
	get.Header.Set("Content-Type", "multipart/form-data; boundary=abc")
	assert.Equal(t, 1, cost(get))
}

func TestUploadsSpendMoreBudget(t *testing.T) {
	local := newLocalLimiter()
	limit := Window(10, 10, time.Minute)

	res := local.allow("k", limit, 6)
	assert.Equal(t, 6, res.Allowed)

	res = local.allow("k", limit, 6)
	assert.Zero(t, res.Allowed)
	assert.Positive(t, res.RetryAfter)

	res = local.allow("k", limit, 1)
	assert.Equal(t, 1, res.Allowed)
}

func TestLocalLimiterSweepsIdleBuckets(t *testing.T) {
	local := newLocalLimiter()
	clock := time.Now()
	local.now = func() time.Time { return clock }

	local.allow("idle", Window(1, 1, time.Minute), 1)
	require.Len(t, local.buckets, 1)

	clock = clock.Add(idleTTL + sweepInterval + time.Second)
	local.allow("fresh", Window(1, 1, time.Minute), 1)
	assert.Len(t, local.buckets, 1)
	assert.Contains(t, local.buckets, "fresh")
}

func TestNormalizeEndpoint(t *testing.T) {
	assert.Equal(t,
		"/v1/events/{id}/expenses",
		normalizeEndpoint("/v1/events/6f1c2a1e-3b7d-4c55-9d0e-2a4b5c6d7e8f/expenses"),
	)
	assert.Equal(t, "/v1/auth/login", normalizeEndpoint("/v1/auth/login/"))
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", ClientIP(req))

	req.Header.Set("X-Forwarded-For", "198.51.100.1, 192.0.2.9")
	assert.Equal(t, "192.0.2.9", ClientIP(req))
}
