// AngelaMos | 2026
// ratelimit.go

package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/carterperez-dev/solution-ledger/internal/core"
)

// RateLimitConfig drives a RateLimiter. CostFunc lets expensive requests
// such as attachment uploads spend more than one token.
type RateLimitConfig struct {
	Limit     redis_rate.Limit
	KeyFunc   func(*http.Request) string
	CostFunc  func(*http.Request) int
	SkipPaths []string
	FailOpen  bool
}

// RateLimiter enforces a shared budget in Redis and falls back to an
// in-process token bucket per key while Redis is unreachable.
type RateLimiter struct {
	limiter  *redis_rate.Limiter
	fallback *localLimiter
	config   RateLimitConfig
	skip     map[string]struct{}
}

func NewRateLimiter(rdb *redis.Client, cfg RateLimitConfig) *RateLimiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = KeyByIP
	}
	if cfg.CostFunc == nil {
		cfg.CostFunc = func(*http.Request) int { return 1 }
	}

	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return &RateLimiter{
		limiter:  redis_rate.NewLimiter(rdb),
		fallback: newLocalLimiter(),
		config:   cfg,
		skip:     skip,
	}
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := rl.skip[r.URL.Path]; ok {
			next.ServeHTTP(w, r)
			return
		}

		key := rl.config.KeyFunc(r)
		res, err := rl.allow(r.Context(), key, rl.config.CostFunc(r))
		if err != nil {
			if rl.config.FailOpen {
				slog.Warn("rate limiter unavailable, failing open",
					"error", err,
					"key", key,
				)
				next.ServeHTTP(w, r)
				return
			}
			core.JSONError(w, core.UpstreamError("rate limiter unavailable", err))
			return
		}

		setRateLimitHeaders(w, res, rl.config.Limit)

		if res.Allowed == 0 {
			writeRateLimitExceeded(w, res)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) allow(
	ctx context.Context,
	key string,
	cost int,
) (*redis_rate.Result, error) {
	res, err := rl.limiter.AllowN(ctx, key, rl.config.Limit, cost)
	if err == nil {
		return res, nil
	}

	slog.Debug("redis rate limit failed, using local bucket", "error", err)
	return rl.fallback.allow(key, rl.config.Limit, cost), nil
}

// CostByUpload charges weight tokens for multipart writes and one token
// for everything else.
func CostByUpload(weight int) func(*http.Request) int {
	return func(r *http.Request) int {
		if r.Method != http.MethodPost && r.Method != http.MethodPut {
			return 1
		}
		ct, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || ct != "multipart/form-data" {
			return 1
		}
		return weight
	}
}

// ClientIP prefers the right-most X-Forwarded-For hop, which is the one
// appended by our own proxy.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		return strings.TrimSpace(hops[len(hops)-1])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func KeyByIP(r *http.Request) string {
	return "ratelimit:ip:" + ClientIP(r)
}

func KeyByUser(r *http.Request) string {
	if userID := GetUserID(r.Context()); userID != "" {
		return "ratelimit:user:" + userID
	}
	return KeyByIP(r)
}

func KeyByUserAndEndpoint(r *http.Request) string {
	return KeyByUser(r) + ":endpoint:" + normalizeEndpoint(r.URL.Path)
}

// normalizeEndpoint folds record ids so /v1/events/<id> shares one bucket
// across every event.
func normalizeEndpoint(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i, part := range parts {
		if uuid.Validate(part) == nil {
			parts[i] = "{id}"
		}
	}
	return "/" + strings.Join(parts, "/")
}

func setRateLimitHeaders(
	w http.ResponseWriter,
	res *redis_rate.Result,
	limit redis_rate.Limit,
) {
	h := w.Header()

	h.Set("X-RateLimit-Limit", strconv.Itoa(limit.Rate))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(
		time.Now().Add(res.ResetAfter).Unix(), 10))
	h.Set("RateLimit-Policy", fmt.Sprintf(`%d;w=%d`, limit.Rate, int(limit.Period.Seconds())))
}

func writeRateLimitExceeded(w http.ResponseWriter, res *redis_rate.Result) {
	retryAfter := max(int(res.RetryAfter.Seconds()), 1)
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))

	core.JSON(w, http.StatusTooManyRequests, core.Response{
		Success: false,
		Error: &core.ErrorBody{
			Code:    "RATE_LIMITED",
			Message: fmt.Sprintf("rate limit exceeded, retry after %d seconds", retryAfter),
		},
	})
}

const (
	sweepInterval = 5 * time.Minute
	idleTTL       = 10 * time.Minute
)

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// localLimiter sweeps idle buckets inline on access instead of running a
// background goroutine.
type localLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
	now       func() time.Time
}

func newLocalLimiter() *localLimiter {
	return &localLimiter{
		buckets:   make(map[string]*bucket),
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

func (l *localLimiter) allow(key string, limit redis_rate.Limit, cost int) *redis_rate.Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > sweepInterval {
		for k, b := range l.buckets {
			if now.Sub(b.lastSeen) > idleTTL {
				delete(l.buckets, k)
			}
		}
		l.lastSweep = now
	}

	perSecond := float64(limit.Rate) / limit.Period.Seconds()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Limit(perSecond), limit.Burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now

	interval := time.Duration(float64(time.Second) / perSecond)
	res := &redis_rate.Result{
		Limit:      limit,
		Remaining:  max(int(b.limiter.TokensAt(now))-cost, 0),
		RetryAfter: -1,
		ResetAfter: interval,
	}

	if b.limiter.AllowN(now, cost) {
		res.Allowed = cost
	} else {
		res.Remaining = 0
		res.RetryAfter = time.Duration(cost) * interval
	}

	return res
}

// AuthEndpointLimiter throttles the public credential endpoints per client
// address and route, independent of the global limiter.
func AuthEndpointLimiter(rdb *redis.Client, perMinute int) func(http.Handler) http.Handler {
	return NewRateLimiter(rdb, RateLimitConfig{
		Limit:    Window(perMinute, perMinute, time.Minute),
		KeyFunc:  KeyByUserAndEndpoint,
		FailOpen: true,
	}).Handler
}

// Window allows rate requests per period with the given burst.
func Window(rate, burst int, period time.Duration) redis_rate.Limit {
	if period <= 0 {
		period = time.Minute
	}
	return redis_rate.Limit{
		Rate:   rate,
		Burst:  burst,
		Period: period,
	}
}
