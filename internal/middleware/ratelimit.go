// AngelaMos | 2026
// ratelimit.go

package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/carterperez-dev/templates/identity-service/internal/core"
)

type KeyFunc func(*http.Request) string

type LimiterConfig struct {
	Limit  redis_rate.Limit
	Key    KeyFunc
	Logger *slog.Logger
}

// RateLimiter counts requests in redis and falls back to in-process token
// buckets while redis is unreachable.
type RateLimiter struct {
	remote *redis_rate.Limiter
	local  *localBuckets
	limit  redis_rate.Limit
	key    KeyFunc
	logger *slog.Logger
}

func NewRateLimiter(rdb *redis.Client, cfg LimiterConfig) *RateLimiter {
	if cfg.Key == nil {
		cfg.Key = (*ClientIP)(nil).ByIP
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &RateLimiter{
		remote: redis_rate.NewLimiter(rdb),
		local:  newLocalBuckets(),
		limit:  cfg.Limit,
		key:    cfg.Key,
		logger: cfg.Logger,
	}
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := rl.key(r)

		res, err := rl.remote.Allow(r.Context(), key, rl.limit)
		if err != nil {
			rl.logger.WarnContext(r.Context(), "rate limit store unavailable, using local buckets",
				"error", err,
			)
			res = rl.local.allow(key, rl.limit, time.Now())
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.limit.Rate))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(res.Remaining, 0)))

		if res.Allowed == 0 {
			retryAfter := max(int(res.RetryAfter.Seconds()), 1)
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			core.Fail(w, core.CodeRateLimited, "too many requests, retry after "+
				strconv.Itoa(retryAfter)+" seconds")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// PerWindow builds a limit from the configured window, defaulting to one
// minute. A burst below one equals the rate.
func PerWindow(requests, burst int, window time.Duration) redis_rate.Limit {
	if window <= 0 {
		window = time.Minute
	}
	if requests < 1 {
		requests = 1
	}
	if burst < 1 {
		burst = requests
	}
	return redis_rate.Limit{Rate: requests, Burst: burst, Period: window}
}

// ByIP keys the global budget on the client address.
func (c *ClientIP) ByIP(r *http.Request) string {
	return "ratelimit:ip:" + c.Resolve(r)
}

// ByIPAndEndpoint gives every sensitive endpoint its own budget per client
// address. Ids in the path collapse so one budget covers all targets.
func (c *ClientIP) ByIPAndEndpoint(r *http.Request) string {
	return c.ByIP(r) + ":endpoint:" + endpointPattern(r.URL.Path)
}

func endpointPattern(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i, part := range parts {
		if _, err := uuid.Parse(part); err == nil {
			parts[i] = "{id}"
			continue
		}
		if _, err := strconv.ParseUint(part, 10, 64); err == nil {
			parts[i] = "{id}"
		}
	}
	return "/" + strings.Join(parts, "/")
}

const bucketIdle = 10 * time.Minute

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type localBuckets struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

func newLocalBuckets() *localBuckets {
	return &localBuckets{buckets: make(map[string]*bucket)}
}

func (l *localBuckets) allow(key string, limit redis_rate.Limit, now time.Time) *redis_rate.Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) > bucketIdle {
		for k, b := range l.buckets {
			if now.Sub(b.lastSeen) > bucketIdle {
				delete(l.buckets, k)
			}
		}
		l.lastSweep = now
	}

	b, ok := l.buckets[key]
	if !ok {
		every := limit.Period / time.Duration(max(limit.Rate, 1))
		b = &bucket{limiter: rate.NewLimiter(rate.Every(every), limit.Burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now

	res := &redis_rate.Result{Limit: limit, RetryAfter: -1}
	if b.limiter.AllowN(now, 1) {
		res.Allowed = 1
		res.Remaining = int(b.limiter.TokensAt(now))
		return res
	}

	reservation := b.limiter.ReserveN(now, 1)
	res.RetryAfter = reservation.DelayFrom(now)
	reservation.CancelAt(now)
	return res
}
