package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"astro-server/internal/shared/config"
	"astro-server/internal/shared/errors"
	"astro-server/internal/shared/redis"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

const redisKeyPrefix = "astro:ratelimit:"

// windowScript counts a request and starts the window in one round trip. A
// counter left without a TTL gets one on its next hit, so no key can stay
// throttled forever.
var windowScript = goredis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 or redis.call("PTTL", KEYS[1]) == -1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

type limiterStore interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type RateLimiter struct {
	config config.RateLimitConfig
	store  limiterStore
}

// NewRateLimiter limits requests per client IP. With a Redis client the
// counters are shared between instances using a fixed one-second window of
// BurstSize requests; otherwise a token bucket per IP is kept in memory and
// pruned until ctx is done.
func NewRateLimiter(ctx context.Context, cfg config.RateLimitConfig, rdb *redis.Client) *RateLimiter {
	logger := slog.With("component", "rate_limit", "operation", "setup")

	rl := &RateLimiter{config: cfg}
	if rdb != nil {
		rl.store = &redisStore{client: rdb, limit: int64(cfg.BurstSize), window: time.Second}
		logger.Info("Rate limiter using Redis", "enabled", cfg.Enabled, "window_limit", cfg.BurstSize)
	} else {
		mem := newMemoryStore(cfg.RequestsPerSecond, cfg.BurstSize)
		if cfg.Enabled {
			go mem.cleanupClients(ctx, time.Minute)
		}
		rl.store = mem
		logger.Info("Rate limiter using in-memory store",
			"enabled", cfg.Enabled,
			"requests_per_second", cfg.RequestsPerSecond,
			"burst_size", cfg.BurstSize,
		)
	}

	return rl
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.config.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		ip := getClientIP(r, rl.config.TrustProxy)

		logger := slog.With(
			"middleware", "rate_limit",
			"client_ip", ip,
			"method", r.Method,
			"path", r.URL.Path,
		)

		allowed, err := rl.store.Allow(r.Context(), ip)
		if err != nil {
			// Fail open: a broken limiter backend must not take the API down.
			logger.Warn("Rate limiter unavailable, allowing request", "error", err)
			next.ServeHTTP(w, r)
			return
		}

		if !allowed {
			logger.Warn("Rate limit exceeded",
				"requests_per_second", rl.config.RequestsPerSecond,
				"burst_size", rl.config.BurstSize,
			)

			w.Header().Set("Retry-After", "1")
			http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type memoryStore struct {
	limit   rate.Limit
	burst   int
	clients map[string]*rate.Limiter
	mu      sync.Mutex
}

func newMemoryStore(requestsPerSecond float64, burst int) *memoryStore {
	return &memoryStore{
		limit:   rate.Limit(requestsPerSecond),
		burst:   burst,
		clients: make(map[string]*rate.Limiter),
	}
}

func (m *memoryStore) Allow(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	limiter, exists := m.clients[key]
	if !exists {
		limiter = rate.NewLimiter(m.limit, m.burst)
		m.clients[key] = limiter
	}
	m.mu.Unlock()

	return limiter.Allow(), nil
}

func (m *memoryStore) cleanupClients(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.prune(time.Now())
		}
	}
}

// prune drops limiters whose bucket has refilled, i.e. idle clients.
func (m *memoryStore) prune(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for ip, limiter := range m.clients {
		if limiter.TokensAt(now) >= float64(m.burst) {
			delete(m.clients, ip)
		}
	}
}

type redisStore struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

func (s *redisStore) Allow(ctx context.Context, key string) (bool, error) {
	count, err := windowScript.Run(ctx, s.client, []string{redisKeyPrefix + key}, s.window.Milliseconds()).Int64()
	if err != nil {
		return false, errors.WrapExternal("rate limit counter unavailable", err)
	}

	return count <= s.limit, nil
}

func getClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			// First entry is the client
			if i := strings.IndexByte(xff, ','); i != -1 {
				return strings.TrimSpace(xff[:i])
			}
			return strings.TrimSpace(xff)
		}

		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return xri
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
