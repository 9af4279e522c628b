package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/webappapi/socialboard/utils"
)

const limiterIdleTTL = 5 * time.Minute

type rateLimiter struct {
	limiter *rate.Limiter
	expires time.Time
}

// TokenBucket keeps one token bucket per client IP.
type TokenBucket struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*rateLimiter
}

// NewTokenBucket allows perMinute requests per IP with a burst of half that.
func NewTokenBucket(perMinute int) *TokenBucket {
	perMinute = max(perMinute, 1)
	return &TokenBucket{
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    max(perMinute/2, 1),
		limiters: map[string]*rateLimiter{},
	}
}

// Allow consumes a token for key.
func (b *TokenBucket) Allow(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	for k, l := range b.limiters {
		if now.After(l.expires) {
			delete(b.limiters, k)
		}
	}

	l, ok := b.limiters[key]
	if !ok {
		l = &rateLimiter{limiter: rate.NewLimiter(b.limit, b.burst)}
		b.limiters[key] = l
	}
	l.expires = now.Add(limiterIdleTTL)
	return l.limiter.Allow()
}

// RateLimitMiddleware applies an IP based rate limiter using a token bucket.
func RateLimitMiddleware(bucket *TokenBucket) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !bucket.Allow(ctx.ClientIP()) {
			utils.Abort(ctx, utils.RateLimitError(42901, "Rate limit exceeded"))
			return
		}
		ctx.Next()
	}
}

// WindowLimiter counts hits per key inside a fixed window.
type WindowLimiter interface {
	// Hit records one attempt and reports whether it is still within the limit.
	Hit(ctx context.Context, key string) (bool, error)
}

// MemoryWindowLimiter is a process local fixed window counter.
type MemoryWindowLimiter struct {
	limit  int
	window time.Duration

	mu      sync.Mutex
	windows map[string]*windowCount
}

type windowCount struct {
	count   int
	resetAt time.Time
}

// NewMemoryWindowLimiter allows limit hits per key in each window.
func NewMemoryWindowLimiter(limit int, window time.Duration) *MemoryWindowLimiter {
	return &MemoryWindowLimiter{limit: limit, window: window, windows: map[string]*windowCount{}}
}

// Hit implements WindowLimiter.
func (m *MemoryWindowLimiter) Hit(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for k, w := range m.windows {
		if !now.Before(w.resetAt) {
			delete(m.windows, k)
		}
	}

	w, ok := m.windows[key]
	if !ok {
		w = &windowCount{resetAt: now.Add(m.window)}
		m.windows[key] = w
	}
	w.count++
	return w.count <= m.limit, nil
}

// RedisWindowLimiter shares the window across instances with INCR and EXPIRE.
// When redis fails it counts in memory instead.
type RedisWindowLimiter struct {
	rdb      *redis.Client
	resource string
	limit    int
	window   time.Duration
	fallback *MemoryWindowLimiter
}

// NewRedisWindowLimiter creates a limiter keyed under rl:<resource>:.
func NewRedisWindowLimiter(rdb *redis.Client, resource string, limit int, window time.Duration) *RedisWindowLimiter {
	return &RedisWindowLimiter{
		rdb:      rdb,
		resource: resource,
		limit:    limit,
		window:   window,
		fallback: NewMemoryWindowLimiter(limit, window),
	}
}

// Hit implements WindowLimiter.
func (r *RedisWindowLimiter) Hit(ctx context.Context, key string) (bool, error) {
	if r.rdb == nil {
		return r.fallback.Hit(ctx, key)
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	redisKey := fmt.Sprintf("rl:%s:%s", r.resource, key)
	// EXPIRE NX in the same transaction: the window starts on the first hit and a key never outlives it
	var incr *redis.IntCmd
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.ExpireNX(ctx, redisKey, r.window)
		return nil
	})
	if err != nil {
		utils.Sugar.Warnf("rate limit redis incr failed key=%s err=%v, counting in memory", redisKey, err)
		return r.fallback.Hit(ctx, key)
	}
	return incr.Val() <= int64(r.limit), nil
}

// LoginRateLimit rejects callers that exceed the login attempt window.
func LoginRateLimit(limiter WindowLimiter) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		allowed, err := limiter.Hit(ctx.Request.Context(), ctx.ClientIP())
		if err != nil {
			// fail open, the general limiter still applies
			ctx.Next()
			return
		}
		if !allowed {
			utils.LoginAttempts.WithLabelValues("limited").Inc()
			utils.Abort(ctx, utils.RateLimitError(42902, "Too many login attempts, please try again after 5 minutes"))
			return
		}
		ctx.Next()
	}
}
