package middleware

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aisgo/workshop-server/response"
	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
)

/* ========================================================================
 * Rate Limiting Middleware
 * ========================================================================
 * 职责: 请求限流
 * 默认按来源 IP 限流; 认证通过后按 工坊ID+用户ID 限流,
 * 避免单个租户拖垮共享实例.
 * Redis 可用时共享计数, 否则退化为进程内存计数.
 * ======================================================================== */

const (
	defaultRateLimit  = 300
	defaultRatePeriod = time.Minute
)

// RateLimitKeyFunc returns an identifier used for rate limiting.
type RateLimitKeyFunc func(fiber.Ctx) string

var (
	rateLimiterMu      sync.RWMutex
	rateLimiter        *limiter.Limiter
	defaultLimiter     *limiter.Limiter
	defaultLimiterOnce sync.Once

	rateLimitKeyMu   sync.RWMutex
	rateLimitKeyFunc RateLimitKeyFunc
)

// SetRateLimiter replaces the global limiter and returns the previous one.
func SetRateLimiter(lim *limiter.Limiter) *limiter.Limiter {
	rateLimiterMu.Lock()
	defer rateLimiterMu.Unlock()
	prev := rateLimiter
	rateLimiter = lim
	return prev
}

// SetRateLimitKeyFunc replaces the key function and returns the previous one.
func SetRateLimitKeyFunc(fn RateLimitKeyFunc) RateLimitKeyFunc {
	rateLimitKeyMu.Lock()
	defer rateLimitKeyMu.Unlock()
	prev := rateLimitKeyFunc
	rateLimitKeyFunc = fn
	return prev
}

// InitRateLimiter switches the global limiter to a redis-backed store so
// replicas share one counter per key.
func InitRateLimiter(client *redis.Client) error {
	if client == nil {
		return nil
	}
	store, err := redisstore.NewStore(client)
	if err != nil {
		return err
	}
	lim := limiter.New(store, limiter.Rate{Period: defaultRatePeriod, Limit: defaultRateLimit})
	SetRateLimiter(lim)
	return nil
}

// RateLimitMiddleware applies request rate limiting.
func RateLimitMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		lim := currentRateLimiter()
		key := rateLimitKey(c)

		lctx, err := lim.Get(c.Context(), key)
		if err != nil {
			return response.InternalError(c, "rate limit check failed")
		}

		c.Set("X-RateLimit-Limit", fmt.Sprintf("%d", lctx.Limit))
		c.Set("X-RateLimit-Remaining", fmt.Sprintf("%d", lctx.Remaining))

		if lctx.Reached {
			return response.TooManyRequests(c, "too many requests")
		}

		return c.Next()
	}
}

func currentRateLimiter() *limiter.Limiter {
	rateLimiterMu.RLock()
	if rateLimiter != nil {
		lim := rateLimiter
		rateLimiterMu.RUnlock()
		return lim
	}
	rateLimiterMu.RUnlock()

	defaultLimiterOnce.Do(func() {
		store := memory.NewStore()
		defaultLimiter = limiter.New(store, limiter.Rate{Period: defaultRatePeriod, Limit: defaultRateLimit})
	})

	return defaultLimiter
}

func rateLimitKey(c fiber.Ctx) string {
	rateLimitKeyMu.RLock()
	fn := rateLimitKeyFunc
	rateLimitKeyMu.RUnlock()
	if fn != nil {
		if key := strings.TrimSpace(fn(c)); key != "" {
			return key
		}
	}
	if claims, ok := ClaimsFromContext(c); ok {
		return "tenant:" + claims.WorkshopID + ":" + claims.UserID
	}
	return "ip:" + c.IP()
}
