package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"video-rag-api/internal/infrastructure/persistence/redis"
	"video-rag-api/internal/interfaces/http/dto"
	"video-rag-api/pkg/logger"
)

const defaultRequestsPerSecond = 100

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond int
	// Burst 在每秒配额之上额外允许的请求数
	Burst int
}

// RateLimiter 限流器接口
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RateLimit 按客户端 IP 与路由做一秒滑动窗口限流，窗口内允许 RequestsPerSecond+Burst 次。
// 限流器故障时放行。
func RateLimit(cfg RateLimitConfig, limiter RateLimiter) gin.HandlerFunc {
	if !cfg.Enabled || limiter == nil {
		return func(c *gin.Context) { c.Next() }
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRequestsPerSecond
	}
	limit := rps + max(cfg.Burst, 0)

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := redis.BuildRateLimitKey(c.ClientIP(), routeLabel(c))

		allowed, err := limiter.Allow(ctx, key, limit, time.Second)
		switch {
		case err != nil:
			logger.Warn(ctx, "rate limiter unavailable, allowing request", "error", err.Error())
		case !allowed:
			c.Header("Retry-After", "1")
			dto.TooManyRequests(c, "rate limit exceeded")
			c.Abort()
			return
		}
		c.Next()
	}
}
