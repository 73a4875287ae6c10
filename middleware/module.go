package middleware

import (
	"github.com/aisgo/workshop-server/cache/redis"
	"github.com/aisgo/workshop-server/logger"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

/* ========================================================================
 * Middleware Module
 * ========================================================================
 * 职责: 提供认证中间件与统一错误处理的依赖注入模块
 * 限流器: Redis 客户端可用时切换到共享存储
 * ======================================================================== */

// Module 中间件模块
var Module = fx.Module("middleware",
	fx.Provide(
		NewGatewayVerifier,
		NewAuthenticator,
		NewErrorHandler,
	),
	fx.Invoke(func(client *redis.Client, log *logger.Logger) {
		if err := InitRateLimiter(client.Raw()); err != nil {
			log.Warn("redis rate limiter init failed, using in-memory store", zap.Error(err))
		}
	}),
)
