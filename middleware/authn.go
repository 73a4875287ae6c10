package middleware

import (
	"strconv"

	"github.com/aisgo/workshop-server/authz"
	"github.com/aisgo/workshop-server/logger"
	"github.com/aisgo/workshop-server/repository"
	"github.com/aisgo/workshop-server/response"
	"github.com/aisgo/workshop-server/service"
	"github.com/aisgo/workshop-server/utils/id-generator/ulid"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

/* ========================================================================
 * Authentication Middleware
 * ========================================================================
 * 职责: 校验网关签名头, 加载当事人, 注入租户上下文
 * 流程: 签名校验 -> 解析 claims -> 加载 Principal (缓存优先)
 *       -> 工坊归属校验 -> 注入 request context
 * 下游 service 层只依赖 context 中的 Principal 与 TenantContext.
 * ======================================================================== */

const authClaimsLocalKey = "gateway_auth_claims"

// Authenticator turns verified gateway headers into an authenticated
// request context.
type Authenticator struct {
	verifier   *GatewayVerifier
	principals *service.PrincipalService
	log        *logger.Logger
}

func NewAuthenticator(verifier *GatewayVerifier, principals *service.PrincipalService, log *logger.Logger) *Authenticator {
	if log == nil {
		log = logger.NewNop()
	}
	return &Authenticator{verifier: verifier, principals: principals, log: log}
}

// ClaimsFromContext returns the verified gateway claims, if any.
func ClaimsFromContext(c fiber.Ctx) (*GatewayClaims, bool) {
	v := c.Locals(authClaimsLocalKey)
	claims, ok := v.(*GatewayClaims)
	return claims, ok && claims != nil
}

// Handle returns the Fiber middleware.
func (a *Authenticator) Handle() fiber.Handler {
	return func(c fiber.Ctx) error {
		if !a.verifier.Enabled() {
			// 未启用网关校验 (本地开发), 请求保持未认证状态,
			// 受保护的操作会在 service 层被拒绝.
			return c.Next()
		}

		values, err := parseGatewayHeaderValues(func(key string) string { return c.Get(key) })
		if err != nil {
			a.log.Warn("auth header parse failed",
				zap.Error(err),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			return response.Unauthorized(c, err.Error())
		}

		claims, err := a.verifier.Verify(values)
		if err != nil {
			a.log.Warn("auth header verify failed",
				zap.Error(err),
				zap.String("issuer", values.Issuer),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			return response.Unauthorized(c, err.Error())
		}

		userID, err := strconv.ParseInt(claims.UserID, 10, 64)
		if err != nil {
			return response.Unauthorized(c, "invalid user claim")
		}

		p, err := a.principals.Resolve(c.Context(), userID)
		if err != nil {
			return response.Error(c, err)
		}

		// 网关声明的工坊必须与当事人实际归属一致, 防止跨租户伪造.
		if claims.WorkshopID != "" {
			claimed, err := ulid.Parse(claims.WorkshopID)
			if err != nil || claimed != p.WorkshopID {
				a.log.Warn("workshop claim mismatch",
					zap.String("claimed", claims.WorkshopID),
					zap.Int64("user_id", userID),
				)
				return response.Forbidden(c, "workshop claim mismatch")
			}
		}

		ctx := authz.WithPrincipal(c.Context(), *p)
		ctx = repository.WithTenantContext(ctx, repository.TenantContext{
			WorkshopID: p.WorkshopID,
			UserID:     p.UserID,
			Roles:      p.Roles,
		})
		c.SetContext(ctx)
		c.Locals(authClaimsLocalKey, claims)

		return c.Next()
	}
}
