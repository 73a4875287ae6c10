package service

import (
	"context"

	"github.com/aisgo/workshop-server/authz"
	"github.com/aisgo/workshop-server/cache/redis"
	"github.com/aisgo/workshop-server/errors"
	"github.com/aisgo/workshop-server/logger"
	"github.com/aisgo/workshop-server/metrics"
	"github.com/aisgo/workshop-server/model"
	"github.com/aisgo/workshop-server/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

/* ========================================================================
 * Principal Service - 主体解析
 * ========================================================================
 * 职责: 按用户 id 解析角色与能力集, 供认证中间件注入请求上下文
 * 路径: 缓存命中直接返回; 未命中回表 (预加载角色与权限) 后写回
 * 注意: 该路径发生在租户上下文建立之前, 走未隔离查询
 * ======================================================================== */

// PrincipalService 主体服务
type PrincipalService struct {
	userRepo repository.Repository[model.User]
	cache    *redis.PrincipalCache
	log      *logger.Logger
}

// NewPrincipalService 创建主体服务
func NewPrincipalService(
	userRepo repository.Repository[model.User],
	cache *redis.PrincipalCache,
	log *logger.Logger,
) *PrincipalService {
	return &PrincipalService{userRepo: userRepo, cache: cache, log: log}
}

// Resolve 解析用户主体
// 停用账号视同未认证
func (s *PrincipalService) Resolve(ctx context.Context, userID int64) (*authz.Principal, error) {
	if s.cache != nil {
		p, err := s.cache.Get(ctx, userID)
		if err != nil {
			metrics.PrincipalCacheTotal.WithLabelValues("error").Inc()
			s.log.Warn("principal cache read failed", zap.Int64("user_id", userID), zap.Error(err))
		}
		if p != nil {
			metrics.PrincipalCacheTotal.WithLabelValues("hit").Inc()
			return p, nil
		}
		metrics.PrincipalCacheTotal.WithLabelValues("miss").Inc()
	}

	var user model.User
	err := s.userRepo.GetDB().WithContext(ctx).
		Preload("Roles").
		Preload("Roles.Permissions").
		Where("id = ?", userID).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrUnauthenticated
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, "load principal failed", err)
	}
	if !user.Active {
		return nil, errors.ErrUnauthenticated
	}

	p := authz.NewPrincipal(&user)
	if s.cache != nil {
		if err := s.cache.Put(ctx, p); err != nil {
			s.log.Warn("principal cache write failed", zap.Int64("user_id", userID), zap.Error(err))
		}
	}
	return &p, nil
}
