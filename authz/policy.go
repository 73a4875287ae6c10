package authz

import (
	"github.com/aisgo/workshop-server/utils/id-generator/ulid"

	"github.com/aisgo/workshop-server/errors"
)

/* ========================================================================
 * Policies - 鉴权策略
 * ========================================================================
 * 职责: 能力检查 + 资源归属检查
 * 设计: 策略层对资源 workshop_id 做二次校验,
 *       即使仓储层过滤失效也不会跨租户放行
 * ======================================================================== */

// Require 校验主体持有指定能力
func Require(p Principal, cap Capability) error {
	if !p.Has(cap) {
		return errors.Newf(errors.ErrCodePermissionDenied, "missing capability %s", cap)
	}
	return nil
}

// RequireSameWorkshop 校验资源归属主体所在门店
func RequireSameWorkshop(p Principal, workshopID ulid.ULID) error {
	if p.WorkshopID != workshopID {
		// 归属不符按 not found 处理, 不向调用方泄露资源存在性
		return errors.ErrNotFound
	}
	return nil
}

// RequireOn 能力检查 + 归属检查的组合
func RequireOn(p Principal, cap Capability, workshopID ulid.ULID) error {
	if err := RequireSameWorkshop(p, workshopID); err != nil {
		return err
	}
	return Require(p, cap)
}
