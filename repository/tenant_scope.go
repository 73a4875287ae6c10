package repository

import (
	"context"
	"reflect"

	"github.com/aisgo/workshop-server/errors"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

/* ========================================================================
 * Tenant Scope - 租户隔离
 * ========================================================================
 * 职责: 为所有查询路径注入 workshop_id 谓词, 为写入盖章 workshop_id
 * 设计: 租户上下文缺失时直接失败, 不做静默放行
 * ======================================================================== */

const workshopColumn = "workshop_id"

// TenantExempt marks models that live outside workshop scoping
// (workshops themselves, global roles and permissions).
type TenantExempt interface {
	TenantExempt() bool
}

// applyTenantScope 为查询注入 workshop_id = ? 谓词
// 模型豁免时原样返回; 上下文无租户时记录错误, 查询随之失败
func (r *RepositoryImpl[T]) applyTenantScope(ctx context.Context, db *gorm.DB) *gorm.DB {
	if r.isTenantExempt(r.newModelPtr()) {
		return db
	}

	tc, ok := TenantFromContext(ctx)
	if !ok {
		db.AddError(errors.ErrTenantMissing)
		return db
	}

	if _, err := r.workshopField(); err != nil {
		db.AddError(err)
		return db
	}

	return db.Where(workshopColumn+" = ?", tc.WorkshopID)
}

// stampWorkshop 在创建前写入 workshop_id
// 字段已有值时保持不变（系统/种子代码预设租户的场景）
func (r *RepositoryImpl[T]) stampWorkshop(ctx context.Context, model any) error {
	if r.isTenantExempt(model) {
		return nil
	}

	field, err := r.workshopField()
	if err != nil {
		return err
	}

	rv := reflect.ValueOf(model)
	if _, isZero := field.ValueOf(ctx, rv); !isZero {
		return nil
	}

	tc, ok := TenantFromContext(ctx)
	if !ok {
		return errors.ErrTenantMissing
	}

	return field.Set(ctx, rv, tc.WorkshopID)
}

func (r *RepositoryImpl[T]) workshopField() (*schema.Field, error) {
	sch, err := r.getSchema()
	if err != nil {
		return nil, err
	}
	field, ok := sch.FieldsByDBName[workshopColumn]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeInternal, "model %s has no %s column", sch.Table, workshopColumn)
	}
	return field, nil
}

func (r *RepositoryImpl[T]) isTenantExempt(model any) bool {
	if model == nil {
		return false
	}

	if exempt, ok := model.(TenantExempt); ok {
		return exempt.TenantExempt()
	}

	rv := reflect.ValueOf(model)
	if rv.Kind() == reflect.Ptr && !rv.IsNil() {
		if exempt, ok := rv.Elem().Interface().(TenantExempt); ok {
			return exempt.TenantExempt()
		}
	}

	return false
}
