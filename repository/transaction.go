package repository

import (
	"context"

	"github.com/aisgo/workshop-server/errors"
	"github.com/aisgo/workshop-server/validator"

	"gorm.io/gorm"
)

/* ========================================================================
 * Transaction Repository Implementation - 事务支持实现
 * ========================================================================
 * 职责: 实现 TransactionRepository 接口
 * ======================================================================== */

// Transaction 在事务中执行操作
// 如果 fn 返回错误，事务将回滚；否则提交
func (r *RepositoryImpl[T]) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	db := r.withContext(ctx)

	if err := db.Transaction(func(tx *gorm.DB) error {
		return fn(tx)
	}); err != nil {
		return wrapTxError(err)
	}

	return nil
}

// wrapTxError 保留回调抛出的业务错误与字段校验错误的原始类型,
// 只有未知错误才归为内部错误
func wrapTxError(err error) error {
	if _, ok := errors.AsBizError(err); ok {
		return err
	}
	var verr *validator.ValidationError
	if errors.As(err, &verr) {
		return err
	}
	return errors.Wrap(errors.ErrCodeInternal, "transaction failed", err)
}

// Execute 在事务中执行操作
// 事务 DB 经由 context 传递, 回调内所有仓储调用（包括其他仓储实例）
// 自动复用同一事务。注册流程跨 workshops/users/roles 写入即用此方法。
func (r *RepositoryImpl[T]) Execute(ctx context.Context, fn func(txCtx context.Context) error) error {
	db := r.withContext(ctx)

	if err := db.Transaction(func(tx *gorm.DB) error {
		return fn(ContextWithTx(ctx, tx))
	}); err != nil {
		return wrapTxError(err)
	}

	return nil
}

// WithTx 创建事务版本的仓储
// 返回的仓储实例使用传入的事务 DB
func (r *RepositoryImpl[T]) WithTx(tx *gorm.DB) Repository[T] {
	return &RepositoryImpl[T]{db: tx}
}
