package repository

import (
	"context"
	"sync"

	"github.com/aisgo/workshop-server/errors"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

/* ========================================================================
 * CRUD Repository Implementation - CRUD 操作实现
 * ========================================================================
 * 职责: 实现 CRUDRepository 接口
 *
 * 使用示例:
 *   // 1. 定义模型
 *   type Client struct {
 *       model.BaseModel
 *       WorkshopID ulid.ULID `gorm:"column:workshop_id;type:char(26);index"`
 *       Name       string      `gorm:"column:name;type:varchar(200);not null"`
 *   }
 *
 *   // 2. 创建仓储
 *   repo := repository.NewRepository[Client](db)
 *
 *   // 3. 租户上下文（由认证中间件注入）
 *   ctx = repository.WithTenantContext(ctx, repository.TenantContext{WorkshopID: wid})
 *
 *   // 4. 基本 CRUD（workshop_id 自动盖章、自动过滤）
 *   client := &Client{Name: "Alice"}
 *   err := repo.Create(ctx, client)
 *   found, err := repo.FindByID(ctx, client.ID)
 *
 *   // 5. 部分更新（防止批量赋值漏洞）
 *   err = repo.UpdateByID(ctx, client.ID,
 *       map[string]any{"name": "New Name"},
 *       "name", "phone") // 白名单字段
 *
 *   // 6. 事务示例
 *   err = repo.Execute(ctx, func(txCtx context.Context) error {
 *       if err := repo.Create(txCtx, c1); err != nil {
 *           return err // 自动回滚
 *       }
 *       return repo.Create(txCtx, c2) // 成功则自动提交
 *   })
 * ======================================================================== */

const (
	// DefaultBatchSize 默认批量操作大小
	DefaultBatchSize = 100
)

// RepositoryImpl 仓储实现
type RepositoryImpl[T any] struct {
	db *gorm.DB

	// Schema 缓存（线程安全）
	schemaOnce sync.Once
	schema     *schema.Schema
	schemaErr  error
}

// NewRepository 创建新的仓储实例
func NewRepository[T any](db *gorm.DB) Repository[T] {
	return &RepositoryImpl[T]{db: db}
}

// GetDB 获取底层 GORM DB 实例
func (r *RepositoryImpl[T]) GetDB() *gorm.DB {
	return r.db
}

// newModelPtr 创建新的模型指针
func (r *RepositoryImpl[T]) newModelPtr() *T {
	var model T
	return &model
}

// withContext 返回带 context 的 DB (自动识别事务)
func (r *RepositoryImpl[T]) withContext(ctx context.Context) *gorm.DB {
	return getDBFromContext(ctx, r.db)
}

// scoped 返回带租户过滤的 DB
func (r *RepositoryImpl[T]) scoped(ctx context.Context) *gorm.DB {
	return r.applyTenantScope(ctx, r.withContext(ctx))
}

// getSchema 获取缓存的 Schema（线程安全）
func (r *RepositoryImpl[T]) getSchema() (*schema.Schema, error) {
	r.schemaOnce.Do(func() {
		stmt := &gorm.Statement{DB: r.db}
		r.schemaErr = stmt.Parse(r.newModelPtr())
		if r.schemaErr == nil {
			r.schema = stmt.Schema
		}
	})
	return r.schema, r.schemaErr
}

/* ========================================================================
 * Create 操作
 * ======================================================================== */

// Create 创建单条记录
// 非豁免模型在写入前盖章 workshop_id; 字段已预设时保持不变
func (r *RepositoryImpl[T]) Create(ctx context.Context, model *T) error {
	if model == nil {
		return errors.ErrInvalidArgument
	}

	if err := r.stampWorkshop(ctx, model); err != nil {
		return err
	}

	return r.withContext(ctx).Create(model).Error
}

// CreateBatch 批量创建记录
func (r *RepositoryImpl[T]) CreateBatch(ctx context.Context, models []*T, batchSize int) error {
	if len(models) == 0 {
		return errors.ErrInvalidArgument
	}

	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	// 过滤 nil 模型
	validModels := make([]*T, 0, len(models))
	for _, m := range models {
		if m != nil {
			validModels = append(validModels, m)
		}
	}

	if len(validModels) == 0 {
		return nil
	}

	for _, m := range validModels {
		if err := r.stampWorkshop(ctx, m); err != nil {
			return err
		}
	}

	return r.withContext(ctx).CreateInBatches(validModels, batchSize).Error
}

/* ========================================================================
 * Update 操作
 * ======================================================================== */

// Update 更新记录（根据主键）
// 注意: 等价于 Save 语义, 会更新所有字段（包括零值字段）。
// Save 无法附加租户谓词, 因此改用 Select("*") 的 Updates 实现,
// workshop_id 与不可变字段除外。命中他租户记录时返回 not found。
func (r *RepositoryImpl[T]) Update(ctx context.Context, model *T) error {
	if model == nil {
		return errors.ErrInvalidArgument
	}

	result := r.scoped(ctx).
		Model(model).
		Select("*").
		Omit("id", "create_time", workshopColumn).
		Updates(model)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return errors.New(errors.ErrCodeNotFound, "record not found")
	}

	return nil
}

// UpdateByID 根据 ID 更新指定字段
func (r *RepositoryImpl[T]) UpdateByID(ctx context.Context, id int64, updates map[string]any, allowedFields ...string) error {
	if len(updates) == 0 {
		return errors.ErrInvalidArgument
	}

	// 过滤非法字段，防止注入/批量赋值漏洞
	filteredUpdates, err := r.filterUpdates(updates, allowedFields)
	if err != nil {
		return err
	}

	if len(filteredUpdates) == 0 {
		return errors.ErrInvalidArgument
	}

	model := r.newModelPtr()
	result := r.scoped(ctx).Model(model).Where("id = ?", id).Updates(filteredUpdates)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return errors.New(errors.ErrCodeNotFound, "record not found")
	}

	return nil
}

// filterUpdates 过滤掉 map 中非法的数据库列名，防止字段注入/批量赋值漏洞
// workshop_id 永远不可经由更新路径改写
func (r *RepositoryImpl[T]) filterUpdates(updates map[string]any, allowedFields []string) (map[string]any, error) {
	// 使用缓存的 Schema
	schema, err := r.getSchema()
	if err != nil {
		return nil, err
	}

	// 构建白名单 Set
	allowedSet := make(map[string]struct{})
	for _, f := range allowedFields {
		allowedSet[f] = struct{}{}
	}
	hasWhitelist := len(allowedSet) > 0

	filtered := make(map[string]any)
	for k, v := range updates {
		// 如果有白名单，检查字段是否在白名单中
		if hasWhitelist {
			if _, ok := allowedSet[k]; !ok {
				continue
			}
		}

		// 优先匹配数据库列名 (DB Name)
		if field, ok := schema.FieldsByDBName[k]; ok {
			if !field.PrimaryKey && field.Updatable && field.DBName != workshopColumn {
				filtered[k] = v
			}
			continue
		}
		// 尝试匹配结构体字段名 (Struct Field Name)
		if field, ok := schema.FieldsByName[k]; ok {
			if !field.PrimaryKey && field.Updatable && field.DBName != workshopColumn {
				filtered[field.DBName] = v
			}
			continue
		}
	}

	return filtered, nil
}

/* ========================================================================
 * Delete 操作
 * ======================================================================== */

// Delete 软删除记录（设置 deleted 标记）
func (r *RepositoryImpl[T]) Delete(ctx context.Context, id int64) error {
	model := r.newModelPtr()
	result := r.scoped(ctx).Delete(model, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return errors.New(errors.ErrCodeNotFound, "record not found")
	}

	return nil
}

// DeleteBatch 批量软删除记录
func (r *RepositoryImpl[T]) DeleteBatch(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return errors.ErrInvalidArgument
	}

	model := r.newModelPtr()
	return r.scoped(ctx).Delete(model, "id IN ?", ids).Error
}

// HardDelete 硬删除记录（从数据库移除）
func (r *RepositoryImpl[T]) HardDelete(ctx context.Context, id int64) error {
	model := r.newModelPtr()
	result := r.scoped(ctx).Unscoped().Delete(model, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return errors.New(errors.ErrCodeNotFound, "record not found")
	}

	return nil
}
