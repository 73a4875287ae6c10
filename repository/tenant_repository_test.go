package repository

import (
	"context"
	"testing"

	"github.com/aisgo/workshop-server/errors"
	"github.com/aisgo/workshop-server/validator"

	"github.com/aisgo/workshop-server/utils/id-generator/ulid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/plugin/soft_delete"
)

type scopedJob struct {
	ID         int64                 `gorm:"column:id;primaryKey"`
	WorkshopID ulid.ULID             `gorm:"column:workshop_id;type:char(26);not null"`
	Name       string                `gorm:"column:name"`
	Minutes    int64                 `gorm:"column:minutes"`
	Deleted    soft_delete.DeletedAt `gorm:"column:deleted;default:0;softDelete:flag"`
}

type globalRole struct {
	ID   int64  `gorm:"column:id;primaryKey"`
	Name string `gorm:"column:name"`
}

func (globalRole) TenantExempt() bool { return true }

func openScopeTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&scopedJob{}, &globalRole{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func tenantCtx(wid ulid.ULID) context.Context {
	return WithTenantContext(context.Background(), TenantContext{WorkshopID: wid})
}

func TestScopedFindByIDIsolation(t *testing.T) {
	db := openScopeTestDB(t)
	repo := NewRepository[scopedJob](db)

	shopA := ulid.Generate()
	shopB := ulid.Generate()

	a := &scopedJob{ID: 1, Name: "a"}
	b := &scopedJob{ID: 2, Name: "b"}

	if err := repo.Create(tenantCtx(shopA), a); err != nil {
		t.Fatalf("create a: %v", err)
	}
	if err := repo.Create(tenantCtx(shopB), b); err != nil {
		t.Fatalf("create b: %v", err)
	}

	ctxA := tenantCtx(shopA)
	if _, err := repo.FindByID(ctxA, b.ID); err == nil {
		t.Fatalf("expected not found for cross-tenant id")
	}
	if _, err := repo.FindByID(ctxA, a.ID); err != nil {
		t.Fatalf("expected find by id: %v", err)
	}
}

func TestScopedListAndCount(t *testing.T) {
	db := openScopeTestDB(t)
	repo := NewRepository[scopedJob](db)

	shopA := ulid.Generate()
	shopB := ulid.Generate()

	for i := int64(1); i <= 3; i++ {
		if err := repo.Create(tenantCtx(shopA), &scopedJob{ID: i}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if err := repo.Create(tenantCtx(shopB), &scopedJob{ID: 100}); err != nil {
		t.Fatalf("create: %v", err)
	}

	list, err := repo.FindByQuery(tenantCtx(shopA), "")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 rows for shop A, got %d", len(list))
	}

	count, err := repo.Count(tenantCtx(shopB), "")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 row for shop B, got %d", count)
	}
}

func TestCreateStampsWorkshopID(t *testing.T) {
	db := openScopeTestDB(t)
	repo := NewRepository[scopedJob](db)

	shopA := ulid.Generate()
	job := &scopedJob{ID: 1, Name: "stamped"}

	if err := repo.Create(tenantCtx(shopA), job); err != nil {
		t.Fatalf("create: %v", err)
	}
	if job.WorkshopID != shopA {
		t.Fatalf("expected workshop_id %s, got %s", shopA, job.WorkshopID)
	}
}

func TestCreateKeepsPresetWorkshopID(t *testing.T) {
	db := openScopeTestDB(t)
	repo := NewRepository[scopedJob](db)

	shopA := ulid.Generate()
	preset := ulid.Generate()
	job := &scopedJob{ID: 1, WorkshopID: preset}

	if err := repo.Create(tenantCtx(shopA), job); err != nil {
		t.Fatalf("create: %v", err)
	}
	if job.WorkshopID != preset {
		t.Fatalf("preset workshop_id was overwritten: %s", job.WorkshopID)
	}
}

func TestMissingTenantContextFails(t *testing.T) {
	db := openScopeTestDB(t)
	repo := NewRepository[scopedJob](db)

	ctx := context.Background()

	if err := repo.Create(ctx, &scopedJob{ID: 1}); !errors.Is(err, errors.ErrTenantMissing) {
		t.Fatalf("expected tenant missing on create, got %v", err)
	}
	if _, err := repo.FindByQuery(ctx, ""); err == nil {
		t.Fatalf("expected error listing without tenant context")
	}
	if _, err := repo.Count(ctx, ""); err == nil {
		t.Fatalf("expected error counting without tenant context")
	}
}

func TestSeedCreateWithPresetTenantNeedsNoContext(t *testing.T) {
	db := openScopeTestDB(t)
	repo := NewRepository[scopedJob](db)

	preset := ulid.Generate()
	job := &scopedJob{ID: 1, WorkshopID: preset}

	// Registration creates the owner before any tenant context exists.
	if err := repo.Create(context.Background(), job); err != nil {
		t.Fatalf("create with preset workshop_id: %v", err)
	}
}

func TestUpdateCrossTenantNotFound(t *testing.T) {
	db := openScopeTestDB(t)
	repo := NewRepository[scopedJob](db)

	shopA := ulid.Generate()
	shopB := ulid.Generate()

	job := &scopedJob{ID: 1, Name: "original"}
	if err := repo.Create(tenantCtx(shopA), job); err != nil {
		t.Fatalf("create: %v", err)
	}

	job.Name = "hijacked"
	if err := repo.Update(tenantCtx(shopB), job); !errors.IsNotFound(err) {
		t.Fatalf("expected record not found, got %v", err)
	}

	got, err := repo.FindByID(tenantCtx(shopA), job.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Name != "original" {
		t.Fatalf("row was modified across tenants: %s", got.Name)
	}
}

func TestUpdateByIDCannotChangeWorkshop(t *testing.T) {
	db := openScopeTestDB(t)
	repo := NewRepository[scopedJob](db)

	shopA := ulid.Generate()
	other := ulid.Generate()

	if err := repo.Create(tenantCtx(shopA), &scopedJob{ID: 1, Name: "n"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	err := repo.UpdateByID(tenantCtx(shopA), 1, map[string]any{
		"workshop_id": other.String(),
	})
	if !errors.Is(err, errors.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument when only workshop_id given, got %v", err)
	}

	if err := repo.UpdateByID(tenantCtx(shopA), 1, map[string]any{
		"workshop_id": other.String(),
		"name":        "renamed",
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := repo.FindByID(tenantCtx(shopA), 1)
	if err != nil {
		t.Fatalf("find after update: %v", err)
	}
	if got.WorkshopID != shopA {
		t.Fatalf("workshop_id changed via update path")
	}
	if got.Name != "renamed" {
		t.Fatalf("whitelisted field not updated: %s", got.Name)
	}
}

func TestDeleteCrossTenantNotFound(t *testing.T) {
	db := openScopeTestDB(t)
	repo := NewRepository[scopedJob](db)

	shopA := ulid.Generate()
	shopB := ulid.Generate()

	if err := repo.Create(tenantCtx(shopA), &scopedJob{ID: 1}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := repo.Delete(tenantCtx(shopB), 1); !errors.IsNotFound(err) {
		t.Fatalf("expected record not found, got %v", err)
	}
	if err := repo.Delete(tenantCtx(shopA), 1); err != nil {
		t.Fatalf("delete own row: %v", err)
	}
}

func TestExemptModelBypassesScope(t *testing.T) {
	db := openScopeTestDB(t)
	repo := NewRepository[globalRole](db)

	// No tenant context at all: exempt models must still work.
	ctx := context.Background()
	if err := repo.Create(ctx, &globalRole{ID: 1, Name: "owner"}); err != nil {
		t.Fatalf("create exempt: %v", err)
	}
	if _, err := repo.FindByID(ctx, 1); err != nil {
		t.Fatalf("find exempt: %v", err)
	}
}

func TestScopedSum(t *testing.T) {
	db := openScopeTestDB(t)
	repo := NewRepository[scopedJob](db)

	shopA := ulid.Generate()
	shopB := ulid.Generate()

	if err := repo.Create(tenantCtx(shopA), &scopedJob{ID: 1, Minutes: 90}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(tenantCtx(shopA), &scopedJob{ID: 2, Minutes: 30}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(tenantCtx(shopB), &scopedJob{ID: 3, Minutes: 999}); err != nil {
		t.Fatalf("create: %v", err)
	}

	sum, err := repo.Sum(tenantCtx(shopA), "minutes", "")
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	if sum != 120 {
		t.Fatalf("expected 120, got %v", sum)
	}
}

func TestScopedFindPage(t *testing.T) {
	db := openScopeTestDB(t)
	repo := NewRepository[scopedJob](db)

	shopA := ulid.Generate()
	shopB := ulid.Generate()

	for i := int64(1); i <= 5; i++ {
		if err := repo.Create(tenantCtx(shopA), &scopedJob{ID: i}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if err := repo.Create(tenantCtx(shopB), &scopedJob{ID: 100}); err != nil {
		t.Fatalf("create: %v", err)
	}

	page, err := repo.FindPage(tenantCtx(shopA), 1, 2, "")
	if err != nil {
		t.Fatalf("find page: %v", err)
	}
	if page.Total != 5 {
		t.Fatalf("expected total 5, got %d", page.Total)
	}
	if len(page.List) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(page.List))
	}
	if page.Pages != 3 {
		t.Fatalf("expected 3 pages, got %d", page.Pages)
	}
}

func TestExecuteRollsBackOnError(t *testing.T) {
	db := openScopeTestDB(t)
	repo := NewRepository[scopedJob](db)

	shopA := ulid.Generate()
	ctx := tenantCtx(shopA)

	err := repo.Execute(ctx, func(txCtx context.Context) error {
		if err := repo.Create(txCtx, &scopedJob{ID: 1}); err != nil {
			return err
		}
		return errors.ErrInvalidArgument
	})
	if err == nil {
		t.Fatalf("expected error from transaction")
	}

	count, err := repo.Count(ctx, "")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected rollback, found %d rows", count)
	}
}

func TestExecutePreservesValidationError(t *testing.T) {
	db := openScopeTestDB(t)
	repo := NewRepository[scopedJob](db)

	shopA := ulid.Generate()
	ctx := tenantCtx(shopA)

	// 回调里的字段校验错误必须原样出事务, 不得被吞成内部错误
	err := repo.Execute(ctx, func(txCtx context.Context) error {
		if err := repo.Create(txCtx, &scopedJob{ID: 1}); err != nil {
			return err
		}
		verr := &validator.ValidationError{}
		verr.Add("Name", "name is taken")
		return verr
	})

	var verr *validator.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("want validation error through transaction, got %v", err)
	}
	if len(verr.Errors["Name"]) == 0 {
		t.Fatalf("field map lost in transit: %+v", verr.Errors)
	}

	count, err := repo.Count(ctx, "")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected rollback, found %d rows", count)
	}
}

func TestCreateBatchStampsAndDeleteBatchScopes(t *testing.T) {
	db := openScopeTestDB(t)
	repo := NewRepository[scopedJob](db)

	shopA := ulid.Generate()
	shopB := ulid.Generate()
	ctxA := tenantCtx(shopA)

	jobs := []*scopedJob{
		{ID: 1, Name: "a"},
		nil, // nil 条目被跳过而不是报错
		{ID: 2, Name: "b"},
		{ID: 3, Name: "c"},
	}
	if err := repo.CreateBatch(ctxA, jobs, 2); err != nil {
		t.Fatalf("create batch: %v", err)
	}
	for _, j := range jobs {
		if j != nil && j.WorkshopID != shopA {
			t.Fatalf("batch row %d missing workshop stamp", j.ID)
		}
	}
	if err := repo.CreateBatch(ctxA, nil, 10); !errors.Is(err, errors.ErrInvalidArgument) {
		t.Fatalf("empty batch: want invalid argument, got %v", err)
	}
	if err := repo.Create(tenantCtx(shopB), &scopedJob{ID: 100}); err != nil {
		t.Fatalf("create: %v", err)
	}

	// 批量删除带租户谓词: 他店 id 混入也删不到
	if err := repo.DeleteBatch(ctxA, []int64{1, 2, 100}); err != nil {
		t.Fatalf("delete batch: %v", err)
	}
	count, err := repo.Count(ctxA, "")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("shop A rows after batch delete = %d, want 1", count)
	}
	if c, err := repo.Count(tenantCtx(shopB), ""); err != nil || c != 1 {
		t.Fatalf("shop B row was deleted across tenants: %d %v", c, err)
	}
}

func TestHardDeleteRemovesRowEntirely(t *testing.T) {
	db := openScopeTestDB(t)
	repo := NewRepository[scopedJob](db)

	shopA := ulid.Generate()
	shopB := ulid.Generate()
	ctxA := tenantCtx(shopA)

	if err := repo.Create(ctxA, &scopedJob{ID: 1}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(ctxA, &scopedJob{ID: 2}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := repo.HardDelete(tenantCtx(shopB), 1); !errors.IsNotFound(err) {
		t.Fatalf("cross-tenant hard delete: want not found, got %v", err)
	}

	if err := repo.Delete(ctxA, 1); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if err := repo.HardDelete(ctxA, 2); err != nil {
		t.Fatalf("hard delete: %v", err)
	}

	// 软删留行, 硬删除行
	var raw int64
	if err := db.Unscoped().Model(&scopedJob{}).Where("id = ?", 1).Count(&raw).Error; err != nil || raw != 1 {
		t.Fatalf("soft-deleted row gone from table: %d %v", raw, err)
	}
	if err := db.Unscoped().Model(&scopedJob{}).Where("id = ?", 2).Count(&raw).Error; err != nil || raw != 0 {
		t.Fatalf("hard-deleted row still present: %d %v", raw, err)
	}
}

func TestScopedAvg(t *testing.T) {
	db := openScopeTestDB(t)
	repo := NewRepository[scopedJob](db)

	shopA := ulid.Generate()
	shopB := ulid.Generate()

	for i, minutes := range []int64{30, 90} {
		if err := repo.Create(tenantCtx(shopA), &scopedJob{ID: int64(i + 1), Minutes: minutes}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if err := repo.Create(tenantCtx(shopB), &scopedJob{ID: 100, Minutes: 6000}); err != nil {
		t.Fatalf("create: %v", err)
	}

	avg, err := repo.Avg(tenantCtx(shopA), "minutes", "")
	if err != nil {
		t.Fatalf("avg: %v", err)
	}
	if avg != 60 {
		t.Fatalf("avg = %v, want 60", avg)
	}

	if _, err := repo.Avg(tenantCtx(shopA), "minutes; DROP TABLE", ""); err == nil {
		t.Fatalf("expected column name rejected")
	}
}

func TestFindPageByModelCondition(t *testing.T) {
	db := openScopeTestDB(t)
	repo := NewRepository[scopedJob](db)

	shopA := ulid.Generate()
	ctxA := tenantCtx(shopA)

	for i := int64(1); i <= 4; i++ {
		name := "routine"
		if i%2 == 0 {
			name = "warranty"
		}
		if err := repo.Create(ctxA, &scopedJob{ID: i, Name: name}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	page, err := repo.FindPageByModel(ctxA, 1, 10, &scopedJob{Name: "warranty"})
	if err != nil {
		t.Fatalf("find page by model: %v", err)
	}
	if page.Total != 2 || len(page.List) != 2 {
		t.Fatalf("total = %d, rows = %d, want 2/2", page.Total, len(page.List))
	}
	for _, row := range page.List {
		if row.Name != "warranty" {
			t.Fatalf("row %d does not match model condition", row.ID)
		}
	}
}

func TestWithTxBindsRepositoryToTransaction(t *testing.T) {
	db := openScopeTestDB(t)
	repo := NewRepository[scopedJob](db)

	shopA := ulid.Generate()
	ctxA := tenantCtx(shopA)

	err := db.Transaction(func(tx *gorm.DB) error {
		txRepo := repo.WithTx(tx)
		if err := txRepo.Create(ctxA, &scopedJob{ID: 1}); err != nil {
			return err
		}
		return errors.ErrInvalidArgument // 强制回滚
	})
	if err == nil {
		t.Fatalf("expected error from transaction")
	}

	count, err := repo.Count(ctxA, "")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("row written through WithTx survived rollback: %d", count)
	}
}

func TestValidateOrderBy(t *testing.T) {
	valid := []string{"", "name", "name ASC", "create_time DESC", "a.b desc", "name ASC, minutes DESC"}
	for _, v := range valid {
		if err := ValidateOrderBy(v); err != nil {
			t.Fatalf("expected %q to be valid: %v", v, err)
		}
	}

	invalid := []string{"name; DROP TABLE jobs", "name ASCC", "name)... --", "a b c"}
	for _, v := range invalid {
		if err := ValidateOrderBy(v); err == nil {
			t.Fatalf("expected %q to be rejected", v)
		}
	}
}
