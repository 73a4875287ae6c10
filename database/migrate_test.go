package database

import (
	"testing"

	"github.com/aisgo/workshop-server/authz"
	"github.com/aisgo/workshop-server/model"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openSeedTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestSeedRBACLinksRolePermissions(t *testing.T) {
	db := openSeedTestDB(t)
	if err := SeedRBAC(db); err != nil {
		t.Fatalf("seed: %v", err)
	}

	var mechanic model.Role
	if err := db.Preload("Permissions").Where("name = ?", model.RoleMechanic).First(&mechanic).Error; err != nil {
		t.Fatalf("load mechanic role: %v", err)
	}

	want := authz.RoleCapabilities(model.RoleMechanic)
	if len(mechanic.Permissions) != len(want) {
		t.Fatalf("mechanic permissions = %d, want %d", len(mechanic.Permissions), len(want))
	}
	keys := make(map[string]bool, len(mechanic.Permissions))
	for _, perm := range mechanic.Permissions {
		keys[perm.Key] = true
	}
	for _, cap := range want {
		if !keys[string(cap)] {
			t.Fatalf("mechanic role missing permission %q", cap)
		}
	}

	var owner model.Role
	if err := db.Preload("Permissions").Where("name = ?", model.RoleOwner).First(&owner).Error; err != nil {
		t.Fatalf("load owner role: %v", err)
	}
	if len(owner.Permissions) != len(authz.AllCapabilities) {
		t.Fatalf("owner permissions = %d, want %d", len(owner.Permissions), len(authz.AllCapabilities))
	}
}

func TestSeedRBACIsIdempotent(t *testing.T) {
	db := openSeedTestDB(t)
	for i := 0; i < 2; i++ {
		if err := SeedRBAC(db); err != nil {
			t.Fatalf("seed pass %d: %v", i+1, err)
		}
	}

	var permCount, roleCount int64
	if err := db.Model(&model.Permission{}).Count(&permCount).Error; err != nil {
		t.Fatalf("count permissions: %v", err)
	}
	if err := db.Model(&model.Role{}).Count(&roleCount).Error; err != nil {
		t.Fatalf("count roles: %v", err)
	}
	if permCount != int64(len(authz.AllCapabilities)) {
		t.Fatalf("permissions = %d, want %d", permCount, len(authz.AllCapabilities))
	}
	if roleCount != 3 {
		t.Fatalf("roles = %d, want 3", roleCount)
	}

	var mechanic model.Role
	if err := db.Preload("Permissions").Where("name = ?", model.RoleMechanic).First(&mechanic).Error; err != nil {
		t.Fatalf("load mechanic role: %v", err)
	}
	if len(mechanic.Permissions) != len(authz.RoleCapabilities(model.RoleMechanic)) {
		t.Fatalf("reseed duplicated role_permissions rows: %d", len(mechanic.Permissions))
	}
}
