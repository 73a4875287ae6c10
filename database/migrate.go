package database

import (
	"gorm.io/gorm"

	"github.com/aisgo/workshop-server/authz"
	"github.com/aisgo/workshop-server/model"
)

/* ========================================================================
 * Migration & Seed - 建表与种子数据
 * ========================================================================
 * 职责: AutoMigrate 全部模型, 写入内置角色与权限
 * ======================================================================== */

// Migrate 迁移全部业务表
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Workshop{},
		&model.User{},
		&model.Role{},
		&model.Permission{},
		&model.Client{},
		&model.Vehicle{},
		&model.Mechanic{},
		&model.RepairOrder{},
		&model.TimeEntry{},
		&model.InternalNote{},
	)
}

// SeedRBAC 写入内置角色、权限键与角色-权限关联, 幂等
func SeedRBAC(db *gorm.DB) error {
	perms := make(map[string]model.Permission, len(authz.AllCapabilities))
	for _, cap := range authz.AllCapabilities {
		perm := model.Permission{Key: string(cap)}
		if err := db.Where("key = ?", perm.Key).FirstOrCreate(&perm).Error; err != nil {
			return err
		}
		perms[perm.Key] = perm
	}

	roles := []model.Role{
		{Name: model.RoleOwner, Description: "Workshop owner, full access"},
		{Name: model.RoleOffice, Description: "Office staff, operational access"},
		{Name: model.RoleMechanic, Description: "Mechanic, order execution access"},
	}
	for _, role := range roles {
		if err := db.Where("name = ?", role.Name).FirstOrCreate(&role).Error; err != nil {
			return err
		}

		// 角色的默认能力落到 role_permissions, 让权限派生路径
		// (principal 加载时 Preload Roles.Permissions) 有实际数据
		grants := make([]model.Permission, 0, len(authz.RoleCapabilities(role.Name)))
		for _, cap := range authz.RoleCapabilities(role.Name) {
			grants = append(grants, perms[string(cap)])
		}
		if err := db.Model(&role).Association("Permissions").Replace(grants); err != nil {
			return err
		}
	}

	return nil
}
