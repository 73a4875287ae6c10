package model

import "time"

/* ========================================================================
 * RBAC Models - 角色与权限
 * ========================================================================
 * 职责: 固定角色集 (Owner/Office/Mechanic) 与权限映射
 * 设计: 角色和权限是全局种子数据，不做租户隔离；
 *       用户与角色的关联属于用户所在门店
 * ======================================================================== */

// 固定角色名
const (
	RoleOwner    = "owner"
	RoleOffice   = "office"
	RoleMechanic = "mechanic"
)

// Role represents a permission group. The role set is fixed and seeded at
// migration time; workshops do not define their own roles.
type Role struct {
	ExemptModel

	ID          int64        `json:"id,string" gorm:"primaryKey"`
	Name        string       `json:"name" gorm:"column:name;type:varchar(32);uniqueIndex;not null"`
	Description string       `json:"description" gorm:"column:description;type:varchar(255)"`
	CreateTime  time.Time    `json:"create_time" gorm:"column:create_time;autoCreateTime"`
	Permissions []Permission `json:"permissions,omitempty" gorm:"many2many:role_permissions"`
}

// TableName 指定表名
func (Role) TableName() string {
	return "roles"
}

// Permission names a fine-grained capability (e.g. "time_entries.update").
type Permission struct {
	ExemptModel

	ID          int64     `json:"id,string" gorm:"primaryKey"`
	Key         string    `json:"key" gorm:"column:key;type:varchar(64);uniqueIndex;not null"`
	Description string    `json:"description" gorm:"column:description;type:varchar(255)"`
	CreateTime  time.Time `json:"create_time" gorm:"column:create_time;autoCreateTime"`
}

// TableName 指定表名
func (Permission) TableName() string {
	return "permissions"
}
