package authz

import "github.com/aisgo/workshop-server/model"

/* ========================================================================
 * Capabilities - 能力定义
 * ========================================================================
 * 职责: 定义全部能力键与角色默认授权
 * 设计: 能力键与 permissions.key 同一命名空间,
 *       角色派生能力与直接授权能力统一经 Principal.Has 判定
 * ======================================================================== */

// Capability 能力键
type Capability string

const (
	CapClientsManage   Capability = "clients.manage"
	CapVehiclesManage  Capability = "vehicles.manage"
	CapMechanicsManage Capability = "mechanics.manage"
	CapUsersManage     Capability = "users.manage"
	CapWorkshopManage  Capability = "workshop.manage"
	CapOrdersView      Capability = "orders.view"
	CapOrdersManage    Capability = "orders.manage"
	CapOrdersStatus    Capability = "orders.status"
	CapTimeLog         Capability = "time.log"
	CapNotesWrite      Capability = "notes.write"
	CapReportsView     Capability = "reports.view"
)

// AllCapabilities 全部能力键, 用于种子数据与权限管理界面
var AllCapabilities = []Capability{
	CapClientsManage,
	CapVehiclesManage,
	CapMechanicsManage,
	CapUsersManage,
	CapWorkshopManage,
	CapOrdersView,
	CapOrdersManage,
	CapOrdersStatus,
	CapTimeLog,
	CapNotesWrite,
	CapReportsView,
}

// roleCapabilities 角色默认能力
// owner: 全部; office: 除用户/门店管理外的全部; mechanic: 工单查看、状态流转、工时、备注
var roleCapabilities = map[string][]Capability{
	model.RoleOwner: AllCapabilities,
	model.RoleOffice: {
		CapClientsManage,
		CapVehiclesManage,
		CapMechanicsManage,
		CapOrdersView,
		CapOrdersManage,
		CapOrdersStatus,
		CapTimeLog,
		CapNotesWrite,
		CapReportsView,
	},
	model.RoleMechanic: {
		CapOrdersView,
		CapOrdersStatus,
		CapTimeLog,
		CapNotesWrite,
	},
}

// RoleCapabilities 返回角色的默认能力（副本）
func RoleCapabilities(role string) []Capability {
	caps := roleCapabilities[role]
	out := make([]Capability, len(caps))
	copy(out, caps)
	return out
}
