package model

import (
	"time"

	"github.com/aisgo/workshop-server/utils/id-generator/ulid"
)

// OrderStatus 工单状态枚举（持久化为字符串）。
type OrderStatus string

const (
	StatusNew            OrderStatus = "new"              // 新建
	StatusDiagnosis      OrderStatus = "diagnosis"        // 诊断中
	StatusAwaitingContact OrderStatus = "awaiting_contact" // 等待联系客户
	StatusAwaitingParts  OrderStatus = "awaiting_parts"   // 等待配件
	StatusInProgress     OrderStatus = "in_progress"      // 维修中
	StatusReadyForPickup OrderStatus = "ready_for_pickup" // 待取车
	StatusClosed         OrderStatus = "closed"           // 已关闭
)

// AllStatuses lists every valid status in typical lifecycle order. The
// order is informational only: any authorized principal may set any of
// these values, there is no transition table. "closed" is terminal by
// convention, nothing forbids re-opening.
var AllStatuses = []OrderStatus{
	StatusNew,
	StatusDiagnosis,
	StatusAwaitingContact,
	StatusAwaitingParts,
	StatusInProgress,
	StatusReadyForPickup,
	StatusClosed,
}

// Valid reports whether s is one of the seven known statuses.
func (s OrderStatus) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// RepairOrder is a unit of workshop work on a vehicle. Status starts at
// "new" and is overwritten freely by authorized principals.
type RepairOrder struct {
	BaseModel

	WorkshopID ulid.ULID `json:"workshop_id" gorm:"column:workshop_id;type:char(26);index;not null"`
	VehicleID  int64       `json:"vehicle_id,string" gorm:"column:vehicle_id;index;not null"`
	Status     OrderStatus `json:"status" gorm:"column:status;type:varchar(24);index;not null;default:'new'"`
	Problem    string      `json:"problem" gorm:"column:problem;type:text;not null"`
	StartedAt  *time.Time  `json:"started_at" gorm:"column:started_at"`
	FinishedAt *time.Time  `json:"finished_at" gorm:"column:finished_at"`
}

// TableName 指定表名
func (RepairOrder) TableName() string {
	return "repair_orders"
}
