package model

import (
	"time"

	"github.com/aisgo/workshop-server/utils/id-generator/ulid"
)

// Workshop is the tenant root. Every business entity is owned by exactly
// one workshop via its workshop_id column. Workshops are created at
// registration and never deleted in normal operation.
type Workshop struct {
	ExemptModel

	ID         ulid.ULID `json:"id" gorm:"column:id;type:char(26);primaryKey"`
	Name       string    `json:"name" gorm:"column:name;type:varchar(120);not null"`
	Settings   JSONB     `json:"settings" gorm:"column:settings;type:jsonb"`
	CreateTime time.Time `json:"create_time" gorm:"column:create_time;autoCreateTime"`
	UpdateTime time.Time `json:"update_time" gorm:"column:update_time;autoUpdateTime"`
}

// TableName 指定表名
func (Workshop) TableName() string {
	return "workshops"
}
