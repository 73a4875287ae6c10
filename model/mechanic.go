package model

import (
	"github.com/aisgo/workshop-server/utils/id-generator/ulid"
)

// Mechanic is a workshop employee performing repairs. HourlyRate is stored
// in minor currency units.
type Mechanic struct {
	BaseModel

	WorkshopID ulid.ULID `json:"workshop_id" gorm:"column:workshop_id;type:char(26);index;not null"`
	FullName   string      `json:"full_name" gorm:"column:full_name;type:varchar(120);not null"`
	Phone      string      `json:"phone" gorm:"column:phone;type:varchar(32)"`
	HourlyRate int64       `json:"hourly_rate" gorm:"column:hourly_rate;not null;default:0"`
	Active     bool        `json:"active" gorm:"column:active;default:true"`
}

// TableName 指定表名
func (Mechanic) TableName() string {
	return "mechanics"
}
