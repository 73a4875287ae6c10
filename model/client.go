package model

import (
	"github.com/aisgo/workshop-server/utils/id-generator/ulid"
)

// Client is a workshop customer.
type Client struct {
	BaseModel

	WorkshopID ulid.ULID `json:"workshop_id" gorm:"column:workshop_id;type:char(26);index;not null"`
	Name       string      `json:"name" gorm:"column:name;type:varchar(120);not null"`
	Phone      string      `json:"phone" gorm:"column:phone;type:varchar(32)"`
	Email      string      `json:"email" gorm:"column:email;type:varchar(255)"`
	Notes      string      `json:"notes" gorm:"column:notes;type:text"`
}

// TableName 指定表名
func (Client) TableName() string {
	return "clients"
}
