package model

import (
	"github.com/aisgo/workshop-server/utils/id-generator/ulid"
)

// Vehicle belongs to a client. VIN is unique per workshop, not globally:
// two workshops may service the same car over its lifetime.
type Vehicle struct {
	BaseModel

	WorkshopID ulid.ULID `json:"workshop_id" gorm:"column:workshop_id;type:char(26);uniqueIndex:idx_vehicles_workshop_vin;not null"`
	ClientID   int64       `json:"client_id,string" gorm:"column:client_id;index;not null"`
	VIN        string      `json:"vin" gorm:"column:vin;type:varchar(17);uniqueIndex:idx_vehicles_workshop_vin;not null"`
	Plate      string      `json:"plate" gorm:"column:plate;type:varchar(16)"`
	Make       string      `json:"make" gorm:"column:make;type:varchar(64)"`
	ModelName  string      `json:"model" gorm:"column:model;type:varchar(64)"`
	Year       int         `json:"year" gorm:"column:year"`
	Mileage    int         `json:"mileage" gorm:"column:mileage"`
}

// TableName 指定表名
func (Vehicle) TableName() string {
	return "vehicles"
}
