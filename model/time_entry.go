package model

// TimeEntry records mechanic work on a repair order. It carries no
// workshop_id column: tenancy is derived through the repair order and the
// mechanic, both of which must resolve inside the acting principal's
// workshop at write time.
type TimeEntry struct {
	BaseModel
	ExemptModel

	RepairOrderID   int64  `json:"repair_order_id,string" gorm:"column:repair_order_id;index;not null"`
	MechanicID      int64  `json:"mechanic_id,string" gorm:"column:mechanic_id;index;not null"`
	DurationMinutes int    `json:"duration_minutes" gorm:"column:duration_minutes;not null"`
	Description     string `json:"description" gorm:"column:description;type:text"`
}

// TableName 指定表名
func (TimeEntry) TableName() string {
	return "time_entries"
}
