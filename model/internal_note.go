package model

// NotableType identifies which entity kind an internal note is attached to.
// Modeled as a closed enum instead of free-form type names so a bad value
// fails validation, not resolution.
type NotableType string

const (
	NotableRepairOrder NotableType = "repair_order"
	NotableClient      NotableType = "client"
	NotableVehicle     NotableType = "vehicle"
)

// Valid reports whether t is a known notable kind.
func (t NotableType) Valid() bool {
	switch t {
	case NotableRepairOrder, NotableClient, NotableVehicle:
		return true
	}
	return false
}

// NotableRef is the tagged reference an internal note attaches to.
type NotableRef struct {
	Type NotableType `json:"type"`
	ID   int64       `json:"id,string"`
}

// InternalNote is free-text staff commentary attached to a repair order,
// client or vehicle. Like TimeEntry it has no workshop_id column; tenancy
// is derived from the resolved parent.
type InternalNote struct {
	BaseModel
	ExemptModel

	NotableType NotableType `json:"notable_type" gorm:"column:notable_type;type:varchar(24);index:idx_notes_notable;not null"`
	NotableID   int64       `json:"notable_id,string" gorm:"column:notable_id;index:idx_notes_notable;not null"`
	AuthorID    int64       `json:"author_id,string" gorm:"column:author_id;index;not null"`
	Content     string      `json:"content" gorm:"column:content;type:text;not null"`
}

// TableName 指定表名
func (InternalNote) TableName() string {
	return "internal_notes"
}

// Ref returns the tagged reference of this note's parent.
func (n *InternalNote) Ref() NotableRef {
	return NotableRef{Type: n.NotableType, ID: n.NotableID}
}
