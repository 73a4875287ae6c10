package model

import (
	"github.com/aisgo/workshop-server/utils/id-generator/ulid"
)

// User is a principal belonging to exactly one workshop, holding zero or
// more roles. Email is globally unique so a registration race surfaces as
// a uniqueness conflict instead of a second owner.
type User struct {
	BaseModel

	WorkshopID   ulid.ULID `json:"workshop_id" gorm:"column:workshop_id;type:char(26);index;not null"`
	Email        string      `json:"email" gorm:"column:email;type:varchar(255);uniqueIndex;not null"`
	PasswordHash string      `json:"-" gorm:"column:password_hash;type:varchar(255);not null"`
	FullName     string      `json:"full_name" gorm:"column:full_name;type:varchar(120);not null"`
	Active       bool        `json:"active" gorm:"column:active;default:true"`
	Roles        []Role      `json:"roles,omitempty" gorm:"many2many:user_roles"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}
