package model

import (
	"time"

	"gorm.io/gorm"
)

// User represents the user model stored in the database.
// TenantID is nil while the user has not joined a tenant yet; redeeming an
// invite is what moves a user from the unaffiliated state into a tenant.
type User struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Email     string         `json:"email" gorm:"type:varchar(100);uniqueIndex"`
	Password  string         `json:"-" gorm:"type:varchar(255)"`
	Name      string         `json:"name" gorm:"type:varchar(100)"`
	Role      string         `json:"role" gorm:"type:varchar(32);not null;default:'GUEST'"`
	TenantID  *uint          `json:"tenant_id,omitempty" gorm:"index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// MemberOf reports whether the user belongs to the given tenant.
func (u *User) MemberOf(tenantID uint) bool {
	return u.TenantID != nil && *u.TenantID == tenantID
}
