package model

import (
	"time"

	"gorm.io/gorm"
)

// Tenant represents an isolated organization.
// This is the core of our multi-tenant architecture: users, projects and
// contractors all hang off a tenant, and tenant-scoped mutations are gated
// on the caller's role within it.
type Tenant struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	Name         string         `json:"name" gorm:"type:varchar(100);uniqueIndex"`
	ContactEmail string         `json:"contact_email" gorm:"type:varchar(100)"`
	OwnerID      uint           `json:"owner_id" gorm:"index;not null"`
	Active       bool           `json:"active" gorm:"default:true"`
	Settings     string         `json:"settings" gorm:"type:jsonb"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}
