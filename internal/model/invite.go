package model

import (
	"time"

	"gorm.io/gorm"
)

// Invite is a short-lived, single-use join code scoped to a tenant and a
// role. Expiry is checked lazily at redemption/listing time; there is no
// background sweep.
type Invite struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	Code       string         `json:"code" gorm:"type:varchar(12);uniqueIndex;not null"`
	TenantID   uint           `json:"tenant_id" gorm:"index;not null"`
	Role       string         `json:"role" gorm:"type:varchar(32);not null"`
	ExpiresAt  time.Time      `json:"expires_at"`
	Used       bool           `json:"used" gorm:"default:false"`
	RedeemedBy *uint          `json:"redeemed_by,omitempty"`
	RedeemedAt *time.Time     `json:"redeemed_at,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`

	Tenant Tenant `json:"tenant,omitempty" gorm:"foreignKey:TenantID"`
}

// Expired reports whether the invite's expiry is in the past.
func (i *Invite) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && now.After(i.ExpiresAt)
}
