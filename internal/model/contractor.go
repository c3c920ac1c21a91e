package model

import (
	"math"
	"time"

	"gorm.io/gorm"
)

// Contractor roles.
const (
	ContractorDeveloper = "developer"
	ContractorDesigner  = "designer"
	ContractorManager   = "manager"
	ContractorQA        = "qa"
	ContractorOther     = "other"
)

// Contractor statuses.
const (
	ContractorActive   = "active"
	ContractorInactive = "inactive"
	ContractorOffline  = "offline"
)

// Contractor represents a billable worker on a tenant's roster.
type Contractor struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	TenantID   uint           `json:"tenant_id" gorm:"index;not null"`
	Name       string         `json:"name" gorm:"type:varchar(100);not null"`
	Email      string         `json:"email" gorm:"type:varchar(100);uniqueIndex"`
	Role       string         `json:"role" gorm:"type:varchar(20);not null;default:'other'"`
	HourlyRate float64        `json:"hourly_rate" gorm:"type:decimal(10,2)"`
	Rating     float64        `json:"rating" gorm:"type:decimal(4,2);default:0"`
	Status     string         `json:"status" gorm:"type:varchar(20);not null;default:'active'"`
	Skills     []string       `json:"skills" gorm:"serializer:json"`
	Projects   []Project      `json:"projects,omitempty" gorm:"many2many:project_contractors"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
}

// ValidContractorRole reports whether s is a known contractor role.
func ValidContractorRole(s string) bool {
	switch s {
	case ContractorDeveloper, ContractorDesigner, ContractorManager, ContractorQA, ContractorOther:
		return true
	}
	return false
}

// ValidContractorStatus reports whether s is a known contractor status.
func ValidContractorStatus(s string) bool {
	switch s {
	case ContractorActive, ContractorInactive, ContractorOffline:
		return true
	}
	return false
}

// AverageRating folds an incoming rating into the current one. A rating of
// 0 means "not yet rated", so the first rating lands as-is; after that the
// stored value is the running pairwise average, rounded to 2 decimal places
// and clamped to [0,5]. A NaN result collapses to 0. The call sites only
// depend on this function, so the rating policy can be swapped without
// touching them.
func AverageRating(current, incoming float64) float64 {
	avg := incoming
	if current != 0 {
		avg = (current + incoming) / 2
	}
	avg = math.Round(avg*100) / 100
	if math.IsNaN(avg) {
		return 0
	}
	if avg < 0 {
		return 0
	}
	if avg > 5 {
		return 5
	}
	return avg
}
