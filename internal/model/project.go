package model

import (
	"time"

	"gorm.io/gorm"
)

// Project statuses. The frontend historically sent a wider set
// (planning/in-progress/on-hold/review/cancelled); the API accepts only
// these three and the clients were reconciled to them.
const (
	ProjectActive    = "active"
	ProjectCompleted = "completed"
	ProjectArchived  = "archived"
)

// Project priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Project aggregates tasks and assigned contractors under a tenant.
// Progress and TotalHours are derived from the child tasks and cached on
// the row; they are refreshed inside the same transaction as any task
// mutation and on every list/detail read.
type Project struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	TenantID    uint           `json:"tenant_id" gorm:"index;not null"`
	ManagerID   uint           `json:"manager_id" gorm:"index;not null"`
	Name        string         `json:"name" gorm:"type:varchar(150);not null"`
	Description string         `json:"description" gorm:"type:text"`
	Status      string         `json:"status" gorm:"type:varchar(20);not null;default:'active'"`
	Priority    string         `json:"priority" gorm:"type:varchar(20);not null;default:'medium'"`
	DueDate     *time.Time     `json:"due_date,omitempty"`
	Progress    int            `json:"progress" gorm:"default:0"`
	TotalHours  float64        `json:"total_hours" gorm:"type:decimal(10,2);default:0"`
	Budget      float64        `json:"budget" gorm:"type:decimal(12,2);default:0"`
	Spent       float64        `json:"spent" gorm:"type:decimal(12,2);default:0"`
	Contractors []Contractor   `json:"contractors,omitempty" gorm:"many2many:project_contractors"`
	Tasks       []Task         `json:"tasks,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// ValidProjectStatus reports whether s is a known project status.
func ValidProjectStatus(s string) bool {
	switch s {
	case ProjectActive, ProjectCompleted, ProjectArchived:
		return true
	}
	return false
}

// ValidProjectPriority reports whether s is a known project priority.
func ValidProjectPriority(s string) bool {
	switch s {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}
