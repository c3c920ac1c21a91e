package model

import (
	"time"

	"gorm.io/gorm"
)

// Task statuses.
const (
	TaskNotStarted = "not-started"
	TaskInProgress = "in-progress"
	TaskBlocked    = "blocked"
	TaskCompleted  = "completed"
)

// Task represents a unit of project work. Progress is derived (from status,
// hours, or subtasks) and cached on the row; Weight feeds the owning
// project's weighted roll-up.
type Task struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	ProjectID      uint           `json:"project_id" gorm:"index;not null"`
	Name           string         `json:"name" gorm:"type:varchar(150);not null"`
	Description    string         `json:"description" gorm:"type:text"`
	Status         string         `json:"status" gorm:"type:varchar(20);not null;default:'not-started'"`
	Priority       string         `json:"priority" gorm:"type:varchar(20);not null;default:'medium'"`
	Progress       int            `json:"progress" gorm:"default:0"`
	EstimatedHours float64        `json:"estimated_hours" gorm:"type:decimal(8,2);default:0"`
	LoggedHours    float64        `json:"logged_hours" gorm:"type:decimal(8,2);default:0"`
	Weight         float64        `json:"weight" gorm:"type:decimal(8,2);default:0"`
	DueDate        *time.Time     `json:"due_date,omitempty"`
	Subtasks       []Subtask      `json:"subtasks,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`
}

// Subtask is the leaf of the work hierarchy. Same shape as Task minus
// weight; it contributes to its task's progress via straight averaging.
type Subtask struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	TaskID         uint           `json:"task_id" gorm:"index;not null"`
	Name           string         `json:"name" gorm:"type:varchar(150);not null"`
	Description    string         `json:"description" gorm:"type:text"`
	Status         string         `json:"status" gorm:"type:varchar(20);not null;default:'not-started'"`
	Priority       string         `json:"priority" gorm:"type:varchar(20);not null;default:'medium'"`
	Progress       int            `json:"progress" gorm:"default:0"`
	EstimatedHours float64        `json:"estimated_hours" gorm:"type:decimal(8,2);default:0"`
	LoggedHours    float64        `json:"logged_hours" gorm:"type:decimal(8,2);default:0"`
	DueDate        *time.Time     `json:"due_date,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`
}

// ValidTaskStatus reports whether s is a known task status.
func ValidTaskStatus(s string) bool {
	switch s {
	case TaskNotStarted, TaskInProgress, TaskBlocked, TaskCompleted:
		return true
	}
	return false
}

// ValidTaskPriority reports whether s is a known task priority.
func ValidTaskPriority(s string) bool {
	switch s {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}
