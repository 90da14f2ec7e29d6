package models

import (
	"time"

	"github.com/gofrs/uuid"
)

// Priority is the task urgency level shown on the dashboard overview.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Status is the task progress state. Transitions are unrestricted; the owner
// may move a task between any two states.
type Status string

const (
	StatusToDo       Status = "To-Do"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusToDo, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

type Task struct {
	ID          uuid.UUID  `json:"id" gorm:"primaryKey;type:uuid"`
	UserID      uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;index"`
	Title       string     `json:"title" gorm:"not null"`
	Description string     `json:"description"`
	Priority    Priority   `json:"priority" gorm:"not null;default:'Low'"`
	Status      Status     `json:"status" gorm:"not null;default:'To-Do'"`
	Deadline    *time.Time `json:"deadline"`
	Archived    bool       `json:"archived" gorm:"not null;default:false"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
