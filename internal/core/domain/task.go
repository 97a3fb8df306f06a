package domain

import (
	"strings"
	"time"
)

// TaskStatus represents the lifecycle state of a task.
type TaskStatus string

const (
	TaskPending    TaskStatus = "PENDING"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskCompleted  TaskStatus = "COMPLETED"
)

// ParseTaskStatus normalises s into a known TaskStatus.
func ParseTaskStatus(s string) (TaskStatus, bool) {
	switch st := TaskStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case TaskPending, TaskInProgress, TaskCompleted:
		return st, true
	}
	return "", false
}

// TaskStatuses lists every status in lifecycle order.
func TaskStatuses() []TaskStatus {
	return []TaskStatus{TaskPending, TaskInProgress, TaskCompleted}
}

// Task is a unit of work for a customer, optionally assigned to a user.
type Task struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	Title          string     `json:"title" gorm:"size:200;not null"`
	Description    string     `json:"description" gorm:"type:text"`
	Status         TaskStatus `json:"status" gorm:"size:20;not null;index"`
	DueDate        *time.Time `json:"due_date,omitempty" gorm:"index"`
	Priority       *int       `json:"priority,omitempty"`
	EstimatedHours *float64   `json:"estimated_hours,omitempty"`
	ActualHours    *float64   `json:"actual_hours,omitempty"`
	CreatedAt      time.Time  `json:"created_at" gorm:"<-:create;index"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	UpdatedAt      time.Time  `json:"updated_at"`

	CustomerID   uint  `json:"customer_id" gorm:"not null;index"`
	AssignedToID *uint `json:"assigned_to_id,omitempty" gorm:"index"`

	// Declared only so migrations create the foreign keys; never loaded.
	Customer   *Customer `json:"-" gorm:"foreignKey:CustomerID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	AssignedTo *User     `json:"-" gorm:"foreignKey:AssignedToID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}

// SetStatus applies a status change. Entering COMPLETED stamps CompletedAt;
// leaving it keeps the previous stamp.
func (t *Task) SetStatus(status TaskStatus, now time.Time) {
	t.Status = status
	if status == TaskCompleted {
		completed := now
		t.CompletedAt = &completed
	}
}

// AssignTo points the task at a user. A pending task is considered started
// once someone owns it.
func (t *Task) AssignTo(userID uint, now time.Time) {
	id := userID
	t.AssignedToID = &id
	if t.Status == TaskPending {
		t.SetStatus(TaskInProgress, now)
	}
}

// IsOverdue reports whether the task is open past its due date.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.Status != TaskCompleted && t.DueDate != nil && t.DueDate.Before(now)
}
