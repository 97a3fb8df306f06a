package domain

import "time"

// TaskEventType names a recorded change on a task.
type TaskEventType string

const (
	TaskEventCreated       TaskEventType = "created"
	TaskEventUpdated       TaskEventType = "updated"
	TaskEventDeleted       TaskEventType = "deleted"
	TaskEventAssigned      TaskEventType = "assigned"
	TaskEventStatusChanged TaskEventType = "status_changed"
)

// TaskEvent is an append-only record of a committed task mutation.
type TaskEvent struct {
	ID           string        `json:"id" bson:"_id"`
	TaskID       uint          `json:"task_id" bson:"task_id"`
	CustomerID   uint          `json:"customer_id" bson:"customer_id"`
	Type         TaskEventType `json:"type" bson:"type"`
	FromStatus   TaskStatus    `json:"from_status,omitempty" bson:"from_status,omitempty"`
	ToStatus     TaskStatus    `json:"to_status,omitempty" bson:"to_status,omitempty"`
	AssignedToID *uint         `json:"assigned_to_id,omitempty" bson:"assigned_to_id,omitempty"`
	Actor        string        `json:"actor,omitempty" bson:"actor,omitempty"`
	OccurredAt   time.Time     `json:"occurred_at" bson:"occurred_at"`
}

// RoutingKey is the broker topic the event is published under.
func (e TaskEvent) RoutingKey() string {
	return "task." + string(e.Type)
}
