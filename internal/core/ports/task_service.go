package ports

import (
	"context"
	"time"

	"github.com/etiya/crm-api/internal/core/domain"
)

// CreateTaskInput carries all data needed to create a task.
type CreateTaskInput struct {
	Title          string
	Description    string
	Status         string // empty means PENDING
	DueDate        *time.Time
	Priority       *int
	EstimatedHours *float64
	ActualHours    *float64
	CustomerID     uint
	AssignedToID   *uint
	IdempotencyKey string
}

// UpdateTaskInput is a partial update. Fields left unset are not touched;
// set-but-nil clears a nullable field.
type UpdateTaskInput struct {
	Title       Optional[*string]
	Description Optional[*string]
	DueDate     Optional[*time.Time]
	Priority    Optional[*int]
	Status      Optional[*string]
}

// TaskService defines task lifecycle, assignment and reporting use cases.
type TaskService interface {
	CreateTask(ctx context.Context, in CreateTaskInput) (*domain.Task, error)
	UpdateTask(ctx context.Context, id uint, in UpdateTaskInput) (*domain.Task, error)
	DeleteTask(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*domain.Task, bool, error)
	FindAll(ctx context.Context, page PageRequest) (Page[*domain.Task], error)

	AssignTask(ctx context.Context, taskID, userID uint) (*domain.Task, error)
	UpdateTaskStatus(ctx context.Context, taskID uint, status string) (*domain.Task, error)

	FindTasksByCustomerID(ctx context.Context, customerID uint) ([]*domain.Task, error)
	FindTasksByAssignedUserID(ctx context.Context, userID uint) ([]*domain.Task, error)
	FindTasksByStatus(ctx context.Context, status string) ([]*domain.Task, error)
	FindOverdueTasks(ctx context.Context) ([]*domain.Task, error)
	FindTasksByDueDateBetween(ctx context.Context, start, end time.Time) ([]*domain.Task, error)

	CountTasksByStatus(ctx context.Context, status string) (int64, error)
	FindRecentTasks(ctx context.Context, limit int) ([]*domain.Task, error)
	FindUpcomingDeadlines(ctx context.Context, days int) ([]*domain.Task, error)
}
