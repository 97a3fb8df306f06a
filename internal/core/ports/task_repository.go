package ports

import (
	"context"
	"time"

	"github.com/etiya/crm-api/internal/core/domain"
)

// TaskRepository defines persistence operations for tasks. Every finder spells
// out its own filter and ordering; unless noted, results are ordered by id.
type TaskRepository interface {
	// Create inserts t. A missing customer surfaces as a domain.ErrValidation.
	Create(ctx context.Context, t *domain.Task) error
	Update(ctx context.Context, t *domain.Task) error
	// Delete returns domain.ErrTaskNotFound when no row was removed.
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*domain.Task, error)
	List(ctx context.Context, page PageRequest) ([]*domain.Task, int64, error)

	FindByCustomerID(ctx context.Context, customerID uint) ([]*domain.Task, error)
	FindByAssignedToID(ctx context.Context, userID uint) ([]*domain.Task, error)
	FindByStatus(ctx context.Context, status domain.TaskStatus) ([]*domain.Task, error)
	// FindOverdue: status <> COMPLETED AND due_date < now.
	FindOverdue(ctx context.Context, now time.Time) ([]*domain.Task, error)
	// FindByDueDateBetween: start <= due_date <= end.
	FindByDueDateBetween(ctx context.Context, start, end time.Time) ([]*domain.Task, error)
	// FindOpenByDueDateBetween: status <> COMPLETED AND start <= due_date <= end, by due_date.
	FindOpenByDueDateBetween(ctx context.Context, start, end time.Time) ([]*domain.Task, error)
	CountByStatus(ctx context.Context, status domain.TaskStatus) (int64, error)
	// FindRecent: newest created_at first, at most limit rows.
	FindRecent(ctx context.Context, limit int) ([]*domain.Task, error)
	Count(ctx context.Context) (int64, error)
}
