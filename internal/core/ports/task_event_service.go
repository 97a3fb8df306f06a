package ports

import (
	"context"

	"github.com/etiya/crm-api/internal/core/domain"
)

// TaskEventService processes and serves the task activity trail.
type TaskEventService interface {
	// Process persists one event and forwards it to the broker.
	Process(ctx context.Context, event domain.TaskEvent) error
	History(ctx context.Context, taskID uint, limit int) ([]domain.TaskEvent, error)
}
