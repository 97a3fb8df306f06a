package ports

import (
	"context"

	"github.com/etiya/crm-api/internal/core/domain"
)

// TaskEventRepository persists the task activity trail.
type TaskEventRepository interface {
	Insert(ctx context.Context, event *domain.TaskEvent) error
	// ListByTask returns the newest events first, at most limit.
	ListByTask(ctx context.Context, taskID uint, limit int) ([]domain.TaskEvent, error)
}

// TaskEventRecorder accepts committed task changes for asynchronous processing.
type TaskEventRecorder interface {
	Record(event domain.TaskEvent)
}

// EventPublisher pushes a JSON message to the message broker.
type EventPublisher interface {
	PublishJSON(ctx context.Context, routingKey string, v any) error
}
