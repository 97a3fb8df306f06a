package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/etiya/crm-api/internal/core/domain"
	"github.com/etiya/crm-api/internal/core/ports"
	"github.com/etiya/crm-api/internal/pkg/metrics"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

type taskEventService struct {
	repo      ports.TaskEventRepository
	publisher ports.EventPublisher
	log       zerolog.Logger
}

// NewTaskEventService returns a TaskEventService implementation.
func NewTaskEventService(repo ports.TaskEventRepository, publisher ports.EventPublisher, log zerolog.Logger) ports.TaskEventService {
	return &taskEventService{repo: repo, publisher: publisher, log: log}
}

// Process stores a single activity event and forwards it to the broker.
// A broker failure is logged but does not fail the event.
func (s *taskEventService) Process(ctx context.Context, event domain.TaskEvent) error {
	start := time.Now()

	if err := s.repo.Insert(ctx, &event); err != nil {
		metrics.TaskEventsErrorsTotal.WithLabelValues("insert_failed").Inc()
		return fmt.Errorf("process task event: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishJSON(ctx, event.RoutingKey(), event); err != nil {
			metrics.TaskEventsErrorsTotal.WithLabelValues("publish_failed").Inc()
			s.log.Warn().Err(err).Str("event_id", event.ID).Uint("task_id", event.TaskID).Msg("failed to publish task event")
		}
	}

	metrics.TaskEventsProcessedTotal.WithLabelValues(string(event.Type)).Inc()
	metrics.TaskEventProcessingDuration.WithLabelValues(string(event.Type)).Observe(time.Since(start).Seconds())

	s.log.Debug().
		Str("event_id", event.ID).
		Uint("task_id", event.TaskID).
		Str("type", string(event.Type)).
		Msg("task event processed")

	return nil
}

func (s *taskEventService) History(ctx context.Context, taskID uint, limit int) ([]domain.TaskEvent, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	events, err := s.repo.ListByTask(ctx, taskID, limit)
	if err != nil {
		return nil, fmt.Errorf("task history: %w", err)
	}
	return events, nil
}
