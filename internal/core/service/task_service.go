package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/etiya/crm-api/internal/core/domain"
	"github.com/etiya/crm-api/internal/core/ports"
	"github.com/etiya/crm-api/internal/pkg/metrics"
)

const (
	idempotencyScopeTask     = "task"
	idempotencyScopeCustomer = "customer"
)

// TaskService implements the task lifecycle, assignment and reporting.
type TaskService struct {
	tasks     ports.TaskRepository
	customers ports.CustomerRepository
	users     ports.UserRepository
	tx        ports.Transactor
	idem      ports.IdempotencyStore  // optional
	events    ports.TaskEventRecorder // optional
	logger    zerolog.Logger
	now       func() time.Time
}

func NewTaskService(
	tasks ports.TaskRepository,
	customers ports.CustomerRepository,
	users ports.UserRepository,
	tx ports.Transactor,
	idem ports.IdempotencyStore,
	events ports.TaskEventRecorder,
	logger zerolog.Logger,
) *TaskService {
	return &TaskService{
		tasks:     tasks,
		customers: customers,
		users:     users,
		tx:        tx,
		idem:      idem,
		events:    events,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateTask persists a new task for an existing customer. If an idempotency
// key is provided and already seen, the previously created task is returned
// without side effects.
func (s *TaskService) CreateTask(ctx context.Context, in ports.CreateTaskInput) (*domain.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, domain.Invalid("title is required")
	}
	if in.CustomerID == 0 {
		return nil, domain.Invalid("customer_id is required")
	}
	status := domain.TaskPending
	if in.Status != "" {
		st, ok := domain.ParseTaskStatus(in.Status)
		if !ok {
			return nil, domain.Invalid("unknown status %q", in.Status)
		}
		status = st
	}

	if existing := s.replay(ctx, in.IdempotencyKey); existing != nil {
		return existing, nil
	}

	now := s.now()
	task := &domain.Task{
		Title:          title,
		Description:    in.Description,
		DueDate:        utcPtr(in.DueDate),
		Priority:       in.Priority,
		EstimatedHours: in.EstimatedHours,
		ActualHours:    in.ActualHours,
		CustomerID:     in.CustomerID,
		AssignedToID:   in.AssignedToID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	task.SetStatus(status, now)

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.customers.FindByID(ctx, in.CustomerID); err != nil {
			if errors.Is(err, domain.ErrCustomerNotFound) {
				return domain.Invalid("customer %d does not exist", in.CustomerID)
			}
			return err
		}
		if in.AssignedToID != nil {
			if _, err := s.users.FindByID(ctx, *in.AssignedToID); err != nil {
				if errors.Is(err, domain.ErrUserNotFound) {
					return domain.Invalid("user %d does not exist", *in.AssignedToID)
				}
				return err
			}
		}
		return s.tasks.Create(ctx, task)
	})
	if err != nil {
		return nil, err
	}

	if in.IdempotencyKey != "" && s.idem != nil {
		if err := s.idem.Remember(ctx, idempotencyScopeTask, in.IdempotencyKey, task.ID); err != nil {
			s.logger.Warn().Err(err).Str("idempotency_key", in.IdempotencyKey).Msg("failed to store idempotency key")
		}
	}

	metrics.TasksCreatedTotal.WithLabelValues(string(task.Status)).Inc()
	s.logger.Info().Uint("task_id", task.ID).Uint("customer_id", task.CustomerID).Msg("task created")
	s.record(ctx, task, domain.TaskEventCreated, "")

	return task, nil
}

// replay returns the task previously created under key, or nil.
func (s *TaskService) replay(ctx context.Context, key string) *domain.Task {
	if key == "" || s.idem == nil {
		return nil
	}
	id, found, err := s.idem.Lookup(ctx, idempotencyScopeTask, key)
	if err != nil {
		s.logger.Warn().Err(err).Str("idempotency_key", key).Msg("idempotency lookup failed, creating anyway")
		return nil
	}
	if !found {
		return nil
	}
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return nil
	}
	metrics.IdempotentReplaysTotal.WithLabelValues(idempotencyScopeTask).Inc()
	s.logger.Info().Str("idempotency_key", key).Uint("task_id", id).Msg("idempotent replay")
	return task
}

// UpdateTask applies only the fields set in the patch.
func (s *TaskService) UpdateTask(ctx context.Context, id uint, in ports.UpdateTaskInput) (*domain.Task, error) {
	patch, err := validateTaskPatch(in)
	if err != nil {
		return nil, err
	}

	var (
		updated *domain.Task
		from    domain.TaskStatus
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		task, err := s.tasks.FindByID(ctx, id)
		if err != nil {
			return err
		}
		from = task.Status
		now := s.now()
		patch.apply(task, now)
		task.UpdatedAt = now
		if err := s.tasks.Update(ctx, task); err != nil {
			return err
		}
		updated = task
		return nil
	})
	if err != nil {
		return nil, err
	}

	if updated.Status != from {
		metrics.TaskStatusTransitionsTotal.WithLabelValues(string(from), string(updated.Status)).Inc()
		s.record(ctx, updated, domain.TaskEventStatusChanged, from)
	} else {
		s.record(ctx, updated, domain.TaskEventUpdated, from)
	}
	return updated, nil
}

// DeleteTask removes a task. Deleting an unknown id is domain.ErrTaskNotFound.
func (s *TaskService) DeleteTask(ctx context.Context, id uint) error {
	var deleted *domain.Task
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		task, err := s.tasks.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.tasks.Delete(ctx, id); err != nil {
			return err
		}
		deleted = task
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info().Uint("task_id", id).Str("actor", ports.ActorFrom(ctx)).Msg("task deleted")
	s.record(ctx, deleted, domain.TaskEventDeleted, deleted.Status)
	return nil
}

func (s *TaskService) FindByID(ctx context.Context, id uint) (*domain.Task, bool, error) {
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return task, true, nil
}

func (s *TaskService) FindAll(ctx context.Context, page ports.PageRequest) (ports.Page[*domain.Task], error) {
	page = page.Normalize()
	items, total, err := s.tasks.List(ctx, page)
	if err != nil {
		return ports.Page[*domain.Task]{}, err
	}
	return ports.NewPage(items, total, page), nil
}

// AssignTask points a task at a user; a PENDING task moves to IN_PROGRESS.
func (s *TaskService) AssignTask(ctx context.Context, taskID, userID uint) (*domain.Task, error) {
	var (
		updated *domain.Task
		from    domain.TaskStatus
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		task, err := s.tasks.FindByID(ctx, taskID)
		if err != nil {
			return err
		}
		if _, err := s.users.FindByID(ctx, userID); err != nil {
			return err
		}
		from = task.Status
		now := s.now()
		task.AssignTo(userID, now)
		task.UpdatedAt = now
		if err := s.tasks.Update(ctx, task); err != nil {
			return err
		}
		updated = task
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.TaskAssignmentsTotal.Inc()
	if updated.Status != from {
		metrics.TaskStatusTransitionsTotal.WithLabelValues(string(from), string(updated.Status)).Inc()
	}
	s.logger.Info().Uint("task_id", taskID).Uint("user_id", userID).Msg("task assigned")
	s.record(ctx, updated, domain.TaskEventAssigned, from)
	return updated, nil
}

// UpdateTaskStatus sets the status; COMPLETED also stamps completed_at.
func (s *TaskService) UpdateTaskStatus(ctx context.Context, taskID uint, status string) (*domain.Task, error) {
	next, ok := domain.ParseTaskStatus(status)
	if !ok {
		return nil, domain.Invalid("unknown status %q", status)
	}

	var (
		updated *domain.Task
		from    domain.TaskStatus
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		task, err := s.tasks.FindByID(ctx, taskID)
		if err != nil {
			return err
		}
		from = task.Status
		now := s.now()
		task.SetStatus(next, now)
		task.UpdatedAt = now
		if err := s.tasks.Update(ctx, task); err != nil {
			return err
		}
		updated = task
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.TaskStatusTransitionsTotal.WithLabelValues(string(from), string(next)).Inc()
	s.record(ctx, updated, domain.TaskEventStatusChanged, from)
	return updated, nil
}

func (s *TaskService) FindTasksByCustomerID(ctx context.Context, customerID uint) ([]*domain.Task, error) {
	return s.tasks.FindByCustomerID(ctx, customerID)
}

func (s *TaskService) FindTasksByAssignedUserID(ctx context.Context, userID uint) ([]*domain.Task, error) {
	return s.tasks.FindByAssignedToID(ctx, userID)
}

func (s *TaskService) FindTasksByStatus(ctx context.Context, status string) ([]*domain.Task, error) {
	st, ok := domain.ParseTaskStatus(status)
	if !ok {
		return nil, domain.Invalid("unknown status %q", status)
	}
	return s.tasks.FindByStatus(ctx, st)
}

// FindOverdueTasks returns open tasks whose due date has passed.
func (s *TaskService) FindOverdueTasks(ctx context.Context) ([]*domain.Task, error) {
	return s.tasks.FindOverdue(ctx, s.now())
}

func (s *TaskService) FindTasksByDueDateBetween(ctx context.Context, start, end time.Time) ([]*domain.Task, error) {
	if start.After(end) {
		return nil, domain.Invalid("start must not be after end")
	}
	return s.tasks.FindByDueDateBetween(ctx, start.UTC(), end.UTC())
}

func (s *TaskService) CountTasksByStatus(ctx context.Context, status string) (int64, error) {
	st, ok := domain.ParseTaskStatus(status)
	if !ok {
		return 0, domain.Invalid("unknown status %q", status)
	}
	return s.tasks.CountByStatus(ctx, st)
}

// FindRecentTasks returns up to limit tasks, newest first.
func (s *TaskService) FindRecentTasks(ctx context.Context, limit int) ([]*domain.Task, error) {
	if limit <= 0 {
		return []*domain.Task{}, nil
	}
	if limit > ports.MaxPageSize {
		limit = ports.MaxPageSize
	}
	return s.tasks.FindRecent(ctx, limit)
}

// FindUpcomingDeadlines returns open tasks due within the next days days.
func (s *TaskService) FindUpcomingDeadlines(ctx context.Context, days int) ([]*domain.Task, error) {
	if days < 0 {
		return nil, domain.Invalid("days must not be negative")
	}
	now := s.now()
	return s.tasks.FindOpenByDueDateBetween(ctx, now, now.AddDate(0, 0, days))
}

func (s *TaskService) record(ctx context.Context, t *domain.Task, typ domain.TaskEventType, from domain.TaskStatus) {
	if s.events == nil {
		return
	}
	s.events.Record(taskEvent(ctx, t, typ, from, s.now()))
}

func taskEvent(ctx context.Context, t *domain.Task, typ domain.TaskEventType, from domain.TaskStatus, at time.Time) domain.TaskEvent {
	return domain.TaskEvent{
		ID:           uuid.NewString(),
		TaskID:       t.ID,
		CustomerID:   t.CustomerID,
		Type:         typ,
		FromStatus:   from,
		ToStatus:     t.Status,
		AssignedToID: t.AssignedToID,
		Actor:        ports.ActorFrom(ctx),
		OccurredAt:   at,
	}
}

// taskPatch is a validated UpdateTaskInput.
type taskPatch struct {
	in     ports.UpdateTaskInput
	title  string
	status domain.TaskStatus
}

func validateTaskPatch(in ports.UpdateTaskInput) (taskPatch, error) {
	p := taskPatch{in: in}
	if in.Title.Set {
		if in.Title.Value == nil || strings.TrimSpace(*in.Title.Value) == "" {
			return p, domain.Invalid("title cannot be empty")
		}
		p.title = strings.TrimSpace(*in.Title.Value)
	}
	if in.Status.Set {
		if in.Status.Value == nil {
			return p, domain.Invalid("status cannot be cleared")
		}
		st, ok := domain.ParseTaskStatus(*in.Status.Value)
		if !ok {
			return p, domain.Invalid("unknown status %q", *in.Status.Value)
		}
		p.status = st
	}
	return p, nil
}

func (p taskPatch) apply(t *domain.Task, now time.Time) {
	if p.in.Title.Set {
		t.Title = p.title
	}
	if p.in.Description.Set {
		t.Description = ""
		if p.in.Description.Value != nil {
			t.Description = *p.in.Description.Value
		}
	}
	if p.in.DueDate.Set {
		t.DueDate = utcPtr(p.in.DueDate.Value)
	}
	if p.in.Priority.Set {
		t.Priority = p.in.Priority.Value
	}
	if p.in.Status.Set {
		t.SetStatus(p.status, now)
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
