package gormdb

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/etiya/crm-api/internal/core/domain"
	"github.com/etiya/crm-api/internal/core/ports"
)

// TaskRepository implements ports.TaskRepository.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) ports.TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, t *domain.Task) error {
	return translateError(conn(ctx, r.db).Omit("Customer", "AssignedTo").Create(t).Error, domain.ErrTaskNotFound, domain.ErrConflict)
}

func (r *TaskRepository) Update(ctx context.Context, t *domain.Task) error {
	return translateError(conn(ctx, r.db).Omit("Customer", "AssignedTo").Save(t).Error, domain.ErrTaskNotFound, domain.ErrConflict)
}

func (r *TaskRepository) Delete(ctx context.Context, id uint) error {
	res := conn(ctx, r.db).Delete(&domain.Task{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *TaskRepository) FindByID(ctx context.Context, id uint) (*domain.Task, error) {
	var t domain.Task
	if err := conn(ctx, r.db).First(&t, "id = ?", id).Error; err != nil {
		return nil, translateError(err, domain.ErrTaskNotFound, domain.ErrConflict)
	}
	return &t, nil
}

func (r *TaskRepository) List(ctx context.Context, page ports.PageRequest) ([]*domain.Task, int64, error) {
	db := conn(ctx, r.db)

	var total int64
	if err := db.Model(&domain.Task{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []*domain.Task
	err := db.Order("id ASC").Limit(page.Size).Offset(page.Offset()).Find(&out).Error
	return out, total, err
}

func (r *TaskRepository) find(ctx context.Context, order string, query string, args ...interface{}) ([]*domain.Task, error) {
	out := []*domain.Task{}
	err := conn(ctx, r.db).Where(query, args...).Order(order).Find(&out).Error
	return out, err
}

func (r *TaskRepository) FindByCustomerID(ctx context.Context, customerID uint) ([]*domain.Task, error) {
	return r.find(ctx, "id ASC", "customer_id = ?", customerID)
}

func (r *TaskRepository) FindByAssignedToID(ctx context.Context, userID uint) ([]*domain.Task, error) {
	return r.find(ctx, "id ASC", "assigned_to_id = ?", userID)
}

func (r *TaskRepository) FindByStatus(ctx context.Context, status domain.TaskStatus) ([]*domain.Task, error) {
	return r.find(ctx, "id ASC", "status = ?", status)
}

func (r *TaskRepository) FindOverdue(ctx context.Context, now time.Time) ([]*domain.Task, error) {
	return r.find(ctx, "id ASC", "status <> ? AND due_date IS NOT NULL AND due_date < ?", domain.TaskCompleted, now.UTC())
}

func (r *TaskRepository) FindByDueDateBetween(ctx context.Context, start, end time.Time) ([]*domain.Task, error) {
	return r.find(ctx, "id ASC", "due_date >= ? AND due_date <= ?", start.UTC(), end.UTC())
}

func (r *TaskRepository) FindOpenByDueDateBetween(ctx context.Context, start, end time.Time) ([]*domain.Task, error) {
	return r.find(ctx, "due_date ASC, id ASC", "status <> ? AND due_date >= ? AND due_date <= ?", domain.TaskCompleted, start.UTC(), end.UTC())
}

func (r *TaskRepository) CountByStatus(ctx context.Context, status domain.TaskStatus) (int64, error) {
	var n int64
	err := conn(ctx, r.db).Model(&domain.Task{}).Where("status = ?", status).Count(&n).Error
	return n, err
}

func (r *TaskRepository) FindRecent(ctx context.Context, limit int) ([]*domain.Task, error) {
	out := []*domain.Task{}
	err := conn(ctx, r.db).Order("created_at DESC, id DESC").Limit(limit).Find(&out).Error
	return out, err
}

func (r *TaskRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := conn(ctx, r.db).Model(&domain.Task{}).Count(&n).Error
	return n, err
}
