package handler

import (
	"encoding/json"
	"time"

	"github.com/etiya/crm-api/internal/core/domain"
	"github.com/etiya/crm-api/internal/core/ports"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Auth / users ---

type registerRequest struct {
	FullName string `json:"full_name" validate:"required,max=120"`
	Email    string `json:"email"     validate:"required,email"`
	Password string `json:"password"  validate:"required,min=6"`
	Role     string `json:"role"      validate:"omitempty,role"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

type updateUserRequest struct {
	FullName *string `json:"full_name" validate:"omitempty,max=120"`
	Password *string `json:"password"  validate:"omitempty,min=6"`
}

// --- Customers ---

type createCustomerRequest struct {
	Name     string `json:"name"      validate:"required,max=160"`
	Email    string `json:"email"     validate:"required,email"`
	Phone    string `json:"phone"     validate:"max=40"`
	Address  string `json:"address"`
	Notes    string `json:"notes"     validate:"max=500"`
	IsActive *bool  `json:"is_active"`
}

type updateCustomerRequest struct {
	Name     *string `json:"name"      validate:"omitempty,max=160"`
	Email    *string `json:"email"     validate:"omitempty,email"`
	Phone    *string `json:"phone"     validate:"omitempty,max=40"`
	Address  *string `json:"address"`
	Notes    *string `json:"notes"     validate:"omitempty,max=500"`
	IsActive *bool   `json:"is_active"`
}

// --- Tasks ---

type createTaskRequest struct {
	Title          string     `json:"title"           validate:"required,max=200"`
	Description    string     `json:"description"`
	Status         string     `json:"status"          validate:"omitempty,taskstatus"`
	DueDate        *time.Time `json:"due_date"`
	Priority       *int       `json:"priority"        validate:"omitempty,gte=1"`
	EstimatedHours *float64   `json:"estimated_hours" validate:"omitempty,gte=0"`
	ActualHours    *float64   `json:"actual_hours"    validate:"omitempty,gte=0"`
	CustomerID     uint       `json:"customer_id"     validate:"required"`
	AssignedToID   *uint      `json:"assigned_to_id"`
}

// updateTaskRequest distinguishes omitted fields from explicit nulls.
type updateTaskRequest struct {
	Title       optional[string]    `json:"title"`
	Description optional[string]    `json:"description"`
	DueDate     optional[time.Time] `json:"due_date"`
	Priority    optional[int]       `json:"priority"`
	Status      optional[string]    `json:"status"`
}

func (r updateTaskRequest) input() ports.UpdateTaskInput {
	return ports.UpdateTaskInput{
		Title:       r.Title.port(),
		Description: r.Description.port(),
		DueDate:     r.DueDate.port(),
		Priority:    r.Priority.port(),
		Status:      r.Status.port(),
	}
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required,taskstatus"`
}

// optional records whether a JSON field was present at all.
type optional[T any] struct {
	Set   bool
	Value *T
}

func (o *optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

func (o optional[T]) port() ports.Optional[*T] {
	return ports.Optional[*T]{Set: o.Set, Value: o.Value}
}

// --- Shared responses ---

type pageResponse[T any] struct {
	Content       []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"total_elements"`
	TotalPages    int   `json:"total_pages"`
}

func newPageResponse[T any](p ports.Page[T]) pageResponse[T] {
	return pageResponse[T]{
		Content:       p.Items,
		Page:          p.Page,
		Size:          p.Size,
		TotalElements: p.Total,
		TotalPages:    p.TotalPages,
	}
}

type countResponse struct {
	Status string `json:"status,omitempty"`
	Count  int64  `json:"count"`
}

type dashboardStats struct {
	TotalTasks      int64            `json:"total_tasks"`
	TasksByStatus   map[string]int64 `json:"tasks_by_status"`
	OverdueTasks    int              `json:"overdue_tasks"`
	UpcomingWeek    int              `json:"upcoming_week"`
	TotalCustomers  int64            `json:"total_customers"`
	ActiveCustomers int              `json:"active_customers"`
}
