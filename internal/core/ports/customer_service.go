package ports

import (
	"context"

	"github.com/etiya/crm-api/internal/core/domain"
)

// CreateCustomerInput carries all data needed to create a customer.
type CreateCustomerInput struct {
	Name     string
	Email    string
	Phone    string
	Address  string
	Notes    string
	IsActive *bool // nil means active
	// IdempotencyKey makes retries of the same create return the first result.
	IdempotencyKey string
}

// UpdateCustomerInput is a partial update; nil fields are left untouched.
type UpdateCustomerInput struct {
	Name     *string
	Email    *string
	Phone    *string
	Address  *string
	Notes    *string
	IsActive *bool
}

// CustomerService defines customer use cases.
type CustomerService interface {
	CreateCustomer(ctx context.Context, in CreateCustomerInput) (*domain.Customer, error)
	UpdateCustomer(ctx context.Context, id uint, in UpdateCustomerInput) (*domain.Customer, error)
	DeleteCustomer(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*domain.Customer, bool, error)
	FindByEmail(ctx context.Context, email string) (*domain.Customer, bool, error)
	FindAll(ctx context.Context, page PageRequest) (Page[*domain.Customer], error)
	FindActive(ctx context.Context) ([]*domain.Customer, error)
	CountCustomers(ctx context.Context) (int64, error)
}
