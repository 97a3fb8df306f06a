package ports

import (
	"context"

	"github.com/etiya/crm-api/internal/core/domain"
)

// CustomerRepository defines persistence operations for customers.
type CustomerRepository interface {
	Create(ctx context.Context, c *domain.Customer) error
	Update(ctx context.Context, c *domain.Customer) error
	// Delete removes the customer's tasks and then the customer itself.
	// Callers wanting atomicity run it inside Transactor.WithinTx.
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*domain.Customer, error)
	FindByEmail(ctx context.Context, email string) (*domain.Customer, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// List returns a page ordered by id and the total row count.
	List(ctx context.Context, page PageRequest) ([]*domain.Customer, int64, error)
	FindActive(ctx context.Context) ([]*domain.Customer, error)
	Count(ctx context.Context) (int64, error)
}
