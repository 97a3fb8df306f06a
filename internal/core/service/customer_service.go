package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/etiya/crm-api/internal/core/domain"
	"github.com/etiya/crm-api/internal/core/ports"
	"github.com/etiya/crm-api/internal/pkg/metrics"
)

// CustomerService implements customer management.
type CustomerService struct {
	customers ports.CustomerRepository
	tasks     ports.TaskRepository
	tx        ports.Transactor
	idem      ports.IdempotencyStore  // optional
	events    ports.TaskEventRecorder // optional
	logger    zerolog.Logger
	now       func() time.Time
}

func NewCustomerService(
	customers ports.CustomerRepository,
	tasks ports.TaskRepository,
	tx ports.Transactor,
	idem ports.IdempotencyStore,
	events ports.TaskEventRecorder,
	logger zerolog.Logger,
) *CustomerService {
	return &CustomerService{
		customers: customers,
		tasks:     tasks,
		tx:        tx,
		idem:      idem,
		events:    events,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *CustomerService) CreateCustomer(ctx context.Context, in ports.CreateCustomerInput) (*domain.Customer, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	if name == "" || email == "" {
		return nil, domain.Invalid("name and email are required")
	}

	if in.IdempotencyKey != "" && s.idem != nil {
		id, found, err := s.idem.Lookup(ctx, idempotencyScopeCustomer, in.IdempotencyKey)
		if err != nil {
			s.logger.Warn().Err(err).Str("idempotency_key", in.IdempotencyKey).Msg("idempotency lookup failed, creating anyway")
		} else if found {
			if existing, err := s.customers.FindByID(ctx, id); err == nil {
				metrics.IdempotentReplaysTotal.WithLabelValues(idempotencyScopeCustomer).Inc()
				return existing, nil
			}
		}
	}

	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	now := s.now()
	customer := &domain.Customer{
		Name:      name,
		Email:     email,
		Phone:     strings.TrimSpace(in.Phone),
		Address:   in.Address,
		Notes:     in.Notes,
		IsActive:  active,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		exists, err := s.customers.ExistsByEmail(ctx, email)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrCustomerExists
		}
		return s.customers.Create(ctx, customer)
	})
	if err != nil {
		return nil, err
	}

	if in.IdempotencyKey != "" && s.idem != nil {
		if err := s.idem.Remember(ctx, idempotencyScopeCustomer, in.IdempotencyKey, customer.ID); err != nil {
			s.logger.Warn().Err(err).Str("idempotency_key", in.IdempotencyKey).Msg("failed to store idempotency key")
		}
	}

	metrics.CustomersCreatedTotal.Inc()
	s.logger.Info().Uint("customer_id", customer.ID).Msg("customer created")
	return customer, nil
}

// UpdateCustomer applies the non-nil fields. created_at is never touched.
func (s *CustomerService) UpdateCustomer(ctx context.Context, id uint, in ports.UpdateCustomerInput) (*domain.Customer, error) {
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, domain.Invalid("name cannot be empty")
	}
	if in.Email != nil && normalizeEmail(*in.Email) == "" {
		return nil, domain.Invalid("email cannot be empty")
	}

	var updated *domain.Customer
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		c, err := s.customers.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if in.Email != nil {
			email := normalizeEmail(*in.Email)
			if email != c.Email {
				exists, err := s.customers.ExistsByEmail(ctx, email)
				if err != nil {
					return err
				}
				if exists {
					return domain.ErrCustomerExists
				}
				c.Email = email
			}
		}
		if in.Name != nil {
			c.Name = strings.TrimSpace(*in.Name)
		}
		if in.Phone != nil {
			c.Phone = strings.TrimSpace(*in.Phone)
		}
		if in.Address != nil {
			c.Address = *in.Address
		}
		if in.Notes != nil {
			c.Notes = *in.Notes
		}
		if in.IsActive != nil {
			c.IsActive = *in.IsActive
		}
		c.UpdatedAt = s.now()
		if err := s.customers.Update(ctx, c); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteCustomer removes a customer together with its tasks in one transaction.
func (s *CustomerService) DeleteCustomer(ctx context.Context, id uint) error {
	var removed []*domain.Task
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.customers.FindByID(ctx, id); err != nil {
			return err
		}
		tasks, err := s.tasks.FindByCustomerID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.customers.Delete(ctx, id); err != nil {
			return err
		}
		removed = tasks
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info().Uint("customer_id", id).Int("tasks_removed", len(removed)).Str("actor", ports.ActorFrom(ctx)).Msg("customer deleted")
	if s.events != nil {
		now := s.now()
		for _, t := range removed {
			s.events.Record(taskEvent(ctx, t, domain.TaskEventDeleted, t.Status, now))
		}
	}
	return nil
}

func (s *CustomerService) FindByID(ctx context.Context, id uint) (*domain.Customer, bool, error) {
	return optionalCustomer(s.customers.FindByID(ctx, id))
}

func (s *CustomerService) FindByEmail(ctx context.Context, email string) (*domain.Customer, bool, error) {
	return optionalCustomer(s.customers.FindByEmail(ctx, normalizeEmail(email)))
}

func (s *CustomerService) FindAll(ctx context.Context, page ports.PageRequest) (ports.Page[*domain.Customer], error) {
	page = page.Normalize()
	items, total, err := s.customers.List(ctx, page)
	if err != nil {
		return ports.Page[*domain.Customer]{}, err
	}
	return ports.NewPage(items, total, page), nil
}

func (s *CustomerService) FindActive(ctx context.Context) ([]*domain.Customer, error) {
	return s.customers.FindActive(ctx)
}

func (s *CustomerService) CountCustomers(ctx context.Context) (int64, error) {
	return s.customers.Count(ctx)
}

func optionalCustomer(c *domain.Customer, err error) (*domain.Customer, bool, error) {
	if err != nil {
		if errors.Is(err, domain.ErrCustomerNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return c, true, nil
}
