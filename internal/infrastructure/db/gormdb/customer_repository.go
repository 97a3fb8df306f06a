package gormdb

import (
	"context"

	"gorm.io/gorm"

	"github.com/etiya/crm-api/internal/core/domain"
	"github.com/etiya/crm-api/internal/core/ports"
)

// CustomerRepository implements ports.CustomerRepository.
type CustomerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) ports.CustomerRepository {
	return &CustomerRepository{db: db}
}

func (r *CustomerRepository) Create(ctx context.Context, c *domain.Customer) error {
	return translateError(conn(ctx, r.db).Create(c).Error, domain.ErrCustomerNotFound, domain.ErrCustomerExists)
}

func (r *CustomerRepository) Update(ctx context.Context, c *domain.Customer) error {
	return translateError(conn(ctx, r.db).Save(c).Error, domain.ErrCustomerNotFound, domain.ErrCustomerExists)
}

// Delete removes the customer's tasks first; the tasks foreign key is
// RESTRICT so the order matters.
func (r *CustomerRepository) Delete(ctx context.Context, id uint) error {
	db := conn(ctx, r.db)
	if err := db.Where("customer_id = ?", id).Delete(&domain.Task{}).Error; err != nil {
		return err
	}
	res := db.Delete(&domain.Customer{}, id)
	if res.Error != nil {
		return translateError(res.Error, domain.ErrCustomerNotFound, domain.ErrCustomerExists)
	}
	if res.RowsAffected == 0 {
		return domain.ErrCustomerNotFound
	}
	return nil
}

func (r *CustomerRepository) FindByID(ctx context.Context, id uint) (*domain.Customer, error) {
	var c domain.Customer
	if err := conn(ctx, r.db).First(&c, "id = ?", id).Error; err != nil {
		return nil, translateError(err, domain.ErrCustomerNotFound, domain.ErrCustomerExists)
	}
	return &c, nil
}

func (r *CustomerRepository) FindByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	var c domain.Customer
	if err := conn(ctx, r.db).First(&c, "email = ?", email).Error; err != nil {
		return nil, translateError(err, domain.ErrCustomerNotFound, domain.ErrCustomerExists)
	}
	return &c, nil
}

func (r *CustomerRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var n int64
	err := conn(ctx, r.db).Model(&domain.Customer{}).Where("email = ?", email).Count(&n).Error
	return n > 0, err
}

func (r *CustomerRepository) List(ctx context.Context, page ports.PageRequest) ([]*domain.Customer, int64, error) {
	db := conn(ctx, r.db)

	var total int64
	if err := db.Model(&domain.Customer{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []*domain.Customer
	err := db.Order("id ASC").Limit(page.Size).Offset(page.Offset()).Find(&out).Error
	return out, total, err
}

func (r *CustomerRepository) FindActive(ctx context.Context) ([]*domain.Customer, error) {
	var out []*domain.Customer
	err := conn(ctx, r.db).Where("is_active = ?", true).Order("id ASC").Find(&out).Error
	return out, err
}

func (r *CustomerRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := conn(ctx, r.db).Model(&domain.Customer{}).Count(&n).Error
	return n, err
}
