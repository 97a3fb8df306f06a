package gormdb

import (
	"context"

	"gorm.io/gorm"

	"github.com/etiya/crm-api/internal/core/domain"
	"github.com/etiya/crm-api/internal/core/ports"
)

// UserRepository implements ports.UserRepository.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) ports.UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	return translateError(conn(ctx, r.db).Create(u).Error, domain.ErrUserNotFound, domain.ErrUserExists)
}

func (r *UserRepository) Update(ctx context.Context, u *domain.User) error {
	return translateError(conn(ctx, r.db).Save(u).Error, domain.ErrUserNotFound, domain.ErrUserExists)
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	var u domain.User
	if err := conn(ctx, r.db).First(&u, "id = ?", id).Error; err != nil {
		return nil, translateError(err, domain.ErrUserNotFound, domain.ErrUserExists)
	}
	return &u, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	if err := conn(ctx, r.db).First(&u, "email = ?", email).Error; err != nil {
		return nil, translateError(err, domain.ErrUserNotFound, domain.ErrUserExists)
	}
	return &u, nil
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var n int64
	err := conn(ctx, r.db).Model(&domain.User{}).Where("email = ?", email).Count(&n).Error
	return n > 0, err
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := conn(ctx, r.db).Model(&domain.User{}).Count(&n).Error
	return n, err
}
