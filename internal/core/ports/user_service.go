package ports

import (
	"context"

	"github.com/etiya/crm-api/internal/core/domain"
)

// RegisterInput carries the data needed to create an account.
type RegisterInput struct {
	FullName string
	Email    string
	Password string
	// Role is optional; empty means USER.
	Role string
}

// LoginInput carries login credentials.
type LoginInput struct {
	Email    string
	Password string
}

// UpdateUserInput is a partial profile update; nil fields are left untouched.
type UpdateUserInput struct {
	FullName *string
	Password *string
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token string
	User  *domain.User
}

// UserService defines account use cases.
type UserService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, in LoginInput) (*AuthResult, error)
	GetCurrentUser(ctx context.Context, email string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, bool, error)
	UpdateUser(ctx context.Context, email string, in UpdateUserInput) (*domain.User, error)
	ActivateUser(ctx context.Context, email string) error
	DeactivateUser(ctx context.Context, email string) error
}
