package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the core wraps exactly one of these so
// the transport layer can map it with errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("access forbidden")
	ErrValidation         = errors.New("validation failed")
)

var (
	ErrTaskNotFound     = fmt.Errorf("task %w", ErrNotFound)
	ErrUserNotFound     = fmt.Errorf("user %w", ErrNotFound)
	ErrCustomerNotFound = fmt.Errorf("customer %w", ErrNotFound)

	ErrUserExists     = fmt.Errorf("%w: email already in use", ErrConflict)
	ErrCustomerExists = fmt.Errorf("%w: customer email already in use", ErrConflict)

	ErrUserInactive = fmt.Errorf("%w: user account is disabled", ErrForbidden)
)

// Invalid builds a validation error carrying a client-safe message.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
