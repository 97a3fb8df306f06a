package ports

import (
	"context"
	"time"

	"github.com/etiya/crm-api/internal/core/domain"
)

// PasswordHasher is a one-way, salted password hash.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}

// Claims is the identity recovered from a verified token.
type Claims struct {
	UserID    uint
	Email     string
	Role      domain.Role
	ExpiresAt time.Time
}

// TokenIssuer produces a bearer token bound to a user.
type TokenIssuer interface {
	Issue(user *domain.User) (string, error)
}

// TokenVerifier recovers the claimed identity from a token without a store
// round trip.
type TokenVerifier interface {
	Verify(token string) (*Claims, error)
}

// IdempotencyStore remembers which entity a client-supplied key created.
type IdempotencyStore interface {
	Lookup(ctx context.Context, scope, key string) (id uint, found bool, err error)
	Remember(ctx context.Context, scope, key string, id uint) error
}
