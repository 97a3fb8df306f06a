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

// UserService implements registration, login and account management.
type UserService struct {
	repo   ports.UserRepository
	tx     ports.Transactor
	hasher ports.PasswordHasher
	tokens ports.TokenIssuer
	logger zerolog.Logger
	now    func() time.Time
}

func NewUserService(
	repo ports.UserRepository,
	tx ports.Transactor,
	hasher ports.PasswordHasher,
	tokens ports.TokenIssuer,
	logger zerolog.Logger,
) *UserService {
	return &UserService{
		repo:   repo,
		tx:     tx,
		hasher: hasher,
		tokens: tokens,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *UserService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	email := normalizeEmail(in.Email)
	fullName := strings.TrimSpace(in.FullName)
	if email == "" || in.Password == "" || fullName == "" {
		return nil, domain.Invalid("full_name, email and password are required")
	}

	role := domain.RoleUser
	if in.Role != "" {
		r, ok := domain.ParseRole(in.Role)
		if !ok {
			return nil, domain.Invalid("unknown role %q", in.Role)
		}
		role = r
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &domain.User{
		FullName:  fullName,
		Email:     email,
		Password:  hash,
		Role:      role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		exists, err := s.repo.ExistsByEmail(ctx, email)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrUserExists
		}
		return s.repo.Create(ctx, user)
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			metrics.AuthAttemptsTotal.WithLabelValues("register", "conflict").Inc()
		} else {
			metrics.AuthAttemptsTotal.WithLabelValues("register", "error").Inc()
		}
		return nil, err
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	metrics.AuthAttemptsTotal.WithLabelValues("register", "success").Inc()
	s.logger.Info().Uint("user_id", user.ID).Str("role", string(user.Role)).Msg("user registered")

	return &ports.AuthResult{Token: token, User: user}, nil
}

func (s *UserService) Login(ctx context.Context, in ports.LoginInput) (*ports.AuthResult, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		metrics.AuthAttemptsTotal.WithLabelValues("login", "invalid_credentials").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			metrics.AuthAttemptsTotal.WithLabelValues("login", "invalid_credentials").Inc()
			return nil, domain.ErrInvalidCredentials
		}
		metrics.AuthAttemptsTotal.WithLabelValues("login", "error").Inc()
		return nil, err
	}

	if !s.hasher.Compare(user.Password, in.Password) {
		metrics.AuthAttemptsTotal.WithLabelValues("login", "invalid_credentials").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	if !user.IsActive {
		metrics.AuthAttemptsTotal.WithLabelValues("login", "inactive").Inc()
		s.logger.Warn().Uint("user_id", user.ID).Msg("login rejected for inactive user")
		return nil, domain.ErrUserInactive
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	metrics.AuthAttemptsTotal.WithLabelValues("login", "success").Inc()
	return &ports.AuthResult{Token: token, User: user}, nil
}

func (s *UserService) GetCurrentUser(ctx context.Context, email string) (*domain.User, error) {
	return s.repo.FindByEmail(ctx, normalizeEmail(email))
}

func (s *UserService) FindByEmail(ctx context.Context, email string) (*domain.User, bool, error) {
	user, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return user, true, nil
}

// UpdateUser changes the full name and/or password of the account owning email.
func (s *UserService) UpdateUser(ctx context.Context, email string, in ports.UpdateUserInput) (*domain.User, error) {
	var fullName, hash string
	if in.FullName != nil {
		fullName = strings.TrimSpace(*in.FullName)
		if fullName == "" {
			return nil, domain.Invalid("full_name cannot be empty")
		}
	}
	if in.Password != nil {
		if *in.Password == "" {
			return nil, domain.Invalid("password cannot be empty")
		}
		h, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, err
		}
		hash = h
	}

	var updated *domain.User
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		user, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
		if err != nil {
			return err
		}
		if in.FullName != nil {
			user.FullName = fullName
		}
		if in.Password != nil {
			user.Password = hash
		}
		user.UpdatedAt = s.now()
		if err := s.repo.Update(ctx, user); err != nil {
			return err
		}
		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *UserService) ActivateUser(ctx context.Context, email string) error {
	return s.setActive(ctx, email, true)
}

func (s *UserService) DeactivateUser(ctx context.Context, email string) error {
	return s.setActive(ctx, email, false)
}

func (s *UserService) setActive(ctx context.Context, email string, active bool) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		user, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
		if err != nil {
			return err
		}
		user.IsActive = active
		user.UpdatedAt = s.now()
		return s.repo.Update(ctx, user)
	})
	if err != nil {
		return err
	}
	s.logger.Info().Str("email", normalizeEmail(email)).Bool("active", active).Str("actor", ports.ActorFrom(ctx)).Msg("user activation changed")
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
