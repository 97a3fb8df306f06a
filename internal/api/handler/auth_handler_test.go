package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/etiya/crm-api/internal/core/domain"
	"github.com/etiya/crm-api/internal/core/ports"
)

func TestAuthHandler_Register_Success(t *testing.T) {
	stub := &stubUserService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
			if in.FullName != "Alice" || in.Email != "alice@example.com" || in.Role != "MANAGER" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &ports.AuthResult{
				Token: "tok",
				User:  &domain.User{ID: 1, FullName: in.FullName, Email: in.Email, Role: domain.RoleManager, IsActive: true},
			}, nil
		},
	}
	h := NewAuthHandler(stub)

	c, rec := newCtx(http.MethodPost, "/api/auth/register",
		`{"full_name":"Alice","email":"alice@example.com","password":"secret1","role":"MANAGER"}`)
	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["token"] != "tok" {
		t.Fatalf("expected token in response, got %+v", resp)
	}
	user, ok := resp["user"].(map[string]any)
	if !ok {
		t.Fatalf("expected user in response")
	}
	if user["email"] != "alice@example.com" || user["role"] != "MANAGER" {
		t.Fatalf("unexpected user payload: %+v", user)
	}
	if _, leaked := user["password"]; leaked {
		t.Fatalf("password hash must not be serialized")
	}
}

func TestAuthHandler_Register_ValidationFails(t *testing.T) {
	h := NewAuthHandler(&stubUserService{})

	c, _ := newCtx(http.MethodPost, "/api/auth/register", `{"full_name":"Bob","email":"not-an-email","password":"123"}`)
	err := h.Register(c)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAuthHandler_Register_UserExists(t *testing.T) {
	stub := &stubUserService{
		registerFn: func(context.Context, ports.RegisterInput) (*ports.AuthResult, error) {
			return nil, domain.ErrUserExists
		},
	}
	h := NewAuthHandler(stub)

	c, _ := newCtx(http.MethodPost, "/api/auth/register", `{"full_name":"Bob","email":"bob@example.com","password":"secret1"}`)
	if err := h.Register(c); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestAuthHandler_Login(t *testing.T) {
	stub := &stubUserService{
		loginFn: func(ctx context.Context, in ports.LoginInput) (*ports.AuthResult, error) {
			if in.Password != "secret" {
				return nil, domain.ErrInvalidCredentials
			}
			return &ports.AuthResult{Token: "tok", User: &domain.User{Email: in.Email}}, nil
		},
	}
	h := NewAuthHandler(stub)

	c, rec := newCtx(http.MethodPost, "/api/auth/login", `{"email":"a@example.com","password":"secret"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	c, _ = newCtx(http.MethodPost, "/api/auth/login", `{"email":"a@example.com","password":"nope"}`)
	if err := h.Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}

	c, _ = newCtx(http.MethodPost, "/api/auth/login", `{"email":"a@example.com"}`)
	if err := h.Login(c); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for missing password, got %v", err)
	}
}
