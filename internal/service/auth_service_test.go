package service

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/civita-labs/civic-report/internal/auth"
	"github.com/civita-labs/civic-report/internal/config"
	"github.com/civita-labs/civic-report/internal/domain"
)

func authConfig() config.Config {
	return config.Config{
		Auth: config.AuthConfig{
			JWTSecret:             "test-secret",
			AccessTokenTTLMinutes: 60,
			BcryptCost:            4,
		},
	}
}

func TestRegister(t *testing.T) {
	t.Run("new email creates a citizen account", func(t *testing.T) {
		var stored *domain.User
		users := &mockUserRepo{
			CreateIfAbsentFn: func(ctx context.Context, user *domain.User) (bool, error) {
				user.ID = "user-1"
				stored = user
				return true, nil
			},
		}
		svc := NewAuthService(authConfig(), users)

		user, token, _, err := svc.Register(context.Background(), "Jo Park", "jo@example.com", "hunter2", "")
		if err != nil {
			t.Fatalf("register: %v", err)
		}
		if user.Role != domain.RoleCitizen {
			t.Fatalf("new accounts must be citizens, got %s", user.Role)
		}
		if token == "" {
			t.Fatal("expected a bearer token")
		}
		if stored.PasswordHash == "hunter2" || stored.PasswordHash == "" {
			t.Fatal("password must be stored hashed")
		}
		if err := auth.ComparePassword(stored.PasswordHash, "hunter2"); err != nil {
			t.Fatalf("stored hash does not match password: %v", err)
		}
	})

	t.Run("repeat registration returns the existing account", func(t *testing.T) {
		existing := &domain.User{
			ID:    "user-1",
			Name:  "Jo Park",
			Email: "jo@example.com",
			Role:  domain.RoleStaff,
		}
		users := &mockUserRepo{
			CreateIfAbsentFn: func(ctx context.Context, user *domain.User) (bool, error) {
				return false, nil
			},
			GetByEmailFn: func(ctx context.Context, email string) (*domain.User, error) {
				return existing, nil
			},
		}
		svc := NewAuthService(authConfig(), users)

		user, token, _, err := svc.Register(context.Background(), "Someone Else", "jo@example.com", "other", "")
		if err != nil {
			t.Fatalf("register: %v", err)
		}
		if user.ID != existing.ID || user.Role != domain.RoleStaff {
			t.Fatalf("expected existing account untouched, got %+v", user)
		}
		if token == "" {
			t.Fatal("repeat registration still issues a credential")
		}
	})
}

func TestLogin(t *testing.T) {
	hash, err := auth.HashPassword("hunter2", 4)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	account := &domain.User{
		ID:           "user-1",
		Name:         "Jo Park",
		Email:        "jo@example.com",
		Role:         domain.RoleCitizen,
		PasswordHash: hash,
	}
	newService := func(user *domain.User) *AuthService {
		users := &mockUserRepo{
			GetByEmailFn: func(ctx context.Context, email string) (*domain.User, error) {
				if user == nil || email != user.Email {
					return nil, pgx.ErrNoRows
				}
				copied := *user
				return &copied, nil
			},
		}
		return NewAuthService(authConfig(), users)
	}

	t.Run("valid credentials issue a verifiable token", func(t *testing.T) {
		svc := newService(account)

		user, token, _, err := svc.Login(context.Background(), "jo@example.com", "hunter2")
		if err != nil {
			t.Fatalf("login: %v", err)
		}
		if user.ID != account.ID {
			t.Fatalf("unexpected account %+v", user)
		}
		email, err := svc.TokenManager().VerifyToken(token)
		if err != nil {
			t.Fatalf("verify: %v", err)
		}
		if email != "jo@example.com" {
			t.Fatalf("token email = %q", email)
		}
	})

	t.Run("wrong password is unauthorized", func(t *testing.T) {
		svc := newService(account)

		_, _, _, err := svc.Login(context.Background(), "jo@example.com", "wrong")
		if code := domainCode(t, err); code != "UNAUTHORIZED" {
			t.Fatalf("expected UNAUTHORIZED, got %s", code)
		}
	})

	t.Run("unknown email is unauthorized", func(t *testing.T) {
		svc := newService(nil)

		_, _, _, err := svc.Login(context.Background(), "ghost@example.com", "hunter2")
		if code := domainCode(t, err); code != "UNAUTHORIZED" {
			t.Fatalf("expected UNAUTHORIZED, got %s", code)
		}
	})

	t.Run("blocked account is forbidden", func(t *testing.T) {
		blocked := *account
		blocked.Blocked = true
		svc := newService(&blocked)

		_, _, _, err := svc.Login(context.Background(), "jo@example.com", "hunter2")
		if code := domainCode(t, err); code != "FORBIDDEN" {
			t.Fatalf("expected FORBIDDEN, got %s", code)
		}
	})
}
