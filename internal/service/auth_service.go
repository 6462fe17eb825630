package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/civita-labs/civic-report/internal/auth"
	"github.com/civita-labs/civic-report/internal/config"
	"github.com/civita-labs/civic-report/internal/domain"
	"github.com/civita-labs/civic-report/internal/repository"
	apperrors "github.com/civita-labs/civic-report/pkg/util/errorutil"
)

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, users repository.UserRepository) *AuthService {
	return &AuthService{
		users:      users,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// TokenManager exposes the token manager for the identity gate.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// Register creates an account unless the email is already registered, in
// which case the existing account is returned unchanged. Either way the
// caller receives a fresh credential.
func (s *AuthService) Register(ctx context.Context, name, email, password, photoURL string) (*domain.User, string, time.Time, error) {
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PhotoURL:     photoURL,
		Role:         domain.RoleCitizen,
		PasswordHash: hash,
	}
	created, err := s.users.CreateIfAbsent(ctx, user)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if !created {
		existing, err := s.users.GetByEmail(ctx, email)
		if err != nil {
			return nil, "", time.Time{}, apperrors.MapError(err)
		}
		user = existing
	}

	token, exp, err := s.tokenMgr.GenerateToken(user.Email, user.Name)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	return user, token, exp, nil
}

// Login verifies credentials and issues a bearer token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	if user.Blocked {
		return nil, "", time.Time{}, apperrors.NewForbidden("account is blocked")
	}

	token, exp, err := s.tokenMgr.GenerateToken(user.Email, user.Name)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	return user, token, exp, nil
}
