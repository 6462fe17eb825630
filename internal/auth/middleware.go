package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/civita-labs/civic-report/internal/domain"
	"github.com/civita-labs/civic-report/internal/repository"
	apperrors "github.com/civita-labs/civic-report/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal is the authenticated caller: the verified email plus the stored
// user record, loaded once by the identity gate and reused by every handler
// downstream.
type Principal struct {
	Email string
	User  *domain.User
}

// IdentityGate validates bearer credentials and resolves the caller's account.
type IdentityGate struct {
	tokens *TokenManager
	users  repository.UserRepository
}

// NewIdentityGate constructs the gate.
func NewIdentityGate(tokens *TokenManager, users repository.UserRepository) *IdentityGate {
	return &IdentityGate{tokens: tokens, users: users}
}

// Handle enforces authentication for protected routes.
func (g *IdentityGate) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	email, err := g.tokens.VerifyToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid credential")
	}

	user, err := g.users.GetByEmail(c.Context(), email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewUnauthorized("account not found")
		}
		return apperrors.MapError(err)
	}

	c.Locals(principalKey, &Principal{Email: email, User: user})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated caller.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
