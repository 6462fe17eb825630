package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/civita-labs/civic-report/internal/domain"
	apperrors "github.com/civita-labs/civic-report/pkg/util/errorutil"
)

// RequireRole ensures the caller's stored role equals the required one.
// Checks are role-exact: an admin calling a staff-only route is rejected.
func RequireRole(required domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.User == nil {
			return apperrors.NewUnauthorized("authentication required")
		}
		if principal.User.Role != required {
			return apperrors.NewForbidden(string(required) + " role required")
		}
		return c.Next()
	}
}

// RequireNotBlocked rejects callers whose account carries the block flag.
func RequireNotBlocked() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.User == nil {
			return apperrors.NewUnauthorized("authentication required")
		}
		if principal.User.Blocked {
			return apperrors.NewForbidden("account is blocked")
		}
		return c.Next()
	}
}
