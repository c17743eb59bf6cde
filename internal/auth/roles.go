package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/booking-service/pkg/util"
)

// RequireAuthenticated ensures a principal is present.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}

// RequireAdmin ensures the caller holds the administrator role.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !principal.IsAdmin {
			return apperrors.NewForbidden("administrator role required")
		}
		return c.Next()
	}
}
