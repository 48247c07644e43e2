package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/kozzy/chamados/pkg/errorutil"
)

// RequireSupervisor ensures the caller has full access.
func RequireSupervisor() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := ActorFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !actor.IsSupervisor() {
			return apperrors.NewAuthorizationDenied("supervisor role required", nil)
		}
		return c.Next()
	}
}

// RequireActor ensures some actor is authenticated.
func RequireActor() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := ActorFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}
