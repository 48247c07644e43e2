package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/kozzy/chamados/internal/domain"
	apperrors "github.com/kozzy/chamados/pkg/errorutil"
)

const actorKey = "auth_actor"

// ActorResolver turns a token subject into a fresh Actor.
type ActorResolver interface {
	Authenticate(ctx context.Context, userID string) (*domain.Actor, error)
}

// AuthMiddleware validates bearer tokens or the session cookie and loads
// the actor for the request.
type AuthMiddleware struct {
	tokens     *TokenManager
	resolver   ActorResolver
	cookieName string
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, resolver ActorResolver, cookieName string) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, resolver: resolver, cookieName: cookieName}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	raw, err := m.extractToken(c)
	if err != nil {
		return err
	}

	claims, err := m.tokens.ParseToken(raw)
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	actor, err := m.resolver.Authenticate(c.UserContext(), claims.Subject)
	if err != nil {
		return err
	}

	c.Locals(actorKey, actor)
	return c.Next()
}

func (m *AuthMiddleware) extractToken(c *fiber.Ctx) (string, error) {
	if authHeader := c.Get(fiber.HeaderAuthorization); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			return "", apperrors.NewUnauthorized("invalid authorization header")
		}
		return strings.TrimSpace(parts[1]), nil
	}
	if m.cookieName != "" {
		if cookie := c.Cookies(m.cookieName); cookie != "" {
			return cookie, nil
		}
	}
	return "", apperrors.NewUnauthorized("missing credentials")
}

// ActorFromContext retrieves the authenticated actor.
func ActorFromContext(c *fiber.Ctx) (*domain.Actor, bool) {
	val := c.Locals(actorKey)
	if val == nil {
		return nil, false
	}
	actor, ok := val.(*domain.Actor)
	return actor, ok && actor != nil
}
