package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/kozzy/chamados/internal/api/dto"
	"github.com/kozzy/chamados/internal/service"
)

// AuthHandler exposes login, session and password endpoints.
type AuthHandler struct {
	auth             *service.AuthService
	registry         *service.AreaRegistry
	binder           *Binder
	cookieName       string
	exposeResetToken bool
}

// NewAuthHandler constructs handler. exposeResetToken returns reset tokens
// in the response body, for environments without mail delivery.
func NewAuthHandler(authService *service.AuthService, registry *service.AreaRegistry, binder *Binder, cookieName string, exposeResetToken bool) *AuthHandler {
	return &AuthHandler{
		auth:             authService,
		registry:         registry,
		binder:           binder,
		cookieName:       cookieName,
		exposeResetToken: exposeResetToken,
	}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := h.binder.Body(c, &req); err != nil {
		return err
	}

	user, token, exp, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	areas, err := h.registry.AreasFor(c.UserContext(), user.ID)
	if err != nil {
		return err
	}

	c.Cookie(&fiber.Cookie{
		Name:     h.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  exp,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(fiber.Map{"data": dto.AuthResponse{
		Token:     token,
		ExpiresAt: exp,
		User:      dto.NewUserResponse(*user, areas.Slice()),
	}})
}

// Logout handles POST /auth/logout. Tokens are stateless, so this only
// drops the cookie.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.ClearCookie(h.cookieName)
	return c.SendStatus(http.StatusNoContent)
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewActorResponse(actor)})
}

// RequestPasswordReset handles POST /auth/password/reset/request.
func (h *AuthHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetRequest
	if err := h.binder.Body(c, &req); err != nil {
		return err
	}

	token, err := h.auth.RequestPasswordReset(c.UserContext(), req.Email)
	if err != nil {
		return err
	}
	data := fiber.Map{"status": "accepted"}
	if h.exposeResetToken && token != nil {
		data["reset_token"] = token.Token
		data["expires_at"] = token.ExpiresAt
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{"data": data})
}

// ConfirmPasswordReset handles POST /auth/password/reset/confirm.
func (h *AuthHandler) ConfirmPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetConfirmRequest
	if err := h.binder.Body(c, &req); err != nil {
		return err
	}
	if err := h.auth.ConfirmPasswordReset(c.UserContext(), req.Token, req.NewPassword); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ChangePassword handles POST /auth/password/change.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.PasswordChangeRequest
	if err := h.binder.Body(c, &req); err != nil {
		return err
	}
	if err := h.auth.ChangePassword(c.UserContext(), actor, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
