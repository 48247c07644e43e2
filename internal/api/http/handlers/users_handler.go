package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/kozzy/chamados/internal/api/dto"
	"github.com/kozzy/chamados/internal/service"
)

// UsersHandler exposes account and area administration.
type UsersHandler struct {
	auth     *service.AuthService
	registry *service.AreaRegistry
	binder   *Binder
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService, registry *service.AreaRegistry, binder *Binder) *UsersHandler {
	return &UsersHandler{auth: authService, registry: registry, binder: binder}
}

// ListAreas handles GET /api/areas.
func (h *UsersHandler) ListAreas(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": dto.NewAreaResponses(h.registry.ListAreas())})
}

// ListUsers handles GET /api/users.
func (h *UsersHandler) ListUsers(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	users, err := h.auth.ListUsers(c.UserContext(), actor)
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for _, entry := range users {
		items = append(items, dto.NewUserResponse(entry.User, entry.Areas))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateUser handles POST /api/users.
func (h *UsersHandler) CreateUser(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.CreateUserRequest
	if err := h.binder.Body(c, &req); err != nil {
		return err
	}

	created, err := h.auth.CreateUser(c.UserContext(), actor, service.CreateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		Areas:    req.Areas,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewUserResponse(created.User, created.Areas)})
}

// UpdateUser handles PATCH /api/users/:id.
func (h *UsersHandler) UpdateUser(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.UpdateUserRequest
	if err := h.binder.Body(c, &req); err != nil {
		return err
	}

	updated, err := h.auth.UpdateUser(c.UserContext(), actor, c.Params("id"), service.UpdateUserInput{
		Name:   req.Name,
		Role:   req.Role,
		Active: req.Active,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(updated.User, updated.Areas)})
}

// AssignAreas handles PUT /api/users/:id/areas.
func (h *UsersHandler) AssignAreas(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.AssignAreasRequest
	if err := h.binder.Body(c, &req); err != nil {
		return err
	}

	areas, err := h.registry.AssignAreas(c.UserContext(), actor, c.Params("id"), req.Areas)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"user_id": c.Params("id"),
		"areas":   dto.NewAreaResponses(areas),
	}})
}
