package dto

import (
	"time"

	"github.com/kozzy/chamados/internal/domain"
)

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// PasswordResetRequest payload for initiating reset.
type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// PasswordResetConfirmRequest payload for confirming reset.
type PasswordResetConfirmRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

// PasswordChangeRequest payload for authenticated password changes.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6"`
}

// CreateUserRequest payload for supervisor account creation.
type CreateUserRequest struct {
	Name     string      `json:"name" validate:"required,max=120"`
	Email    string      `json:"email" validate:"required,email"`
	Password string      `json:"password" validate:"required,min=6"`
	Role     domain.Role `json:"role" validate:"required,oneof=SUPERVISOR AGENT"`
	Areas    []string    `json:"areas" validate:"dive,required"`
}

// UpdateUserRequest is a partial account update.
type UpdateUserRequest struct {
	Name   *string      `json:"name" validate:"omitempty,max=120"`
	Role   *domain.Role `json:"role" validate:"omitempty,oneof=SUPERVISOR AGENT"`
	Active *bool        `json:"active"`
}

// AssignAreasRequest replaces an agent's areas.
type AssignAreasRequest struct {
	Areas []string `json:"areas" validate:"dive,required"`
}

// AreaResponse describes one area of the vocabulary.
type AreaResponse struct {
	Tag   domain.Area `json:"tag"`
	Label string      `json:"label"`
}

// UserResponse is the public projection of an account.
type UserResponse struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Email  string         `json:"email"`
	Role   domain.Role    `json:"role"`
	Active bool           `json:"active"`
	Areas  []AreaResponse `json:"areas"`
}

// NewAreaResponses maps areas to their response form.
func NewAreaResponses(areas []domain.Area) []AreaResponse {
	out := make([]AreaResponse, 0, len(areas))
	for _, area := range areas {
		out = append(out, AreaResponse{Tag: area, Label: area.Label()})
	}
	return out
}

// NewUserResponse projects a user and its areas.
func NewUserResponse(user domain.User, areas []domain.Area) UserResponse {
	return UserResponse{
		ID:     user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Role:   user.Role,
		Active: user.Active,
		Areas:  NewAreaResponses(areas),
	}
}

// NewActorResponse projects the signed-in actor.
func NewActorResponse(actor *domain.Actor) UserResponse {
	return UserResponse{
		ID:     actor.ID,
		Name:   actor.DisplayName,
		Email:  actor.Email,
		Role:   actor.Role,
		Active: true,
		Areas:  NewAreaResponses(actor.AssignedAreas.Slice()),
	}
}
