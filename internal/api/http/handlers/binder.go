package handlers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/kozzy/chamados/internal/auth"
	"github.com/kozzy/chamados/internal/domain"
	apperrors "github.com/kozzy/chamados/pkg/errorutil"
)

// Binder parses request payloads and runs struct validation.
type Binder struct {
	validate *validator.Validate
}

// NewBinder constructs binder.
func NewBinder() *Binder {
	return &Binder{validate: validator.New()}
}

// Body decodes the JSON body into dst and validates it.
func (b *Binder) Body(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return b.check(dst)
}

// Query decodes the query string into dst and validates it.
func (b *Binder) Query(c *fiber.Ctx, dst any) error {
	if err := c.QueryParser(dst); err != nil {
		return apperrors.NewValidationError("invalid query", nil)
	}
	return b.check(dst)
}

func (b *Binder) check(dst any) error {
	err := b.validate.Struct(dst)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.NewValidationError("validation failed", nil)
	}
	details := make(map[string]any, len(fieldErrs))
	for _, fe := range fieldErrs {
		details[fe.Field()] = fe.Tag()
	}
	return apperrors.NewValidationError("validation failed", details)
}

func currentActor(c *fiber.Ctx) (*domain.Actor, error) {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return actor, nil
}
