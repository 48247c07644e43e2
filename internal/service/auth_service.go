package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kozzy/chamados/internal/auth"
	"github.com/kozzy/chamados/internal/config"
	"github.com/kozzy/chamados/internal/domain"
	"github.com/kozzy/chamados/internal/repository"
	apperrors "github.com/kozzy/chamados/pkg/errorutil"
)

// AuthService coordinates login, actor resolution and account management.
type AuthService struct {
	users      repository.UserRepository
	resets     repository.PasswordResetRepository
	registry   *AreaRegistry
	tokenMgr   *auth.TokenManager
	bcryptCost int
	resetTTL   time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	UserRepo          repository.UserRepository
	PasswordResetRepo repository.PasswordResetRepository
	Registry          *AreaRegistry
	Logger            *zap.Logger
}

// CreateUserInput describes a new account.
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
	Areas    []string
}

// UpdateUserInput lists account fields to change; nil leaves a field as is.
type UpdateUserInput struct {
	Name   *string
	Role   *domain.Role
	Active *bool
}

// UserWithAreas pairs an account with its assignment.
type UserWithAreas struct {
	User  domain.User
	Areas []domain.Area
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      deps.UserRepo,
		resets:     deps.PasswordResetRepo,
		registry:   deps.Registry,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		bcryptCost: cfg.BcryptCost,
		resetTTL:   cfg.PasswordResetTTL(),
		logger:     logger,
		now:        time.Now,
	}
}

// Login authenticates by email and password and issues an access token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			auth.CompareDecoy(password)
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, err
	}
	if !user.Active {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("account inactive")
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		s.logger.Warn("login failed", zap.String("user_id", user.ID))
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	s.logger.Info("user logged in", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, token, exp, nil
}

// Authenticate rebuilds the actor behind userID from storage. Agents get
// their current area assignment; a registry failure yields no areas.
func (s *AuthService) Authenticate(ctx context.Context, userID string) (*domain.Actor, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewUnauthorized("user not found")
		}
		return nil, err
	}
	if !user.Active {
		return nil, apperrors.NewUnauthorized("account inactive")
	}
	if !user.Role.Valid() {
		return nil, apperrors.NewUnauthorized("unknown role")
	}

	actor := &domain.Actor{
		ID:            user.ID,
		DisplayName:   user.Name,
		Email:         user.Email,
		Role:          user.Role,
		AssignedAreas: domain.NewAreaSet(),
	}
	if user.Role == domain.RoleAgent && s.registry != nil {
		areas, err := s.registry.AreasFor(ctx, user.ID)
		if err != nil {
			s.logger.Error("resolve agent areas", zap.String("user_id", user.ID), zap.Error(err))
		}
		actor.AssignedAreas = areas
	}
	return actor, nil
}

// CreateUser registers an account with its initial areas. Supervisor only.
func (s *AuthService) CreateUser(ctx context.Context, actor *domain.Actor, input CreateUserInput) (*UserWithAreas, error) {
	if !actor.IsSupervisor() {
		return nil, apperrors.NewAuthorizationDenied("only supervisors create users", nil)
	}
	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if name == "" || email == "" {
		return nil, apperrors.NewValidationError("name and email are required", nil)
	}
	if !input.Role.Valid() {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": string(input.Role)})
	}
	if err := auth.ValidatePassword(input.Password); err != nil {
		return nil, passwordPolicyError(err)
	}
	areas, err := parseAreas(input.Areas)
	if err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	now := s.now()
	user := &domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         input.Role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	assigned := []domain.Area{}
	if len(areas) > 0 && s.registry != nil {
		assigned, err = s.registry.AssignAreas(ctx, actor, user.ID, input.Areas)
		if err != nil {
			return nil, err
		}
	}
	s.logger.Info("user created", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return &UserWithAreas{User: *user, Areas: assigned}, nil
}

// ListUsers returns every account with its areas. Supervisor only.
func (s *AuthService) ListUsers(ctx context.Context, actor *domain.Actor) ([]UserWithAreas, error) {
	if !actor.IsSupervisor() {
		return nil, apperrors.NewAuthorizationDenied("only supervisors list users", nil)
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]UserWithAreas, 0, len(users))
	for _, user := range users {
		entry := UserWithAreas{User: user, Areas: []domain.Area{}}
		if user.Role == domain.RoleAgent && s.registry != nil {
			areas, err := s.registry.AreasFor(ctx, user.ID)
			if err != nil {
				return nil, err
			}
			entry.Areas = areas.Slice()
		}
		result = append(result, entry)
	}
	return result, nil
}

// UpdateUser edits the name, role or active flag of an account. Supervisor
// only. Deactivated accounts fail authentication from their next request,
// since actors are rebuilt from storage every time.
func (s *AuthService) UpdateUser(ctx context.Context, actor *domain.Actor, userID string, input UpdateUserInput) (*UserWithAreas, error) {
	if !actor.IsSupervisor() {
		return nil, apperrors.NewAuthorizationDenied("only supervisors edit users", nil)
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": userID})
		}
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.NewValidationError("name is required", nil)
		}
		user.Name = name
	}
	if input.Role != nil {
		if !input.Role.Valid() {
			return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": string(*input.Role)})
		}
		if user.ID == actor.ID && *input.Role != domain.RoleSupervisor {
			return nil, apperrors.NewValidationError("supervisors cannot demote themselves", nil)
		}
		user.Role = *input.Role
	}
	if input.Active != nil {
		if user.ID == actor.ID && !*input.Active {
			return nil, apperrors.NewValidationError("supervisors cannot deactivate themselves", nil)
		}
		user.Active = *input.Active
	}

	user.UpdatedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": userID})
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	s.logger.Info("user updated",
		zap.String("user_id", user.ID),
		zap.String("by", actor.ID),
		zap.String("role", string(user.Role)),
		zap.Bool("active", user.Active),
	)

	entry := &UserWithAreas{User: *user, Areas: []domain.Area{}}
	if user.Role == domain.RoleAgent && s.registry != nil {
		areas, err := s.registry.AreasFor(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		entry.Areas = areas.Slice()
	}
	return entry, nil
}

// RequestPasswordReset issues a single-use token. Unknown emails yield a
// nil token and no error so callers cannot tell which emails have accounts.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (*domain.PasswordResetToken, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	now := s.now()
	token := &domain.PasswordResetToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: now.Add(s.resetTTL),
		CreatedAt: now,
	}
	if err := s.resets.Create(ctx, token); err != nil {
		return nil, err
	}
	s.logger.Info("password reset requested", zap.String("user_id", user.ID))
	return token, nil
}

// ConfirmPasswordReset validates the reset token and updates password.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, tokenStr, newPassword string) error {
	if err := auth.ValidatePassword(newPassword); err != nil {
		return passwordPolicyError(err)
	}
	token, err := s.resets.GetByToken(ctx, tokenStr)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewValidationError("token expired or used", nil)
		}
		return err
	}
	if token.UsedAt != nil || s.now().After(token.ExpiresAt) {
		return apperrors.NewValidationError("token expired or used", nil)
	}

	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	if err := s.resets.MarkUsed(ctx, token.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewValidationError("token expired or used", nil)
		}
		return err
	}
	user.PasswordHash = hash
	user.UpdatedAt = s.now()
	return s.users.Update(ctx, user)
}

// ChangePassword verifies current password before updating to new hash.
func (s *AuthService) ChangePassword(ctx context.Context, actor *domain.Actor, currentPassword, newPassword string) error {
	if actor == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := auth.ValidatePassword(newPassword); err != nil {
		return passwordPolicyError(err)
	}
	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return err
	}
	if err := auth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		return apperrors.NewUnauthorized("invalid credentials")
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.UpdatedAt = s.now()
	return s.users.Update(ctx, user)
}

func passwordPolicyError(err error) error {
	return apperrors.NewValidationError(err.Error(), map[string]any{"min_length": auth.MinPasswordLength})
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
