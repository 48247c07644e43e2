package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kozzy/chamados/internal/domain"
	"github.com/kozzy/chamados/internal/events"
	"github.com/kozzy/chamados/internal/repository"
	apperrors "github.com/kozzy/chamados/pkg/errorutil"
)

// AreaRegistry answers which areas exist and which ones an agent works in.
// Lookups are never cached, so a reassignment shows up on the next request.
type AreaRegistry struct {
	areas      repository.AreaRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// NewAreaRegistry constructs the registry.
func NewAreaRegistry(areas repository.AreaRepository, users repository.UserRepository, dispatcher events.Dispatcher, logger *zap.Logger) *AreaRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AreaRegistry{areas: areas, users: users, dispatcher: dispatcher, logger: logger, now: time.Now}
}

// ListAreas returns the fixed vocabulary.
func (r *AreaRegistry) ListAreas() []domain.Area {
	return domain.Areas()
}

// AreasFor returns the areas assigned to actorID. Unknown actors get an
// empty set; storage failures are reported so callers can fail closed.
func (r *AreaRegistry) AreasFor(ctx context.Context, actorID string) (domain.AreaSet, error) {
	if actorID == "" {
		return domain.NewAreaSet(), nil
	}
	areas, err := r.areas.ListForUser(ctx, actorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.NewAreaSet(), nil
		}
		return domain.NewAreaSet(), err
	}
	valid := make([]domain.Area, 0, len(areas))
	for _, area := range areas {
		if area.Valid() {
			valid = append(valid, area)
		}
	}
	return domain.NewAreaSet(valid...), nil
}

// AssignAreas replaces the areas of userID. Supervisor only.
func (r *AreaRegistry) AssignAreas(ctx context.Context, actor *domain.Actor, userID string, raw []string) ([]domain.Area, error) {
	if !actor.IsSupervisor() {
		return nil, apperrors.NewAuthorizationDenied("only supervisors assign areas", nil)
	}
	areas, err := parseAreas(raw)
	if err != nil {
		return nil, err
	}
	if _, err := r.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": userID})
		}
		return nil, err
	}
	if err := r.areas.ReplaceForUser(ctx, userID, areas); err != nil {
		return nil, err
	}

	sorted := domain.NewAreaSet(areas...).Slice()
	r.logger.Info("areas assigned",
		zap.String("user_id", userID),
		zap.String("by", actor.ID),
		zap.Int("count", len(sorted)),
	)
	if r.dispatcher != nil {
		_ = r.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventAreasAssigned,
			Actor:     events.ActorFrom(actor),
			Timestamp: r.now(),
			Payload:   events.AreasAssignedPayload{UserID: userID, Areas: sorted},
		})
	}
	return sorted, nil
}

func parseAreas(raw []string) ([]domain.Area, error) {
	areas := make([]domain.Area, 0, len(raw))
	for _, value := range raw {
		area, err := domain.ParseArea(value)
		if err != nil {
			return nil, apperrors.NewInvalidArea(value)
		}
		areas = append(areas, area)
	}
	return areas, nil
}
