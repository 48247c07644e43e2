package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kozzy/chamados/internal/domain"
	"github.com/kozzy/chamados/internal/events"
	"github.com/kozzy/chamados/internal/policy"
	"github.com/kozzy/chamados/internal/report"
	"github.com/kozzy/chamados/internal/repository"
	apperrors "github.com/kozzy/chamados/pkg/errorutil"
)

var protocolPattern = regexp.MustCompile(`^[0-9]{1,20}$`)

// patchAttempts bounds how often a patch is re-decided after losing a race.
const patchAttempts = 3

// TicketService coordinates ticket workflows. Every read and write runs
// through the policy package against a freshly loaded ticket.
type TicketService struct {
	tickets    repository.TicketRepository
	history    repository.TicketHistoryRepository
	users      repository.UserRepository
	lifecycle  Lifecycle
	reports    *report.Engine
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	HistoryRepo repository.TicketHistoryRepository
	UserRepo    repository.UserRepository
	Lifecycle   Lifecycle
	Reports     *report.Engine
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Protocol        string
	Area            string
	Priority        domain.TicketPriority
	ClientType      domain.ClientType
	ClientLabel     string
	AssignedAgentID string
	Description     string
	OpenedAt        *time.Time
}

// TicketPatch lists the fields to change; nil leaves a field untouched.
type TicketPatch struct {
	Protocol        *string
	Area            *string
	Status          *domain.TicketStatus
	Priority        *domain.TicketPriority
	ClientType      *domain.ClientType
	ClientLabel     *string
	AssignedAgentID *string
	Description     *string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	reports := deps.Reports
	if reports == nil {
		reports = report.NewEngine(time.UTC)
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		history:    deps.HistoryRepo,
		users:      deps.UserRepo,
		lifecycle:  deps.Lifecycle,
		reports:    reports,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// Create registers a new ticket. The protocol is reserved by the store in
// the same step that inserts the ticket.
func (s *TicketService) Create(ctx context.Context, actor *domain.Actor, input TicketCreateInput) (*domain.Ticket, error) {
	area, err := domain.ParseArea(input.Area)
	if err != nil {
		return nil, apperrors.NewInvalidArea(input.Area)
	}

	protocol := strings.TrimSpace(input.Protocol)
	if protocol != "" && !protocolPattern.MatchString(protocol) {
		return nil, apperrors.NewValidationError("protocol must contain 1 to 20 digits", map[string]any{"protocol": protocol})
	}

	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	if !priority.Valid() {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": string(priority)})
	}
	if !input.ClientType.Valid() {
		return nil, apperrors.NewValidationError("unknown client type", map[string]any{"client_type": string(input.ClientType)})
	}

	assigneeID := strings.TrimSpace(input.AssignedAgentID)
	if assigneeID == "" && actor.IsAgent() {
		assigneeID = actor.ID
	}
	if !policy.CanCreate(actor, area, assigneeID) {
		s.logDenied(actor, "create", "", area)
		return nil, apperrors.NewAuthorizationDenied("not allowed to open tickets in this area", map[string]any{"area": string(area)})
	}

	assigneeName := ""
	if assigneeID != "" {
		if assigneeID == actor.ID {
			assigneeName = actor.DisplayName
		} else {
			assignee, err := s.lookupAssignee(ctx, assigneeID)
			if err != nil {
				return nil, err
			}
			assigneeName = assignee.Name
		}
	}

	now := s.now()
	openedAt := now
	if input.OpenedAt != nil && !input.OpenedAt.IsZero() {
		openedAt = *input.OpenedAt
	}

	ticket := &domain.Ticket{
		ID:                uuid.NewString(),
		Protocol:          protocol,
		Area:              area,
		Status:            domain.TicketStatusOpen,
		Priority:          priority,
		ClientType:        input.ClientType,
		ClientLabel:       strings.TrimSpace(input.ClientLabel),
		AssignedAgentID:   assigneeID,
		AssignedAgentName: assigneeName,
		Description:       strings.TrimSpace(input.Description),
		CreatedByID:       actor.ID,
		OpenedAt:          openedAt,
		LastModifiedAt:    now,
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		if errors.Is(err, repository.ErrDuplicateProtocol) {
			return nil, apperrors.NewDuplicateProtocol(protocol)
		}
		return nil, fmt.Errorf("create ticket: %w", err)
	}

	s.logger.Info("ticket created",
		zap.String("ticket_id", ticket.ID),
		zap.String("protocol", ticket.Protocol),
		zap.String("area", string(ticket.Area)),
		zap.String("actor_id", actor.ID),
	)
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Protocol: ticket.Protocol,
		Area:     string(ticket.Area),
		Actor:    events.ActorFrom(actor),
		Payload: events.TicketCreatedPayload{
			Area:          ticket.Area,
			Priority:      ticket.Priority,
			AssignedAgent: ticket.AssignedAgentName,
		},
	})
	return ticket, nil
}

// Update replaces the editable fields of the stored ticket with those of
// ticket. It is the full-record form of Patch.
func (s *TicketService) Update(ctx context.Context, actor *domain.Actor, ticket domain.Ticket) (*domain.Ticket, error) {
	area := string(ticket.Area)
	patch := TicketPatch{
		Area:            &area,
		Status:          &ticket.Status,
		Priority:        &ticket.Priority,
		ClientType:      &ticket.ClientType,
		ClientLabel:     &ticket.ClientLabel,
		AssignedAgentID: &ticket.AssignedAgentID,
		Description:     &ticket.Description,
	}
	if ticket.Protocol != "" {
		patch.Protocol = &ticket.Protocol
	}
	return s.Patch(ctx, actor, ticket.ID, patch)
}

type fieldChange struct {
	kind     domain.TicketChangeType
	oldValue map[string]any
	newValue map[string]any
}

// Patch applies a partial update. Authorization is decided on the stored
// ticket before any field is looked at; a rejected patch changes nothing.
// The write only lands on the version that was authorized: when the ticket
// changed in between, the patch is decided again on the fresh state.
func (s *TicketService) Patch(ctx context.Context, actor *domain.Actor, id string, patch TicketPatch) (*domain.Ticket, error) {
	for attempt := 0; attempt < patchAttempts; attempt++ {
		ticket, err := s.patchOnce(ctx, actor, id, patch)
		if !errors.Is(err, repository.ErrStaleTicket) {
			return ticket, err
		}
		s.logger.Info("ticket changed during update, retrying",
			zap.String("ticket_id", id),
			zap.String("actor_id", actor.ID),
			zap.Int("attempt", attempt+1),
		)
	}
	return nil, apperrors.NewConflict("ticket is being changed by someone else, try again", map[string]any{"id": id})
}

func (s *TicketService) patchOnce(ctx context.Context, actor *domain.Actor, id string, patch TicketPatch) (*domain.Ticket, error) {
	stored, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanEdit(actor, stored) {
		s.logDenied(actor, "edit", stored.Protocol, stored.Area)
		return nil, apperrors.NewAuthorizationDenied("not allowed to edit this ticket", map[string]any{"protocol": stored.Protocol})
	}

	updated := *stored
	var changes []fieldChange

	if patch.Protocol != nil && strings.TrimSpace(*patch.Protocol) != stored.Protocol {
		return nil, apperrors.NewValidationError("protocol cannot be changed", map[string]any{"protocol": stored.Protocol})
	}

	if patch.Area != nil {
		area, err := domain.ParseArea(*patch.Area)
		if err != nil {
			return nil, apperrors.NewInvalidArea(*patch.Area)
		}
		if area != stored.Area {
			if !actor.IsSupervisor() {
				return nil, apperrors.NewAuthorizationDenied("only supervisors move tickets between areas", nil)
			}
			updated.Area = area
			changes = append(changes, fieldChange{
				kind:     domain.ChangeTypeArea,
				oldValue: map[string]any{"area": stored.Area},
				newValue: map[string]any{"area": area},
			})
		}
	}

	if patch.AssignedAgentID != nil {
		assigneeID := strings.TrimSpace(*patch.AssignedAgentID)
		if assigneeID != stored.AssignedAgentID {
			if !actor.IsSupervisor() {
				return nil, apperrors.NewAuthorizationDenied("only supervisors reassign tickets", nil)
			}
			updated.AssignedAgentID = assigneeID
			updated.AssignedAgentName = ""
			if assigneeID != "" {
				assignee, err := s.lookupAssignee(ctx, assigneeID)
				if err != nil {
					return nil, err
				}
				updated.AssignedAgentName = assignee.Name
			}
			changes = append(changes, fieldChange{
				kind:     domain.ChangeTypeAssignee,
				oldValue: map[string]any{"agent_id": stored.AssignedAgentID, "agent_name": stored.AssignedAgentName},
				newValue: map[string]any{"agent_id": updated.AssignedAgentID, "agent_name": updated.AssignedAgentName},
			})
		}
	}

	if patch.Priority != nil && *patch.Priority != stored.Priority {
		if !patch.Priority.Valid() {
			return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": string(*patch.Priority)})
		}
		updated.Priority = *patch.Priority
		changes = append(changes, fieldChange{
			kind:     domain.ChangeTypePriority,
			oldValue: map[string]any{"priority": stored.Priority},
			newValue: map[string]any{"priority": updated.Priority},
		})
	}

	details := map[string]any{}
	previous := map[string]any{}
	if patch.ClientType != nil && *patch.ClientType != stored.ClientType {
		if !patch.ClientType.Valid() {
			return nil, apperrors.NewValidationError("unknown client type", map[string]any{"client_type": string(*patch.ClientType)})
		}
		updated.ClientType = *patch.ClientType
		previous["client_type"], details["client_type"] = stored.ClientType, updated.ClientType
	}
	if patch.ClientLabel != nil && strings.TrimSpace(*patch.ClientLabel) != stored.ClientLabel {
		updated.ClientLabel = strings.TrimSpace(*patch.ClientLabel)
		previous["client_label"], details["client_label"] = stored.ClientLabel, updated.ClientLabel
	}
	if patch.Description != nil && strings.TrimSpace(*patch.Description) != stored.Description {
		updated.Description = strings.TrimSpace(*patch.Description)
		previous["description"], details["description"] = stored.Description, updated.Description
	}
	if len(details) > 0 {
		changes = append(changes, fieldChange{kind: domain.ChangeTypeDetails, oldValue: previous, newValue: details})
	}

	now := s.now()
	if patch.Status != nil {
		if err := s.lifecycle.Apply(&updated, *patch.Status, now); err != nil {
			return nil, err
		}
		if updated.Status != stored.Status {
			changes = append(changes, fieldChange{
				kind:     domain.ChangeTypeStatus,
				oldValue: map[string]any{"status": stored.Status},
				newValue: map[string]any{"status": updated.Status},
			})
		}
	}

	if len(changes) == 0 {
		return stored, nil
	}

	updated.LastModifiedAt = now
	if err := s.tickets.Update(ctx, &updated); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"id": id})
		}
		if errors.Is(err, repository.ErrStaleTicket) {
			return nil, err
		}
		return nil, fmt.Errorf("update ticket: %w", err)
	}

	kinds := make([]domain.TicketChangeType, 0, len(changes))
	for _, change := range changes {
		kinds = append(kinds, change.kind)
		if err := s.recordChange(ctx, actor, updated.ID, change, now); err != nil {
			s.logger.Error("record ticket history", zap.String("ticket_id", updated.ID), zap.Error(err))
		}
	}

	s.logger.Info("ticket updated",
		zap.String("ticket_id", updated.ID),
		zap.String("protocol", updated.Protocol),
		zap.String("actor_id", actor.ID),
		zap.Int("changes", len(changes)),
	)
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketUpdated,
		TicketID: updated.ID,
		Protocol: updated.Protocol,
		Area:     string(updated.Area),
		Actor:    events.ActorFrom(actor),
		Payload:  events.TicketUpdatedPayload{Changes: kinds},
	})
	if updated.Status != stored.Status {
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketStatusChanged,
			TicketID: updated.ID,
			Protocol: updated.Protocol,
			Area:     string(updated.Area),
			Actor:    events.ActorFrom(actor),
			Payload: events.TicketStatusChangedPayload{
				OldStatus: stored.Status,
				NewStatus: updated.Status,
			},
		})
	}
	return &updated, nil
}

// List returns the tickets actor may view, newest first.
func (s *TicketService) List(ctx context.Context, actor *domain.Actor) ([]domain.Ticket, error) {
	filter := repository.TicketFilter{}
	switch {
	case actor.IsSupervisor():
	case actor.IsAgent():
		filter.Areas = actor.AssignedAreas.Slice()
	default:
		return []domain.Ticket{}, nil
	}
	tickets, err := s.tickets.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	return policy.Visible(actor, tickets), nil
}

// Get returns a single viewable ticket.
func (s *TicketService) Get(ctx context.Context, actor *domain.Actor, id string) (*domain.Ticket, error) {
	ticket, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.authorizeView(actor, ticket)
}

// FindByProtocol looks a ticket up by its protocol.
func (s *TicketService) FindByProtocol(ctx context.Context, actor *domain.Actor, protocol string) (*domain.Ticket, error) {
	protocol = strings.TrimSpace(protocol)
	ticket, err := s.tickets.GetByProtocol(ctx, protocol)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"protocol": protocol})
		}
		return nil, err
	}
	return s.authorizeView(actor, ticket)
}

// IsProtocolTaken is an advisory availability check. Create remains the
// authority on uniqueness.
func (s *TicketService) IsProtocolTaken(ctx context.Context, protocol string) (bool, error) {
	protocol = strings.TrimSpace(protocol)
	if !protocolPattern.MatchString(protocol) {
		return false, apperrors.NewValidationError("protocol must contain 1 to 20 digits", map[string]any{"protocol": protocol})
	}
	return s.tickets.IsTaken(ctx, protocol)
}

// History returns the audit trail of a viewable ticket.
func (s *TicketService) History(ctx context.Context, actor *domain.Actor, id string) ([]domain.TicketHistory, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	if s.history == nil {
		return []domain.TicketHistory{}, nil
	}
	return s.history.ListByTicket(ctx, id)
}

// Report filters the tickets actor may view and summarizes the result.
func (s *TicketService) Report(ctx context.Context, actor *domain.Actor, filter report.Filter) ([]domain.Ticket, report.Summary, error) {
	if err := filter.Validate(); err != nil {
		return nil, report.Summary{}, apperrors.NewValidationError(err.Error(), nil)
	}
	visible, err := s.List(ctx, actor)
	if err != nil {
		return nil, report.Summary{}, err
	}
	result := s.reports.Query(visible, filter)
	return result, report.Summarize(result), nil
}

// Reports exposes the engine so transports parse dates in its location.
func (s *TicketService) Reports() *report.Engine {
	return s.reports
}

// Purge deletes every ticket and its history. Supervisor only.
func (s *TicketService) Purge(ctx context.Context, actor *domain.Actor) (int64, error) {
	if !actor.IsSupervisor() {
		s.logDenied(actor, "purge", "", "")
		return 0, apperrors.NewAuthorizationDenied("only supervisors purge tickets", nil)
	}
	deleted, err := s.tickets.DeleteAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("purge tickets: %w", err)
	}
	s.logger.Warn("tickets purged", zap.String("actor_id", actor.ID), zap.Int64("deleted", deleted))
	s.publishEvent(ctx, events.Event{
		Type:    events.EventTicketsPurged,
		Actor:   events.ActorFrom(actor),
		Payload: events.TicketsPurgedPayload{Deleted: deleted},
	})
	return deleted, nil
}

func (s *TicketService) load(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"id": id})
		}
		return nil, err
	}
	return ticket, nil
}

func (s *TicketService) authorizeView(actor *domain.Actor, ticket *domain.Ticket) (*domain.Ticket, error) {
	if !policy.CanView(actor, ticket) {
		s.logDenied(actor, "view", ticket.Protocol, ticket.Area)
		return nil, apperrors.NewAuthorizationDenied("not allowed to view this ticket", map[string]any{"protocol": ticket.Protocol})
	}
	return ticket, nil
}

func (s *TicketService) lookupAssignee(ctx context.Context, id string) (*domain.User, error) {
	if s.users == nil {
		return nil, apperrors.NewValidationError("assignee lookup unavailable", nil)
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewValidationError("unknown assignee", map[string]any{"assigned_agent_id": id})
		}
		return nil, err
	}
	if !user.Active {
		return nil, apperrors.NewValidationError("assignee is inactive", map[string]any{"assigned_agent_id": id})
	}
	return user, nil
}

func (s *TicketService) logDenied(actor *domain.Actor, action, protocol string, area domain.Area) {
	fields := []zap.Field{zap.String("action", action)}
	if actor != nil {
		fields = append(fields, zap.String("actor_id", actor.ID), zap.String("role", string(actor.Role)))
	}
	if protocol != "" {
		fields = append(fields, zap.String("protocol", protocol))
	}
	if area != "" {
		fields = append(fields, zap.String("area", string(area)))
	}
	s.logger.Warn("authorization denied", fields...)
}

func (s *TicketService) recordChange(ctx context.Context, actor *domain.Actor, ticketID string, change fieldChange, at time.Time) error {
	if s.history == nil {
		return nil
	}
	entry := &domain.TicketHistory{
		ID:         uuid.NewString(),
		TicketID:   ticketID,
		ChangeType: change.kind,
		OldValue:   change.oldValue,
		NewValue:   change.newValue,
		CreatedAt:  at,
	}
	if actor != nil {
		entry.ChangedByID = actor.ID
	}
	return s.history.Create(ctx, entry)
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
