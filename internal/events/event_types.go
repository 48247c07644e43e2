package events

import (
	"time"

	"github.com/kozzy/chamados/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketUpdated       EventType = "ticket_updated"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketsPurged       EventType = "tickets_purged"
	EventAreasAssigned       EventType = "areas_assigned"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	ID   string      `json:"id,omitempty"`
	Name string      `json:"name,omitempty"`
	Role domain.Role `json:"role,omitempty"`
}

// ActorFrom projects the signed-in actor onto event metadata.
func ActorFrom(actor *domain.Actor) Actor {
	if actor == nil {
		return Actor{}
	}
	return Actor{ID: actor.ID, Name: actor.DisplayName, Role: actor.Role}
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  string    `json:"ticket_id,omitempty"`
	Protocol  string    `json:"protocol,omitempty"`
	Area      string    `json:"area,omitempty"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Area          domain.Area           `json:"area"`
	Priority      domain.TicketPriority `json:"priority"`
	AssignedAgent string                `json:"assigned_agent,omitempty"`
}

// TicketUpdatedPayload lists the fields an update touched.
type TicketUpdatedPayload struct {
	Changes []domain.TicketChangeType `json:"changes"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketsPurgedPayload payload.
type TicketsPurgedPayload struct {
	Deleted int64 `json:"deleted"`
}

// AreasAssignedPayload payload.
type AreasAssignedPayload struct {
	UserID string        `json:"user_id"`
	Areas  []domain.Area `json:"areas"`
}
