package dto

import (
	"time"

	"github.com/kozzy/chamados/internal/domain"
	"github.com/kozzy/chamados/internal/report"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Protocol        string                `json:"protocol" validate:"omitempty,numeric,max=20"`
	Area            string                `json:"area" validate:"required"`
	Priority        domain.TicketPriority `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	ClientType      domain.ClientType     `json:"client_type" validate:"omitempty,oneof=COURIER SELLER CUSTOMER INTERNAL SUPERVISOR MANAGER"`
	ClientLabel     string                `json:"client_label" validate:"max=200"`
	AssignedAgentID string                `json:"assigned_agent_id"`
	Description     string                `json:"description" validate:"max=4000"`
	OpenedAt        *time.Time            `json:"opened_at"`
}

// UpdateTicketRequest is a partial update; absent fields stay unchanged.
type UpdateTicketRequest struct {
	Protocol        *string                `json:"protocol"`
	Area            *string                `json:"area"`
	Status          *domain.TicketStatus   `json:"status"`
	Priority        *domain.TicketPriority `json:"priority"`
	ClientType      *domain.ClientType     `json:"client_type"`
	ClientLabel     *string                `json:"client_label" validate:"omitempty,max=200"`
	AssignedAgentID *string                `json:"assigned_agent_id"`
	Description     *string                `json:"description" validate:"omitempty,max=4000"`
}

// TicketResponse full ticket projection.
type TicketResponse struct {
	ID                string                `json:"id"`
	Protocol          string                `json:"protocol"`
	Area              domain.Area           `json:"area"`
	AreaLabel         string                `json:"area_label"`
	Status            domain.TicketStatus   `json:"status"`
	Priority          domain.TicketPriority `json:"priority"`
	ClientType        domain.ClientType     `json:"client_type,omitempty"`
	ClientLabel       string                `json:"client_label"`
	AssignedAgentID   string                `json:"assigned_agent_id,omitempty"`
	AssignedAgentName string                `json:"assigned_agent_name"`
	Description       string                `json:"description"`
	OpenedAt          time.Time             `json:"opened_at"`
	LastModifiedAt    time.Time             `json:"last_modified_at"`
	ClosedAt          *time.Time            `json:"closed_at,omitempty"`
	Version           int64                 `json:"version"`
}

// NewTicketResponse projects a ticket.
func NewTicketResponse(ticket *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:                ticket.ID,
		Protocol:          ticket.Protocol,
		Area:              ticket.Area,
		AreaLabel:         ticket.Area.Label(),
		Status:            ticket.Status,
		Priority:          ticket.Priority,
		ClientType:        ticket.ClientType,
		ClientLabel:       ticket.ClientLabel,
		AssignedAgentID:   ticket.AssignedAgentID,
		AssignedAgentName: ticket.AssignedAgentName,
		Description:       ticket.Description,
		OpenedAt:          ticket.OpenedAt,
		LastModifiedAt:    ticket.LastModifiedAt,
		ClosedAt:          ticket.ClosedAt,
		Version:           ticket.Version,
	}
}

// NewTicketResponses projects a list, keeping order.
func NewTicketResponses(tickets []domain.Ticket) []TicketResponse {
	items := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, NewTicketResponse(&tickets[i]))
	}
	return items
}

// TicketHistoryResponse represents history entries.
type TicketHistoryResponse struct {
	ID          string                  `json:"id"`
	ChangeType  domain.TicketChangeType `json:"change_type"`
	ChangedByID string                  `json:"changed_by_id,omitempty"`
	OldValue    map[string]any          `json:"old_value"`
	NewValue    map[string]any          `json:"new_value"`
	CreatedAt   time.Time               `json:"created_at"`
}

// NewTicketHistoryResponses projects history entries.
func NewTicketHistoryResponses(entries []domain.TicketHistory) []TicketHistoryResponse {
	items := make([]TicketHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, TicketHistoryResponse{
			ID:          entry.ID,
			ChangeType:  entry.ChangeType,
			ChangedByID: entry.ChangedByID,
			OldValue:    entry.OldValue,
			NewValue:    entry.NewValue,
			CreatedAt:   entry.CreatedAt,
		})
	}
	return items
}

// ProtocolAvailabilityResponse answers the pre-submit uniqueness check.
type ProtocolAvailabilityResponse struct {
	Protocol  string `json:"protocol"`
	Available bool   `json:"available"`
}

// ReportQuery is bound from the report query string.
type ReportQuery struct {
	DateFrom string `query:"date_from" validate:"required,datetime=2006-01-02"`
	DateTo   string `query:"date_to" validate:"required,datetime=2006-01-02"`
	Status   string `query:"status" validate:"omitempty,oneof=OPEN IN_PROGRESS CLOSED"`
	Priority string `query:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	Agent    string `query:"agent"`
	Client   string `query:"client"`
}

// ReportResponse carries the filtered rows and their totals.
type ReportResponse struct {
	Rows    []TicketResponse `json:"rows"`
	Summary report.Summary   `json:"summary"`
}
