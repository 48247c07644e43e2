// Package policy decides which actor may see or mutate which ticket.
//
// Every function here is pure: no I/O, no caching, no locking. Callers
// evaluate on each request because an agent's area assignment or a ticket's
// owner may change between requests.
package policy

import (
	"strings"

	"github.com/kozzy/chamados/internal/domain"
)

// CanView reports whether actor may see ticket. Supervisors see everything;
// agents see tickets of their assigned areas only.
func CanView(actor *domain.Actor, ticket *domain.Ticket) bool {
	if actor == nil || ticket == nil {
		return false
	}
	switch actor.Role {
	case domain.RoleSupervisor:
		return true
	case domain.RoleAgent:
		return actor.AssignedAreas.Contains(ticket.Area)
	default:
		return false
	}
}

// CanEdit reports whether actor may mutate ticket. An agent must be able to
// view the ticket and own it; area mismatch wins over ownership.
func CanEdit(actor *domain.Actor, ticket *domain.Ticket) bool {
	if !CanView(actor, ticket) {
		return false
	}
	if actor.IsSupervisor() {
		return true
	}
	return Owns(actor, ticket)
}

// Owns reports whether ticket is assigned to actor. The stable id is
// authoritative; the display name is only compared when either id is missing.
func Owns(actor *domain.Actor, ticket *domain.Ticket) bool {
	if actor == nil || ticket == nil {
		return false
	}
	if actor.ID != "" && ticket.AssignedAgentID != "" {
		return actor.ID == ticket.AssignedAgentID
	}
	name := strings.TrimSpace(actor.DisplayName)
	if name == "" {
		return false
	}
	return strings.EqualFold(name, strings.TrimSpace(ticket.AssignedAgentName))
}

// CanCreate reports whether actor may open a ticket in area assigned to
// assigneeID. Agents open tickets for themselves inside their own areas.
func CanCreate(actor *domain.Actor, area domain.Area, assigneeID string) bool {
	if actor == nil {
		return false
	}
	switch actor.Role {
	case domain.RoleSupervisor:
		return true
	case domain.RoleAgent:
		if !actor.AssignedAreas.Contains(area) {
			return false
		}
		return assigneeID == "" || assigneeID == actor.ID
	default:
		return false
	}
}

// Visible returns the tickets actor may view, preserving input order.
func Visible(actor *domain.Actor, tickets []domain.Ticket) []domain.Ticket {
	out := make([]domain.Ticket, 0, len(tickets))
	for i := range tickets {
		if CanView(actor, &tickets[i]) {
			out = append(out, tickets[i])
		}
	}
	return out
}
