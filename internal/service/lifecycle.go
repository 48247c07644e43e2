package service

import (
	"time"

	"github.com/kozzy/chamados/internal/domain"
	apperrors "github.com/kozzy/chamados/pkg/errorutil"
)

// Lifecycle validates status changes. The relaxed policy lets an authorized
// editor set any known status; the strict policy follows allowedTransitions.
type Lifecycle struct {
	strict bool
}

// NewLifecycle builds the lifecycle policy.
func NewLifecycle(strict bool) Lifecycle {
	return Lifecycle{strict: strict}
}

// Strict reports whether the transition table is enforced.
func (l Lifecycle) Strict() bool {
	return l.strict
}

var allowedTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusOpen:       {domain.TicketStatusInProgress, domain.TicketStatusClosed},
	domain.TicketStatusInProgress: {domain.TicketStatusClosed, domain.TicketStatusOpen},
	domain.TicketStatusClosed:     {domain.TicketStatusInProgress},
}

func isValidTransition(current, next domain.TicketStatus) bool {
	if current == next {
		return true
	}
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// Check validates moving from current to next.
func (l Lifecycle) Check(current, next domain.TicketStatus) error {
	if !next.Valid() {
		return apperrors.NewValidationError("unknown status", map[string]any{"status": string(next)})
	}
	if l.strict && !isValidTransition(current, next) {
		return apperrors.NewInvalidTransition(string(current), string(next))
	}
	return nil
}

// Apply sets the new status on ticket and keeps ClosedAt consistent with it.
func (l Lifecycle) Apply(ticket *domain.Ticket, next domain.TicketStatus, now time.Time) error {
	if err := l.Check(ticket.Status, next); err != nil {
		return err
	}
	if ticket.Status == next {
		return nil
	}
	if next == domain.TicketStatusClosed {
		closedAt := now
		ticket.ClosedAt = &closedAt
	} else {
		ticket.ClosedAt = nil
	}
	ticket.Status = next
	return nil
}
