// Package report filters a ticket set by date range and attributes.
//
// The engine never consults authorization: callers pass the set already
// scoped to the requesting actor.
package report

import (
	"errors"
	"strings"
	"time"

	"github.com/kozzy/chamados/internal/domain"
)

// DateLayout is the calendar-date format accepted for report bounds.
const DateLayout = "2006-01-02"

var (
	ErrMissingDates  = errors.New("date_from and date_to are required")
	ErrInvertedRange = errors.New("date_from must not be after date_to")
)

// Filter selects tickets for a report. Optional fields are ignored when
// nil or blank.
type Filter struct {
	DateFrom          time.Time
	DateTo            time.Time
	Status            *domain.TicketStatus
	Priority          *domain.TicketPriority
	AgentNameContains string
	ClientContains    string
}

// Validate checks the mandatory date range. Times are compared as calendar
// dates, so a same-day range is always valid.
func (f Filter) Validate() error {
	if f.DateFrom.IsZero() || f.DateTo.IsZero() {
		return ErrMissingDates
	}
	if dateOf(f.DateFrom, time.UTC).After(dateOf(f.DateTo, time.UTC)) {
		return ErrInvertedRange
	}
	return nil
}

// Engine evaluates filters using calendar days of a fixed location.
type Engine struct {
	loc *time.Location
}

// NewEngine builds an engine. A nil location means UTC.
func NewEngine(loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{loc: loc}
}

// Location returns the time zone calendar days are computed in.
func (e *Engine) Location() *time.Location {
	return e.loc
}

// ParseDate reads a YYYY-MM-DD value as midnight in the engine location.
func (e *Engine) ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, strings.TrimSpace(value), e.loc)
}

// Query returns the tickets matching f in input order.
//
// Bounds are widened to whole days and the ticket's time of day is dropped,
// so a ticket opened at 23:59 on the last day is still included.
func (e *Engine) Query(tickets []domain.Ticket, f Filter) []domain.Ticket {
	from := dateOf(f.DateFrom, e.loc)
	to := dateOf(f.DateTo, e.loc)
	agent := strings.ToLower(strings.TrimSpace(f.AgentNameContains))
	client := strings.ToLower(strings.TrimSpace(f.ClientContains))

	out := make([]domain.Ticket, 0, len(tickets))
	for _, ticket := range tickets {
		day := dateOf(ticket.OpenedAt.In(e.loc), e.loc)
		if day.Before(from) || day.After(to) {
			continue
		}
		if f.Status != nil && ticket.Status != *f.Status {
			continue
		}
		if f.Priority != nil && ticket.Priority != *f.Priority {
			continue
		}
		if agent != "" && !strings.Contains(strings.ToLower(ticket.AssignedAgentName), agent) {
			continue
		}
		if client != "" && !strings.Contains(strings.ToLower(ticket.ClientLabel), client) {
			continue
		}
		out = append(out, ticket)
	}
	return out
}

// dateOf keeps the wall-clock date of t and returns midnight of it in loc.
func dateOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
