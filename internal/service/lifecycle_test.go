package service

import (
	"testing"
	"time"

	"github.com/kozzy/chamados/internal/domain"
	apperrors "github.com/kozzy/chamados/pkg/errorutil"
)

func TestStrictTransitionTable(t *testing.T) {
	l := NewLifecycle(true)
	open, progress, closed := domain.TicketStatusOpen, domain.TicketStatusInProgress, domain.TicketStatusClosed

	cases := []struct {
		from, to domain.TicketStatus
		ok       bool
	}{
		{open, progress, true},
		{open, closed, true},
		{progress, closed, true},
		{progress, open, true},
		{closed, progress, true},
		{closed, open, false},
		{open, open, true},
		{closed, closed, true},
	}
	for _, tc := range cases {
		err := l.Check(tc.from, tc.to)
		if tc.ok && err != nil {
			t.Errorf("%s -> %s: unexpected error %v", tc.from, tc.to, err)
		}
		if !tc.ok && !apperrors.HasCode(err, apperrors.CodeInvalidTransition) {
			t.Errorf("%s -> %s: expected InvalidTransition, got %v", tc.from, tc.to, err)
		}
	}
}

func TestRelaxedAllowsAnyKnownStatus(t *testing.T) {
	l := NewLifecycle(false)
	for _, from := range []domain.TicketStatus{domain.TicketStatusOpen, domain.TicketStatusInProgress, domain.TicketStatusClosed} {
		for _, to := range []domain.TicketStatus{domain.TicketStatusOpen, domain.TicketStatusInProgress, domain.TicketStatusClosed} {
			if err := l.Check(from, to); err != nil {
				t.Errorf("%s -> %s: %v", from, to, err)
			}
		}
	}
	if err := l.Check(domain.TicketStatusOpen, "ARCHIVED"); !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestApplyMaintainsClosedAt(t *testing.T) {
	l := NewLifecycle(false)
	now := time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)
	ticket := &domain.Ticket{Status: domain.TicketStatusOpen}

	if err := l.Apply(ticket, domain.TicketStatusClosed, now); err != nil {
		t.Fatal(err)
	}
	if ticket.ClosedAt == nil || !ticket.ClosedAt.Equal(now) {
		t.Fatalf("ClosedAt = %v", ticket.ClosedAt)
	}
	if err := l.Apply(ticket, domain.TicketStatusClosed, now.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	if !ticket.ClosedAt.Equal(now) {
		t.Fatal("closing twice must keep the first ClosedAt")
	}
	if err := l.Apply(ticket, domain.TicketStatusInProgress, now); err != nil {
		t.Fatal(err)
	}
	if ticket.ClosedAt != nil {
		t.Fatal("ClosedAt must be cleared when leaving CLOSED")
	}
}
