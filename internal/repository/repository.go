package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kozzy/chamados/internal/domain"
)

var (
	// ErrNotFound is returned when a lookup misses.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateProtocol is returned when a ticket protocol is already reserved.
	ErrDuplicateProtocol = errors.New("protocol already reserved")
	// ErrDuplicateEmail is returned when a user email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrStaleTicket is returned when a ticket changed after it was read.
	ErrStaleTicket = errors.New("ticket modified concurrently")
)

const uniqueViolation = "23505"

// TicketFilter narrows ticket listings. A nil Areas slice means no area
// restriction; a non-nil empty slice matches nothing.
type TicketFilter struct {
	Areas []domain.Area
	Limit int
}

// ProtocolGuard answers advisory uniqueness questions. The authoritative
// check is the store's Create, which reserves and inserts in one step.
type ProtocolGuard interface {
	IsTaken(ctx context.Context, protocol string) (bool, error)
}

// TicketRepository is the authoritative ticket collection.
type TicketRepository interface {
	ProtocolGuard
	// Create inserts ticket. When ticket.Protocol is empty a fresh numeric
	// protocol is allocated; either way the protocol is reserved atomically
	// with the insert and ErrDuplicateProtocol reports a collision.
	Create(ctx context.Context, ticket *domain.Ticket) error
	// Update stores ticket only if the stored version still equals
	// ticket.Version, otherwise ErrStaleTicket. On success ticket.Version
	// holds the new version.
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByProtocol(ctx context.Context, protocol string) (*domain.Ticket, error)
	// List returns tickets newest first.
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	// DeleteAll purges every ticket and its history.
	DeleteAll(ctx context.Context) (int64, error)
}

// TicketHistoryRepository stores audit entries.
type TicketHistoryRepository interface {
	Create(ctx context.Context, history *domain.TicketHistory) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketHistory, error)
}

// UserRepository handles persistence for accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
}

// AreaRepository stores the areas each agent may operate in.
type AreaRepository interface {
	ListForUser(ctx context.Context, userID string) ([]domain.Area, error)
	ReplaceForUser(ctx context.Context, userID string, areas []domain.Area) error
}

// PasswordResetRepository manages password reset token persistence.
type PasswordResetRepository interface {
	Create(ctx context.Context, token *domain.PasswordResetToken) error
	GetByToken(ctx context.Context, token string) (*domain.PasswordResetToken, error)
	MarkUsed(ctx context.Context, id string) error
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func mapNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func nullable(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
