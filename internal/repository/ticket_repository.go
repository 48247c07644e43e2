package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kozzy/chamados/internal/domain"
)

// protocolAllocationAttempts bounds retries when a generated protocol
// collides with one chosen by hand.
const protocolAllocationAttempts = 5

const ticketColumns = `id, protocol, area, status, priority, client_type, client_label,
               assigned_agent_id, assigned_agent_name, description, created_by_id,
               opened_at, last_modified_at, closed_at, version`

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates the Postgres ticket store.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

// Create relies on the tickets_protocol_key unique index: the protocol is
// reserved by the same INSERT that stores the row, so two concurrent
// creations can never both succeed with one protocol.
func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (id, protocol, area, status, priority, client_type, client_label,
            assigned_agent_id, assigned_agent_name, description, created_by_id,
            opened_at, last_modified_at, closed_at)
        VALUES ($1, COALESCE(NULLIF($2, ''), nextval('ticket_protocol_seq')::text),
            $3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
        RETURNING protocol, version`

	explicit := ticket.Protocol != ""
	for attempt := 0; attempt < protocolAllocationAttempts; attempt++ {
		err := r.pool.QueryRow(ctx, query,
			ticket.ID,
			ticket.Protocol,
			ticket.Area,
			ticket.Status,
			ticket.Priority,
			ticket.ClientType,
			ticket.ClientLabel,
			nullable(ticket.AssignedAgentID),
			ticket.AssignedAgentName,
			ticket.Description,
			nullable(ticket.CreatedByID),
			ticket.OpenedAt,
			ticket.LastModifiedAt,
			ticket.ClosedAt,
		).Scan(&ticket.Protocol, &ticket.Version)
		if err == nil {
			return nil
		}
		if !isUniqueViolation(err) {
			return err
		}
		if explicit {
			return ErrDuplicateProtocol
		}
	}
	return fmt.Errorf("allocate protocol: %w", ErrDuplicateProtocol)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET area=$1, status=$2, priority=$3, client_type=$4, client_label=$5,
            assigned_agent_id=$6, assigned_agent_name=$7, description=$8,
            last_modified_at=$9, closed_at=$10, version = version + 1
        WHERE id=$11 AND version=$12
        RETURNING version`
	err := r.pool.QueryRow(ctx, query,
		ticket.Area,
		ticket.Status,
		ticket.Priority,
		ticket.ClientType,
		ticket.ClientLabel,
		nullable(ticket.AssignedAgentID),
		ticket.AssignedAgentName,
		ticket.Description,
		ticket.LastModifiedAt,
		ticket.ClosedAt,
		ticket.ID,
		ticket.Version,
	).Scan(&ticket.Version)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tickets WHERE id=$1)`, ticket.ID).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return ErrStaleTicket
	}
	return ErrNotFound
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	return r.fetchSingle(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id=$1`, id)
}

func (r *ticketRepository) GetByProtocol(ctx context.Context, protocol string) (*domain.Ticket, error) {
	return r.fetchSingle(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE protocol=$1`, protocol)
}

func (r *ticketRepository) IsTaken(ctx context.Context, protocol string) (bool, error) {
	var taken bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tickets WHERE protocol=$1)`, protocol).Scan(&taken)
	return taken, err
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Ticket, error) {
	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, mapNoRows(err)
	}
	return ticket, nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Areas != nil {
		areas := make([]string, 0, len(filter.Areas))
		for _, area := range filter.Areas {
			areas = append(areas, string(area))
		}
		args = append(args, areas)
		clauses = append(clauses, fmt.Sprintf("area = ANY($%d)", len(args)))
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY opened_at DESC, length(protocol) DESC, protocol DESC`,
		ticketColumns, strings.Join(clauses, " AND "))
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func (r *ticketRepository) DeleteAll(ctx context.Context) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if _, err := tx.Exec(ctx, `DELETE FROM ticket_history`); err != nil {
		return 0, err
	}
	cmd, err := tx.Exec(ctx, `DELETE FROM tickets`)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var (
		ticket     domain.Ticket
		assignedID *string
		createdBy  *string
	)
	if err := row.Scan(
		&ticket.ID,
		&ticket.Protocol,
		&ticket.Area,
		&ticket.Status,
		&ticket.Priority,
		&ticket.ClientType,
		&ticket.ClientLabel,
		&assignedID,
		&ticket.AssignedAgentName,
		&ticket.Description,
		&createdBy,
		&ticket.OpenedAt,
		&ticket.LastModifiedAt,
		&ticket.ClosedAt,
		&ticket.Version,
	); err != nil {
		return nil, err
	}
	ticket.AssignedAgentID = deref(assignedID)
	ticket.CreatedByID = deref(createdBy)
	return &ticket, nil
}
