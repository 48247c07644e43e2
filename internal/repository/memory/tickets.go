// Package memory provides in-process implementations of the repository
// interfaces. They back the API when no Postgres DSN is configured and serve
// as fakes in tests.
package memory

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/kozzy/chamados/internal/domain"
	"github.com/kozzy/chamados/internal/repository"
)

// DefaultProtocolStart matches the Postgres ticket_protocol_seq start value.
const DefaultProtocolStart = 10000

// TicketStore keeps tickets and their history behind one lock so a
// protocol check and the insert that reserves it cannot interleave.
type TicketStore struct {
	mu         sync.RWMutex
	tickets    map[string]domain.Ticket
	byProtocol map[string]string
	history    map[string][]domain.TicketHistory
	next       int64
}

// NewTicketStore builds an empty store whose generated protocols begin at start.
func NewTicketStore(start int64) *TicketStore {
	if start <= 0 {
		start = DefaultProtocolStart
	}
	return &TicketStore{
		tickets:    make(map[string]domain.Ticket),
		byProtocol: make(map[string]string),
		history:    make(map[string][]domain.TicketHistory),
		next:       start,
	}
}

var (
	_ repository.TicketRepository        = (*TicketStore)(nil)
	_ repository.TicketHistoryRepository = (*historyView)(nil)
)

func (s *TicketStore) Create(_ context.Context, ticket *domain.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ticket.Protocol == "" {
		for {
			candidate := strconv.FormatInt(s.next, 10)
			s.next++
			if _, taken := s.byProtocol[candidate]; !taken {
				ticket.Protocol = candidate
				break
			}
		}
	} else if _, taken := s.byProtocol[ticket.Protocol]; taken {
		return repository.ErrDuplicateProtocol
	}

	ticket.Version = 1
	s.tickets[ticket.ID] = *ticket
	s.byProtocol[ticket.Protocol] = ticket.ID
	return nil
}

func (s *TicketStore) Update(_ context.Context, ticket *domain.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.tickets[ticket.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if current.Version != ticket.Version {
		return repository.ErrStaleTicket
	}
	updated := *ticket
	updated.Protocol = current.Protocol
	updated.OpenedAt = current.OpenedAt
	updated.CreatedByID = current.CreatedByID
	updated.Version = current.Version + 1
	s.tickets[ticket.ID] = updated
	ticket.Version = updated.Version
	return nil
}

func (s *TicketStore) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ticket, ok := s.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &ticket, nil
}

func (s *TicketStore) GetByProtocol(_ context.Context, protocol string) (*domain.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byProtocol[protocol]
	if !ok {
		return nil, repository.ErrNotFound
	}
	ticket := s.tickets[id]
	return &ticket, nil
}

func (s *TicketStore) IsTaken(_ context.Context, protocol string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, taken := s.byProtocol[protocol]
	return taken, nil
}

func (s *TicketStore) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var allowed domain.AreaSet
	if filter.Areas != nil {
		allowed = domain.NewAreaSet(filter.Areas...)
	}

	result := make([]domain.Ticket, 0, len(s.tickets))
	for _, ticket := range s.tickets {
		if filter.Areas != nil && !allowed.Contains(ticket.Area) {
			continue
		}
		result = append(result, ticket)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].OpenedAt.Equal(result[j].OpenedAt) {
			return result[i].OpenedAt.After(result[j].OpenedAt)
		}
		return protocolAfter(result[i].Protocol, result[j].Protocol)
	})
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (s *TicketStore) DeleteAll(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := int64(len(s.tickets))
	s.tickets = make(map[string]domain.Ticket)
	s.byProtocol = make(map[string]string)
	s.history = make(map[string][]domain.TicketHistory)
	return n, nil
}

// Count returns the number of stored tickets.
func (s *TicketStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tickets)
}

// History exposes the audit trail kept alongside the tickets.
func (s *TicketStore) History() repository.TicketHistoryRepository {
	return &historyView{store: s}
}

type historyView struct {
	store *TicketStore
}

func (h *historyView) Create(_ context.Context, entry *domain.TicketHistory) error {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()

	h.store.history[entry.TicketID] = append(h.store.history[entry.TicketID], *entry)
	return nil
}

func (h *historyView) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketHistory, error) {
	h.store.mu.RLock()
	defer h.store.mu.RUnlock()

	entries := h.store.history[ticketID]
	out := make([]domain.TicketHistory, len(entries))
	copy(out, entries)
	return out, nil
}

// protocolAfter compares digit strings numerically; same ordering as the
// SQL store's length(protocol), protocol.
func protocolAfter(a, b string) bool {
	if len(a) != len(b) {
		return len(a) > len(b)
	}
	return a > b
}
