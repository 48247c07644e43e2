package report

import "github.com/kozzy/chamados/internal/domain"

// Summary aggregates a report result for the reporting screen.
type Summary struct {
	Total      int                           `json:"total"`
	ByStatus   map[domain.TicketStatus]int   `json:"by_status"`
	ByPriority map[domain.TicketPriority]int `json:"by_priority"`
	ByArea     map[domain.Area]int           `json:"by_area"`
}

// Summarize counts tickets per status, priority and area.
func Summarize(tickets []domain.Ticket) Summary {
	summary := Summary{
		Total:      len(tickets),
		ByStatus:   make(map[domain.TicketStatus]int),
		ByPriority: make(map[domain.TicketPriority]int),
		ByArea:     make(map[domain.Area]int),
	}
	for _, ticket := range tickets {
		summary.ByStatus[ticket.Status]++
		summary.ByPriority[ticket.Priority]++
		summary.ByArea[ticket.Area]++
	}
	return summary
}
