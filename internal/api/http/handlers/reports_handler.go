package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kozzy/chamados/internal/api/dto"
	"github.com/kozzy/chamados/internal/domain"
	"github.com/kozzy/chamados/internal/report"
	"github.com/kozzy/chamados/internal/service"
	apperrors "github.com/kozzy/chamados/pkg/errorutil"
)

// ReportsHandler serves the ticket report.
type ReportsHandler struct {
	service *service.TicketService
	binder  *Binder
}

// NewReportsHandler constructs handler.
func NewReportsHandler(ticketService *service.TicketService, binder *Binder) *ReportsHandler {
	return &ReportsHandler{service: ticketService, binder: binder}
}

// TicketReport GET /api/reports/tickets.
func (h *ReportsHandler) TicketReport(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var query dto.ReportQuery
	if err := h.binder.Query(c, &query); err != nil {
		return err
	}

	engine := h.service.Reports()
	from, err := engine.ParseDate(query.DateFrom)
	if err != nil {
		return apperrors.NewValidationError("invalid date_from", map[string]any{"date_from": query.DateFrom})
	}
	to, err := engine.ParseDate(query.DateTo)
	if err != nil {
		return apperrors.NewValidationError("invalid date_to", map[string]any{"date_to": query.DateTo})
	}

	filter := report.Filter{
		DateFrom:          from,
		DateTo:            to,
		AgentNameContains: query.Agent,
		ClientContains:    query.Client,
	}
	if query.Status != "" {
		status := domain.TicketStatus(query.Status)
		filter.Status = &status
	}
	if query.Priority != "" {
		priority := domain.TicketPriority(query.Priority)
		filter.Priority = &priority
	}

	rows, summary, err := h.service.Report(c.UserContext(), actor, filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ReportResponse{
		Rows:    dto.NewTicketResponses(rows),
		Summary: summary,
	}})
}
