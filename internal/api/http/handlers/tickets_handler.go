package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/kozzy/chamados/internal/api/dto"
	"github.com/kozzy/chamados/internal/service"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
	binder  *Binder
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService, binder *Binder) *TicketsHandler {
	return &TicketsHandler{service: ticketService, binder: binder}
}

// CreateTicket POST /api/tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := h.binder.Body(c, &req); err != nil {
		return err
	}

	ticket, err := h.service.Create(c.UserContext(), actor, service.TicketCreateInput{
		Protocol:        req.Protocol,
		Area:            req.Area,
		Priority:        req.Priority,
		ClientType:      req.ClientType,
		ClientLabel:     req.ClientLabel,
		AssignedAgentID: req.AssignedAgentID,
		Description:     req.Description,
		OpenedAt:        req.OpenedAt,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// ListTickets GET /api/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	tickets, err := h.service.List(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponses(tickets)})
}

// GetTicket GET /api/tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.Get(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// GetByProtocol GET /api/tickets/protocol/:protocol.
func (h *TicketsHandler) GetByProtocol(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.FindByProtocol(c.UserContext(), actor, c.Params("protocol"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// ProtocolAvailability GET /api/tickets/protocols/:protocol.
func (h *TicketsHandler) ProtocolAvailability(c *fiber.Ctx) error {
	protocol := c.Params("protocol")
	taken, err := h.service.IsProtocolTaken(c.UserContext(), protocol)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ProtocolAvailabilityResponse{Protocol: protocol, Available: !taken}})
}

// UpdateTicket PATCH /api/tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := h.binder.Body(c, &req); err != nil {
		return err
	}

	ticket, err := h.service.Patch(c.UserContext(), actor, c.Params("id"), service.TicketPatch{
		Protocol:        req.Protocol,
		Area:            req.Area,
		Status:          req.Status,
		Priority:        req.Priority,
		ClientType:      req.ClientType,
		ClientLabel:     req.ClientLabel,
		AssignedAgentID: req.AssignedAgentID,
		Description:     req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// ListHistory GET /api/tickets/:id/history.
func (h *TicketsHandler) ListHistory(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	entries, err := h.service.History(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketHistoryResponses(entries)})
}

// PurgeTickets DELETE /api/tickets.
func (h *TicketsHandler) PurgeTickets(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	deleted, err := h.service.Purge(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"deleted": deleted}})
}
