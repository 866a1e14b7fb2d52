package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/techdesk-service/internal/api/dto"
	"github.com/spec-kit/techdesk-service/internal/service"
	apperrors "github.com/spec-kit/techdesk-service/pkg/util/errorutil"
)

// TicketHandler serves both the employee and the admin ticket endpoints.
type TicketHandler struct {
	tickets *service.TicketService
}

// NewTicketHandler constructs handler.
func NewTicketHandler(tickets *service.TicketService) *TicketHandler {
	return &TicketHandler{tickets: tickets}
}

// Create handles POST /tickets.
func (h *TicketHandler) Create(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.tickets.CreateTicket(c.UserContext(), actor, service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		AssetTag:    req.AssetTag,
		Category:    req.Category,
		PhotoURLs:   req.PhotoURLs,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.TicketFromDomain(ticket)})
}

// ListMine handles GET /tickets.
func (h *TicketHandler) ListMine(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	tickets, err := h.tickets.GetTicketsByEmployee(c.UserContext(), actor.UID)
	if err != nil {
		return err
	}
	return data(c, dto.TicketsFromDomain(tickets))
}

// Get handles GET /tickets/:id and GET /admin/tickets/:id.
func (h *TicketHandler) Get(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	ticket, err := h.tickets.GetTicketByID(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return data(c, dto.TicketFromDomain(ticket))
}

// Comment handles POST /tickets/:id/comments. Employees may only comment.
func (h *TicketHandler) Comment(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Comment == "" {
		return apperrors.NewValidationError("comment required", nil)
	}
	result, err := h.tickets.AddCommentAndMaybeUpdateStatus(c.UserContext(), actor, c.Params("id"), "", req.Comment)
	if err != nil {
		return err
	}
	return updateResponse(c, result)
}

// List handles GET /admin/tickets?status=&category=&employee=.
func (h *TicketHandler) List(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var q dto.TicketListQuery
	if err := c.QueryParser(&q); err != nil {
		return apperrors.NewValidationError("invalid query", nil)
	}
	tickets, err := h.tickets.GetTicketsForAdmin(c.UserContext(), actor.CompanyID, q.Filter())
	if err != nil {
		return err
	}
	return data(c, dto.TicketsFromDomain(tickets))
}

// Update handles PATCH /admin/tickets/:id: a status change, a comment, or
// both in one write.
func (h *TicketHandler) Update(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	result, err := h.tickets.AddCommentAndMaybeUpdateStatus(c.UserContext(), actor, c.Params("id"), req.Status, req.Comment)
	if err != nil {
		return err
	}
	return updateResponse(c, result)
}

// Stats handles GET /admin/tickets/stats.
func (h *TicketHandler) Stats(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	stats, err := h.tickets.GetTicketStats(c.UserContext(), actor.CompanyID)
	if err != nil {
		return err
	}
	return data(c, stats)
}

// Delete handles DELETE /admin/tickets/:id.
func (h *TicketHandler) Delete(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	if err := h.tickets.DeleteTicket(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func updateResponse(c *fiber.Ctx, result *service.UpdateResult) error {
	return c.JSON(fiber.Map{
		"data":           dto.TicketFromDomain(result.Ticket),
		"message":        result.Message,
		"status_changed": result.StatusChanged,
		"comment_added":  result.CommentAdded,
	})
}
