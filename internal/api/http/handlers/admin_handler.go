package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/kiosk-service/internal/api/dto"
	"github.com/spec-kit/kiosk-service/internal/domain"
	"github.com/spec-kit/kiosk-service/internal/service"
	apperrors "github.com/spec-kit/kiosk-service/pkg/util"
)

// AdminHandler serves the review dashboard.
type AdminHandler struct {
	service *service.TicketService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(ticketService *service.TicketService) *AdminHandler {
	return &AdminHandler{service: ticketService}
}

// ListTickets GET /admin/tickets.
func (h *AdminHandler) ListTickets(c *fiber.Ctx) error {
	items, err := h.service.ListForAdmin(c.UserContext(), parseAdminListQuery(c))
	if err != nil {
		return err
	}
	out := make([]dto.TicketSummary, 0, len(items))
	for _, item := range items {
		out = append(out, ticketSummary(item))
	}
	return c.JSON(fiber.Map{"data": out})
}

// GetTicket GET /admin/tickets/:id. Opening a ticket marks it as seen.
func (h *AdminHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.service.ReviewTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"ticket":              ticketDetail(ticket),
		"has_unseen_activity": domain.HasUnseenVisitorActivity(ticket),
		"decline_reasons":     domain.DeclineReasons,
	}})
}

// Respond POST /admin/tickets/:id/respond.
func (h *AdminHandler) Respond(c *fiber.Ctx) error {
	var req dto.RespondRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	cited := strings.TrimSpace(req.CitedURL)
	if cited == "" {
		cited = strings.TrimSpace(req.Website)
	}
	ticket, err := h.service.Respond(c.UserContext(), c.Params("id"), domain.Review{
		Action:        domain.ReviewAction(req.Action),
		Message:       req.Message,
		CitedURL:      cited,
		DeclineReason: req.DeclineReason,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// DeclineReasons GET /admin/decline-reasons.
func (h *AdminHandler) DeclineReasons(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": domain.DeclineReasons})
}
