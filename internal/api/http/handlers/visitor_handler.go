package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/kiosk-service/internal/api/dto"
	"github.com/spec-kit/kiosk-service/internal/service"
	apperrors "github.com/spec-kit/kiosk-service/pkg/util"
)

// VisitorHandler serves the status page reached through the QR link.
type VisitorHandler struct {
	service *service.TicketService
}

// NewVisitorHandler constructs handler.
func NewVisitorHandler(ticketService *service.TicketService) *VisitorHandler {
	return &VisitorHandler{service: ticketService}
}

// Status GET /status/:id.
func (h *VisitorHandler) Status(c *fiber.Ctx) error {
	view, err := h.service.VisitorView(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": visitorStatus(view)})
}

// FollowUp POST /status/:id/followups.
func (h *VisitorHandler) FollowUp(c *fiber.Ctx) error {
	var req dto.FollowUpRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	upload, release, err := formUpload(c, imageField)
	if err != nil {
		return err
	}
	defer release()

	view, err := h.service.FollowUp(c.UserContext(), c.Params("id"), service.FollowUpInput{
		Message: req.Message,
		Image:   upload,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": visitorStatus(view)})
}
