package handlers

import (
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/kiosk-service/internal/api/dto"
	"github.com/spec-kit/kiosk-service/internal/auth"
	"github.com/spec-kit/kiosk-service/internal/qr"
	"github.com/spec-kit/kiosk-service/internal/service"
	apperrors "github.com/spec-kit/kiosk-service/pkg/util"
)

// KioskHandler serves the lobby check-in form.
type KioskHandler struct {
	service *service.TicketService
	signer  *auth.LinkSigner
	baseURL string
}

// NewKioskHandler constructs handler. An empty baseURL falls back to the
// request's own scheme and host.
func NewKioskHandler(ticketService *service.TicketService, signer *auth.LinkSigner, baseURL string) *KioskHandler {
	return &KioskHandler{service: ticketService, signer: signer, baseURL: strings.TrimRight(baseURL, "/")}
}

// Checkin POST /checkin.
func (h *KioskHandler) Checkin(c *fiber.Ctx) error {
	var req dto.CheckinRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	upload, release, err := formUpload(c, imageField)
	if err != nil {
		return err
	}
	defer release()

	ticket, err := h.service.Checkin(c.UserContext(), service.CheckinInput{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Request: req.Request,
		Image:   upload,
	})
	if err != nil {
		return err
	}

	token, err := h.signer.Sign(ticket.ID)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	statusURL := h.statusURL(c, ticket.ID, token)
	code, err := qr.DataURL(statusURL, qr.DefaultSize)
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.CheckinResponse{
		Ticket:    ticketDetail(ticket),
		StatusURL: statusURL,
		QR:        code,
	}})
}

func (h *KioskHandler) statusURL(c *fiber.Ctx, ticketID, token string) string {
	base := h.baseURL
	if base == "" {
		base = c.BaseURL()
	}
	return base + "/status/" + url.PathEscape(ticketID) + "?" + auth.LinkQueryParam + "=" + url.QueryEscape(token)
}
