package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/kiosk-service/internal/api/dto"
	"github.com/spec-kit/kiosk-service/internal/domain"
	"github.com/spec-kit/kiosk-service/internal/service"
	"github.com/spec-kit/kiosk-service/internal/storage"
	apperrors "github.com/spec-kit/kiosk-service/pkg/util"
)

const imageField = "image"

// formUpload extracts an optional image from a multipart body. The returned
// release func must be called once the upload has been consumed.
func formUpload(c *fiber.Ctx, field string) (*storage.Upload, func(), error) {
	noop := func() {}
	if !strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		return nil, noop, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, noop, apperrors.NewValidationError("invalid multipart form", nil)
	}
	files := form.File[field]
	if len(files) == 0 || files[0].Size == 0 {
		return nil, noop, nil
	}
	fh := files[0]
	file, err := fh.Open()
	if err != nil {
		return nil, noop, apperrors.NewInternalError(err)
	}
	upload := &storage.Upload{
		FileName:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Size:        fh.Size,
		Body:        file,
	}
	return upload, func() { _ = file.Close() }, nil
}

func ticketDetail(ticket *domain.Ticket) dto.TicketDetailResponse {
	conversation := ticket.Conversation()
	entries := make([]dto.ConversationEntryResponse, 0, len(conversation))
	for _, entry := range conversation {
		entries = append(entries, dto.ConversationEntryResponse{
			ID:         entry.ID,
			Origin:     entry.Origin,
			Text:       entry.Text,
			CitedURL:   entry.CitedURL,
			Attachment: entry.Attachment,
			SentAt:     entry.SentAt,
		})
	}
	return dto.TicketDetailResponse{
		ID:              ticket.ID,
		Status:          ticket.Status,
		Requester:       requesterResponse(ticket.Requester),
		DeclineReason:   ticket.DeclineReason,
		Conversation:    entries,
		LastAdminSeenAt: ticket.LastAdminSeenAt,
		CreatedAt:       ticket.CreatedAt,
		UpdatedAt:       ticket.UpdatedAt,
	}
}

func requesterResponse(info domain.RequesterInfo) dto.RequesterResponse {
	return dto.RequesterResponse{
		Name:       info.Name,
		Email:      info.Email,
		Phone:      info.Phone,
		Request:    info.Request,
		Attachment: info.Attachment,
	}
}

func ticketSummary(item service.AdminListItem) dto.TicketSummary {
	request := []rune(item.Ticket.Requester.Request)
	if len(request) > 80 {
		request = append(request[:77], []rune("...")...)
	}
	return dto.TicketSummary{
		ID:                item.Ticket.ID,
		Status:            item.Ticket.Status,
		Requester:         requesterResponse(item.Ticket.Requester),
		RequestPreview:    string(request),
		DeclineReason:     item.Ticket.DeclineReason,
		HasUnseenActivity: item.HasUnseenActivity,
		MessageCount:      len(item.Ticket.Messages),
		CreatedAt:         item.Ticket.CreatedAt,
		UpdatedAt:         item.Ticket.UpdatedAt,
	}
}

func visitorStatus(view *service.VisitorView) dto.VisitorStatusResponse {
	return dto.VisitorStatusResponse{
		Ticket: ticketDetail(view.Ticket),
		FollowUp: dto.FollowUpPolicy{
			Allowed:         view.FollowUp.Allowed,
			AllowAttachment: view.FollowUp.AllowAttachment,
		},
	}
}

func parseAdminListQuery(c *fiber.Ctx) service.TicketListFilter {
	filter := service.TicketListFilter{}
	if raw := c.Query("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
				filter.Statuses = append(filter.Statuses, domain.TicketStatus(part))
			}
		}
	}
	pageSize, _ := strconv.Atoi(c.Query("page_size"))
	if pageSize <= 0 || pageSize > 200 {
		pageSize = 50
	}
	page, _ := strconv.Atoi(c.Query("page"))
	if page <= 0 {
		page = 1
	}
	filter.Limit = pageSize
	filter.Offset = (page - 1) * pageSize
	return filter
}
