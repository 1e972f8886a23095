package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/kiosk-service/internal/domain"
	"github.com/spec-kit/kiosk-service/internal/events"
	"github.com/spec-kit/kiosk-service/internal/repository"
	"github.com/spec-kit/kiosk-service/internal/storage"
	apperrors "github.com/spec-kit/kiosk-service/pkg/util"
)

const (
	checkinFolder  = "checkins"
	followUpFolder = "followups"
)

// TicketService coordinates kiosk submissions, admin reviews and visitor
// follow-ups. Every mutation is one atomic read-modify-write on the store.
type TicketService struct {
	tickets    repository.TicketRepository
	blobs      storage.BlobStore
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	BlobStore  storage.BlobStore
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Clock      func() time.Time
}

// CheckinInput is the kiosk submission payload.
type CheckinInput struct {
	Name    string
	Email   string
	Phone   string
	Request string
	Image   *storage.Upload
}

// FollowUpInput is a visitor message from the status page.
type FollowUpInput struct {
	Message string
	Image   *storage.Upload
}

// TicketListFilter describes admin dashboard filters.
type TicketListFilter struct {
	Statuses []domain.TicketStatus
	Limit    int
	Offset   int
}

// VisitorView is what the status page needs to render.
type VisitorView struct {
	Ticket       *domain.Ticket
	Conversation []domain.ConversationEntry
	FollowUp     domain.FollowUpDecision
}

// AdminListItem is one dashboard row.
type AdminListItem struct {
	Ticket            domain.Ticket
	HasUnseenActivity bool
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		blobs:      deps.BlobStore,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		now:        clock,
	}
}

// Checkin creates a ticket from a kiosk submission.
func (s *TicketService) Checkin(ctx context.Context, input CheckinInput) (*domain.Ticket, error) {
	info := domain.RequesterInfo{
		Name:    strings.TrimSpace(input.Name),
		Email:   strings.TrimSpace(input.Email),
		Phone:   strings.TrimSpace(input.Phone),
		Request: strings.TrimSpace(input.Request),
	}
	if info.Name == "" || info.Request == "" {
		return nil, apperrors.NewValidationError("name and request required", nil)
	}

	if input.Image != nil {
		blobPath, err := s.blobs.Store(ctx, checkinFolder, *input.Image)
		if err != nil {
			return nil, mapTicketError(err)
		}
		info.Attachment = blobPath
	}

	ticket := domain.NewTicket(info, s.now())
	if err := s.tickets.Create(ctx, ticket); err != nil {
		s.discardBlob(ctx, info.Attachment)
		return nil, mapTicketError(err)
	}

	s.logger.Info("ticket created", zap.String("ticket_id", ticket.ID))
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    events.ActorKiosk,
		Payload: events.TicketCreatedPayload{
			RequesterName:  info.Name,
			RequestPreview: stringPreview(info.Request, 120),
			HasAttachment:  info.Attachment != "",
		},
	})
	return ticket, nil
}

// GetTicket fetches a ticket without side effects.
func (s *TicketService) GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapTicketError(err)
	}
	return ticket, nil
}

// VisitorView returns the status page projection for a ticket.
func (s *TicketService) VisitorView(ctx context.Context, ticketID string) (*VisitorView, error) {
	ticket, err := s.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	return visitorView(ticket), nil
}

// ListForAdmin returns dashboard rows with the unseen-activity flag derived.
func (s *TicketService) ListForAdmin(ctx context.Context, filter TicketListFilter) ([]AdminListItem, error) {
	for _, status := range filter.Statuses {
		if !status.Valid() {
			return nil, apperrors.NewValidationError("unknown status filter", map[string]any{"status": status})
		}
	}
	tickets, err := s.tickets.List(ctx, repository.TicketFilter{
		Statuses: filter.Statuses,
		Limit:    filter.Limit,
		Offset:   filter.Offset,
	})
	if err != nil {
		return nil, mapTicketError(err)
	}
	items := make([]AdminListItem, 0, len(tickets))
	for i := range tickets {
		items = append(items, AdminListItem{
			Ticket:            tickets[i],
			HasUnseenActivity: domain.HasUnseenVisitorActivity(&tickets[i]),
		})
	}
	return items, nil
}

// ReviewTicket loads a ticket for the admin review screen and records when
// it was seen.
func (s *TicketService) ReviewTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.Update(ctx, ticketID, func(t *domain.Ticket) error {
		t.MarkSeen(s.now())
		return nil
	})
	if err != nil {
		return nil, mapTicketError(err)
	}
	return ticket, nil
}

// Respond applies an admin review action.
func (s *TicketService) Respond(ctx context.Context, ticketID string, review domain.Review) (*domain.Ticket, error) {
	action, err := domain.ParseReviewAction(string(review.Action))
	if err != nil {
		return nil, mapTicketError(err)
	}
	review.Action = action

	var transition domain.Transition
	ticket, err := s.tickets.Update(ctx, ticketID, func(t *domain.Ticket) error {
		tr, err := t.ApplyReview(review, s.now())
		transition = tr
		return err
	})
	if err != nil {
		return nil, mapTicketError(err)
	}

	s.publishTransition(ctx, ticket, transition, events.ActorAdmin, string(review.Action))
	return ticket, nil
}

// FollowUp records a visitor message. The gate is checked before any blob is
// stored and again inside the atomic update; blobs that end up unused are
// deleted.
func (s *TicketService) FollowUp(ctx context.Context, ticketID string, input FollowUpInput) (*VisitorView, error) {
	current, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapTicketError(err)
	}
	decision := domain.EvaluateFollowUp(current)
	if !decision.Allowed {
		return nil, mapTicketError(domain.ErrForbidden)
	}
	if strings.TrimSpace(input.Message) == "" {
		return nil, mapTicketError(domain.ErrEmptyMessage)
	}

	var attachment string
	if input.Image != nil && decision.AllowAttachment {
		attachment, err = s.blobs.Store(ctx, followUpFolder+"/"+ticketID, *input.Image)
		if err != nil {
			return nil, mapTicketError(err)
		}
	}

	var transition domain.Transition
	ticket, err := s.tickets.Update(ctx, ticketID, func(t *domain.Ticket) error {
		tr, err := t.ApplyFollowUp(domain.FollowUp{Message: input.Message, Attachment: attachment}, s.now())
		transition = tr
		return err
	})
	if err != nil {
		s.discardBlob(ctx, attachment)
		return nil, mapTicketError(err)
	}
	if transition.AttachmentDropped {
		s.discardBlob(ctx, attachment)
	}

	trigger := "follow_up"
	if transition.StatusChanged() {
		trigger = "appeal"
	}
	s.publishTransition(ctx, ticket, transition, events.ActorVisitor, trigger)
	return visitorView(ticket), nil
}

func visitorView(ticket *domain.Ticket) *VisitorView {
	return &VisitorView{
		Ticket:       ticket,
		Conversation: ticket.Conversation(),
		FollowUp:     domain.EvaluateFollowUp(ticket),
	}
}

func (s *TicketService) publishTransition(ctx context.Context, ticket *domain.Ticket, tr domain.Transition, actor events.ActorType, trigger string) {
	if tr.StatusChanged() {
		payload := events.TicketStatusChangedPayload{
			OldStatus: tr.From,
			NewStatus: tr.To,
			Trigger:   trigger,
		}
		if tr.To == domain.TicketStatusDeclined && ticket.DeclineReason != nil {
			payload.DeclineReason = *ticket.DeclineReason
		}
		s.logger.Info("ticket status changed",
			zap.String("ticket_id", ticket.ID),
			zap.String("old_status", string(tr.From)),
			zap.String("new_status", string(tr.To)),
			zap.String("trigger", trigger))
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketStatusChanged,
			TicketID: ticket.ID,
			Actor:    actor,
			Payload:  payload,
		})
	}
	if tr.Appended != nil {
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketMessageAdded,
			TicketID: ticket.ID,
			Actor:    actor,
			Payload: events.TicketMessageAddedPayload{
				MessageID:     tr.Appended.ID,
				Origin:        tr.Appended.Origin,
				BodyPreview:   stringPreview(tr.Appended.Text, 120),
				HasAttachment: tr.Appended.Attachment != "",
			},
		})
	}
}

func (s *TicketService) discardBlob(ctx context.Context, blobPath string) {
	if blobPath == "" {
		return
	}
	if err := s.blobs.Delete(ctx, blobPath); err != nil {
		s.logger.Warn("failed to discard attachment", zap.String("path", blobPath), zap.Error(err))
	}
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handlers failed",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID),
			zap.Error(err))
	}
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	runes := []rune(body)
	if len(runes) <= max {
		return body
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

// mapTicketError translates domain and store errors into DomainErrors while
// keeping the cause reachable with errors.Is.
func mapTicketError(err error) error {
	var de *apperrors.DomainError
	switch {
	case errors.As(err, &de):
		return err
	case errors.Is(err, repository.ErrTicketNotFound):
		return wrapCause(apperrors.NewNotFound("ticket", nil), err)
	case errors.Is(err, domain.ErrForbidden):
		return wrapCause(apperrors.NewForbidden("wait for an admin response before sending another message"), err)
	case errors.Is(err, domain.ErrInvalidAction):
		return wrapCause(apperrors.NewInvalidAction("action must be one of accept, decline, close", nil), err)
	case errors.Is(err, domain.ErrEmptyMessage):
		return wrapCause(apperrors.NewValidationError("message required", nil), err)
	case errors.Is(err, storage.ErrBlobTooLarge), errors.Is(err, storage.ErrUnsupportedMedia):
		return wrapCause(apperrors.NewValidationError(err.Error(), nil), err)
	case errors.Is(err, repository.ErrConcurrentUpdate):
		return wrapCause(apperrors.NewConflict("ticket was modified concurrently, retry", nil), err)
	}
	return apperrors.NewInternalError(err)
}

func wrapCause(target, cause error) error {
	return apperrors.ToDomainError(target).WithCause(cause)
}
