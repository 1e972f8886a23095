package dto

import (
	"time"

	"github.com/spec-kit/kiosk-service/internal/domain"
)

// CheckinRequest is the kiosk form. The image arrives as a multipart file.
type CheckinRequest struct {
	Name    string `json:"name" form:"name"`
	Email   string `json:"email" form:"email"`
	Phone   string `json:"phone" form:"phone"`
	Request string `json:"request" form:"request"`
}

// CheckinResponse is returned after a successful check-in.
type CheckinResponse struct {
	Ticket    TicketDetailResponse `json:"ticket"`
	StatusURL string               `json:"status_url"`
	QR        string               `json:"qr"`
}

// RespondRequest is the admin review payload. Website is accepted as an alias
// of CitedURL for older dashboard builds.
type RespondRequest struct {
	Action        string `json:"action" form:"action"`
	Message       string `json:"message" form:"message"`
	CitedURL      string `json:"cited_url" form:"cited_url"`
	Website       string `json:"website" form:"website"`
	DeclineReason string `json:"decline_reason" form:"decline_reason"`
}

// FollowUpRequest is a visitor status-page message.
type FollowUpRequest struct {
	Message string `json:"message" form:"message"`
}

// RequesterResponse echoes what the visitor entered at the kiosk.
type RequesterResponse struct {
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Request    string `json:"request"`
	Attachment string `json:"attachment,omitempty"`
}

// ConversationEntryResponse is one line of the merged thread.
type ConversationEntryResponse struct {
	ID         string               `json:"id"`
	Origin     domain.MessageOrigin `json:"origin"`
	Text       string               `json:"text"`
	CitedURL   string               `json:"cited_url,omitempty"`
	Attachment string               `json:"attachment,omitempty"`
	SentAt     time.Time            `json:"sent_at"`
}

// TicketSummary is a dashboard row.
type TicketSummary struct {
	ID                string              `json:"id"`
	Status            domain.TicketStatus `json:"status"`
	Requester         RequesterResponse   `json:"requester"`
	RequestPreview    string              `json:"request_preview"`
	DeclineReason     *string             `json:"decline_reason"`
	HasUnseenActivity bool                `json:"has_unseen_activity"`
	MessageCount      int                 `json:"message_count"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info with the merged thread.
type TicketDetailResponse struct {
	ID              string                      `json:"id"`
	Status          domain.TicketStatus         `json:"status"`
	Requester       RequesterResponse           `json:"requester"`
	DeclineReason   *string                     `json:"decline_reason"`
	Conversation    []ConversationEntryResponse `json:"conversation"`
	LastAdminSeenAt *time.Time                  `json:"last_admin_seen_at,omitempty"`
	CreatedAt       time.Time                   `json:"created_at"`
	UpdatedAt       time.Time                   `json:"updated_at"`
}

// FollowUpPolicy tells the status page which controls to render.
type FollowUpPolicy struct {
	Allowed         bool `json:"allowed"`
	AllowAttachment bool `json:"allow_attachment"`
}

// VisitorStatusResponse is the status page payload.
type VisitorStatusResponse struct {
	Ticket   TicketDetailResponse `json:"ticket"`
	FollowUp FollowUpPolicy       `json:"follow_up"`
}
