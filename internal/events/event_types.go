package events

import (
	"time"

	"github.com/spec-kit/kiosk-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketMessageAdded  EventType = "ticket_message_added"
)

// AllEventTypes lists every type a forwarder needs to subscribe to.
var AllEventTypes = []EventType{EventTicketCreated, EventTicketStatusChanged, EventTicketMessageAdded}

// ActorType identifies who triggered an event.
type ActorType string

const (
	ActorKiosk   ActorType = "kiosk"
	ActorAdmin   ActorType = "admin"
	ActorVisitor ActorType = "visitor"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  string    `json:"ticket_id"`
	Actor     ActorType `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	RequesterName  string `json:"requester_name"`
	RequestPreview string `json:"request_preview"`
	HasAttachment  bool   `json:"has_attachment"`
}

// TicketStatusChangedPayload payload. Trigger is the review action or "appeal".
type TicketStatusChangedPayload struct {
	OldStatus     domain.TicketStatus `json:"old_status"`
	NewStatus     domain.TicketStatus `json:"new_status"`
	Trigger       string              `json:"trigger"`
	DeclineReason string              `json:"decline_reason,omitempty"`
}

// TicketMessageAddedPayload payload.
type TicketMessageAddedPayload struct {
	MessageID     string               `json:"message_id"`
	Origin        domain.MessageOrigin `json:"origin"`
	BodyPreview   string               `json:"body_preview"`
	HasAttachment bool                 `json:"has_attachment"`
}
