package domain

import (
	"time"

	"github.com/google/uuid"
)

// TicketStatus enumerates lifecycle states for kiosk tickets.
type TicketStatus string

const (
	TicketStatusOpened   TicketStatus = "opened"
	TicketStatusAccepted TicketStatus = "accepted"
	TicketStatusDeclined TicketStatus = "declined"
	TicketStatusClosed   TicketStatus = "closed"
)

// Valid reports whether s is one of the four known statuses.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpened, TicketStatusAccepted, TicketStatusDeclined, TicketStatusClosed:
		return true
	}
	return false
}

// Locked reports whether the ticket sits in a state that only an appeal can reopen.
func (s TicketStatus) Locked() bool {
	return s == TicketStatusDeclined || s == TicketStatusClosed
}

// RequesterInfo is captured once at the kiosk and never mutated.
type RequesterInfo struct {
	Name       string
	Email      string
	Phone      string
	Request    string
	Attachment string
}

// Ticket is the aggregate for one visitor request and its conversation.
type Ticket struct {
	ID              string
	Status          TicketStatus
	Requester       RequesterInfo
	DeclineReason   *string
	Messages        []Message
	LastAdminSeenAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewTicket builds a freshly submitted ticket in the opened state.
func NewTicket(info RequesterInfo, now time.Time) *Ticket {
	return &Ticket{
		ID:        uuid.NewString(),
		Status:    TicketStatusOpened,
		Requester: info,
		Messages:  []Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// MarkSeen records when an admin last looked at the ticket. Advisory only.
func (t *Ticket) MarkSeen(now time.Time) {
	seen := now
	t.LastAdminSeenAt = &seen
}

// Clone returns a deep copy so stores never share slices with callers.
func (t *Ticket) Clone() *Ticket {
	if t == nil {
		return nil
	}
	cp := *t
	if t.DeclineReason != nil {
		reason := *t.DeclineReason
		cp.DeclineReason = &reason
	}
	if t.LastAdminSeenAt != nil {
		seen := *t.LastAdminSeenAt
		cp.LastAdminSeenAt = &seen
	}
	cp.Messages = make([]Message, len(t.Messages))
	copy(cp.Messages, t.Messages)
	return &cp
}
