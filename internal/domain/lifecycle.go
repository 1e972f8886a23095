package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrInvalidAction is returned for review actions outside accept/decline/close.
	ErrInvalidAction = errors.New("invalid review action")
	// ErrForbidden is returned when the follow-up gate denies a visitor message.
	ErrForbidden = errors.New("follow-up not permitted")
	// ErrEmptyMessage is returned when a visitor follow-up carries no text.
	ErrEmptyMessage = errors.New("message required")
)

// DefaultDeclineReason is recorded when an admin declines without picking a reason.
const DefaultDeclineReason = "Declined"

// DeclineReasons is the catalogue offered to admins on the review screen.
var DeclineReasons = []string{"Incomplete info", "Not eligible", "Other"}

// ReviewAction enumerates admin review actions.
type ReviewAction string

const (
	ReviewAccept  ReviewAction = "accept"
	ReviewDecline ReviewAction = "decline"
	ReviewClose   ReviewAction = "close"
)

// ParseReviewAction normalizes raw input into a ReviewAction.
func ParseReviewAction(raw string) (ReviewAction, error) {
	action := ReviewAction(strings.ToLower(strings.TrimSpace(raw)))
	switch action {
	case ReviewAccept, ReviewDecline, ReviewClose:
		return action, nil
	}
	return "", ErrInvalidAction
}

// Review is the admin input driving a status transition.
type Review struct {
	Action        ReviewAction
	Message       string
	CitedURL      string
	DeclineReason string
}

// FollowUp is a visitor message submitted from the status page.
type FollowUp struct {
	Message    string
	Attachment string
}

// Transition describes the effect of an applied action.
type Transition struct {
	From              TicketStatus
	To                TicketStatus
	Appended          *Message
	AttachmentDropped bool
}

// StatusChanged reports whether the status moved.
func (tr Transition) StatusChanged() bool {
	return tr.From != tr.To
}

// Changed reports whether the ticket was mutated at all.
func (tr Transition) Changed() bool {
	return tr.StatusChanged() || tr.Appended != nil
}

// ApplyReview applies an admin action. Nothing is mutated when the action is invalid.
func (t *Ticket) ApplyReview(review Review, now time.Time) (Transition, error) {
	tr := Transition{From: t.Status}
	switch review.Action {
	case ReviewAccept:
		t.Status = TicketStatusAccepted
		if text := strings.TrimSpace(review.Message); text != "" {
			tr.Appended = t.appendMessage(Message{
				Origin:   OriginAdmin,
				Text:     text,
				CitedURL: strings.TrimSpace(review.CitedURL),
			}, now)
		}
	case ReviewDecline:
		reason := strings.TrimSpace(review.DeclineReason)
		text := "Declined: " + reason
		if reason == "" {
			reason = DefaultDeclineReason
			text = DefaultDeclineReason
		}
		t.Status = TicketStatusDeclined
		t.DeclineReason = &reason
		tr.Appended = t.appendMessage(Message{Origin: OriginAdmin, Text: text}, now)
	case ReviewClose:
		t.Status = TicketStatusClosed
	default:
		return tr, ErrInvalidAction
	}
	tr.To = t.Status
	if tr.Changed() {
		t.UpdatedAt = now
	}
	return tr, nil
}

// ApplyFollowUp appends a visitor message when the gate allows it. A follow-up
// on a locked ticket is an appeal and reopens it; attachments are dropped
// unless the ticket was opened at submission time.
func (t *Ticket) ApplyFollowUp(followUp FollowUp, now time.Time) (Transition, error) {
	tr := Transition{From: t.Status, To: t.Status}
	decision := EvaluateFollowUp(t)
	if !decision.Allowed {
		return tr, ErrForbidden
	}
	text := strings.TrimSpace(followUp.Message)
	if text == "" {
		return tr, ErrEmptyMessage
	}

	msg := Message{Origin: OriginVisitor, Text: text}
	if followUp.Attachment != "" {
		if decision.AllowAttachment {
			msg.Attachment = followUp.Attachment
		} else {
			tr.AttachmentDropped = true
		}
	}
	tr.Appended = t.appendMessage(msg, now)
	if t.Status.Locked() {
		t.Status = TicketStatusOpened
	}
	tr.To = t.Status
	t.UpdatedAt = now
	return tr, nil
}

func (t *Ticket) appendMessage(msg Message, now time.Time) *Message {
	msg.ID = uuid.NewString()
	msg.SentAt = now
	t.Messages = append(t.Messages, msg)
	return &msg
}
