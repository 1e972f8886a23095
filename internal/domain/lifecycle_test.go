package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

func at(minutes int) time.Time {
	return base.Add(time.Duration(minutes) * time.Minute)
}

func newTestTicket() *Ticket {
	return NewTicket(RequesterInfo{Name: "Ada", Email: "ada@example.com", Request: "need a badge"}, base)
}

func TestNewTicketStartsOpened(t *testing.T) {
	ticket := newTestTicket()

	assert.NotEmpty(t, ticket.ID)
	assert.Equal(t, TicketStatusOpened, ticket.Status)
	assert.Empty(t, ticket.AdminMessages())
	assert.Empty(t, ticket.VisitorMessages())
	assert.Nil(t, ticket.DeclineReason)
	assert.Equal(t, base, ticket.CreatedAt)
}

func TestParseReviewAction(t *testing.T) {
	for raw, want := range map[string]ReviewAction{
		"accept":    ReviewAccept,
		" Decline ": ReviewDecline,
		"CLOSE":     ReviewClose,
	} {
		got, err := ParseReviewAction(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got)
	}

	_, err := ParseReviewAction("reopen")
	assert.ErrorIs(t, err, ErrInvalidAction)
}

func TestApplyReviewAcceptWithMessage(t *testing.T) {
	ticket := newTestTicket()

	tr, err := ticket.ApplyReview(Review{
		Action:   ReviewAccept,
		Message:  "Here is your badge info",
		CitedURL: "https://example.com",
	}, at(1))
	require.NoError(t, err)

	assert.Equal(t, TicketStatusAccepted, ticket.Status)
	assert.True(t, tr.StatusChanged())
	require.Len(t, ticket.AdminMessages(), 1)
	msg := ticket.AdminMessages()[0]
	assert.Equal(t, "Here is your badge info", msg.Text)
	assert.Equal(t, "https://example.com", msg.CitedURL)
	assert.Equal(t, at(1), msg.SentAt)
	assert.Equal(t, at(1), ticket.UpdatedAt)
}

func TestApplyReviewAcceptWithoutMessage(t *testing.T) {
	ticket := newTestTicket()

	tr, err := ticket.ApplyReview(Review{Action: ReviewAccept, Message: "   "}, at(1))
	require.NoError(t, err)

	assert.Equal(t, TicketStatusAccepted, ticket.Status)
	assert.Nil(t, tr.Appended)
	assert.Empty(t, ticket.Messages)
}

func TestApplyReviewDecline(t *testing.T) {
	ticket := newTestTicket()

	tr, err := ticket.ApplyReview(Review{Action: ReviewDecline, DeclineReason: "Not eligible"}, at(1))
	require.NoError(t, err)

	assert.Equal(t, TicketStatusDeclined, ticket.Status)
	require.NotNil(t, ticket.DeclineReason)
	assert.Equal(t, "Not eligible", *ticket.DeclineReason)
	require.NotNil(t, tr.Appended)
	assert.Equal(t, "Declined: Not eligible", tr.Appended.Text)
	assert.Equal(t, OriginAdmin, tr.Appended.Origin)
}

func TestApplyReviewDeclineWithoutReason(t *testing.T) {
	ticket := newTestTicket()

	_, err := ticket.ApplyReview(Review{Action: ReviewDecline}, at(1))
	require.NoError(t, err)

	require.NotNil(t, ticket.DeclineReason)
	assert.Equal(t, DefaultDeclineReason, *ticket.DeclineReason)
	assert.Equal(t, DefaultDeclineReason, ticket.AdminMessages()[0].Text)
}

func TestApplyReviewCloseIsIdempotent(t *testing.T) {
	ticket := newTestTicket()
	_, err := ticket.ApplyReview(Review{Action: ReviewClose}, at(1))
	require.NoError(t, err)
	snapshot := ticket.Clone()

	tr, err := ticket.ApplyReview(Review{Action: ReviewClose, Message: "ignored"}, at(5))
	require.NoError(t, err)

	assert.False(t, tr.Changed())
	assert.Equal(t, snapshot, ticket)
}

func TestApplyReviewInvalidActionLeavesTicketUntouched(t *testing.T) {
	ticket := newTestTicket()
	snapshot := ticket.Clone()

	_, err := ticket.ApplyReview(Review{Action: ReviewAction("escalate"), Message: "hi"}, at(1))

	assert.ErrorIs(t, err, ErrInvalidAction)
	assert.Equal(t, snapshot, ticket)
}

func TestFollowUpDeniedBeforeFirstAdminMessage(t *testing.T) {
	ticket := newTestTicket()

	_, err := ticket.ApplyFollowUp(FollowUp{Message: "hello?"}, at(1))

	assert.ErrorIs(t, err, ErrForbidden)
	assert.Empty(t, ticket.Messages)
}

func TestFollowUpTurnTaking(t *testing.T) {
	ticket := newTestTicket()
	ticket.Messages = append(ticket.Messages, Message{ID: "a1", Origin: OriginAdmin, Text: "what floor?", SentAt: at(1)})

	_, err := ticket.ApplyFollowUp(FollowUp{Message: "third floor"}, at(2))
	require.NoError(t, err)

	_, err = ticket.ApplyFollowUp(FollowUp{Message: "also need parking"}, at(3))
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Len(t, ticket.VisitorMessages(), 1)

	ticket.Messages = append(ticket.Messages, Message{ID: "a2", Origin: OriginAdmin, Text: "noted", SentAt: at(4)})
	_, err = ticket.ApplyFollowUp(FollowUp{Message: "also need parking"}, at(5))
	require.NoError(t, err)
	assert.Len(t, ticket.VisitorMessages(), 2)
}

func TestFollowUpDeniedOnAcceptedTicket(t *testing.T) {
	ticket := newTestTicket()
	_, err := ticket.ApplyReview(Review{Action: ReviewAccept, Message: "Here is your badge info", CitedURL: "https://example.com"}, at(1))
	require.NoError(t, err)

	_, err = ticket.ApplyFollowUp(FollowUp{Message: "Thanks!"}, at(2))

	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, TicketStatusAccepted, ticket.Status)
	assert.Empty(t, ticket.VisitorMessages())
}

func TestFollowUpAppealReopensDeclinedTicket(t *testing.T) {
	ticket := newTestTicket()
	_, err := ticket.ApplyReview(Review{Action: ReviewDecline, DeclineReason: "Not eligible"}, at(1))
	require.NoError(t, err)

	tr, err := ticket.ApplyFollowUp(FollowUp{Message: "Please reconsider", Attachment: "/uploads/x.png"}, at(2))
	require.NoError(t, err)

	assert.Equal(t, TicketStatusOpened, ticket.Status)
	assert.Equal(t, TicketStatusDeclined, tr.From)
	assert.True(t, tr.AttachmentDropped)
	require.NotNil(t, ticket.DeclineReason)
	assert.Equal(t, "Not eligible", *ticket.DeclineReason)
	visitor := ticket.VisitorMessages()
	require.Len(t, visitor, 1)
	assert.Equal(t, "Please reconsider", visitor[0].Text)
	assert.Empty(t, visitor[0].Attachment)
}

func TestFollowUpAppealReopensClosedTicket(t *testing.T) {
	ticket := newTestTicket()
	_, err := ticket.ApplyReview(Review{Action: ReviewClose}, at(1))
	require.NoError(t, err)

	_, err = ticket.ApplyFollowUp(FollowUp{Message: "not resolved"}, at(2))
	require.NoError(t, err)

	assert.Equal(t, TicketStatusOpened, ticket.Status)
	assert.Nil(t, ticket.DeclineReason)
}

func TestFollowUpKeepsAttachmentWhileOpened(t *testing.T) {
	ticket := newTestTicket()
	ticket.Messages = append(ticket.Messages, Message{Origin: OriginAdmin, Text: "send a photo", SentAt: at(1)})

	tr, err := ticket.ApplyFollowUp(FollowUp{Message: "here", Attachment: "/uploads/photo.png"}, at(2))
	require.NoError(t, err)

	assert.False(t, tr.AttachmentDropped)
	assert.Equal(t, "/uploads/photo.png", ticket.VisitorMessages()[0].Attachment)
}

func TestFollowUpRejectsBlankMessage(t *testing.T) {
	ticket := newTestTicket()
	_, err := ticket.ApplyReview(Review{Action: ReviewClose}, at(1))
	require.NoError(t, err)

	_, err = ticket.ApplyFollowUp(FollowUp{Message: "  "}, at(2))

	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Equal(t, TicketStatusClosed, ticket.Status)
}

func TestStatusAlwaysValid(t *testing.T) {
	ticket := newTestTicket()
	steps := []func(int) error{
		func(m int) error { _, err := ticket.ApplyReview(Review{Action: ReviewAccept, Message: "ok"}, at(m)); return err },
		func(m int) error { _, err := ticket.ApplyReview(Review{Action: ReviewDecline}, at(m)); return err },
		func(m int) error { _, err := ticket.ApplyFollowUp(FollowUp{Message: "appeal"}, at(m)); return err },
		func(m int) error { _, err := ticket.ApplyReview(Review{Action: ReviewAction("bogus")}, at(m)); return err },
		func(m int) error { _, err := ticket.ApplyReview(Review{Action: ReviewClose}, at(m)); return err },
		func(m int) error { _, err := ticket.ApplyFollowUp(FollowUp{Message: "again"}, at(m)); return err },
	}
	for i, step := range steps {
		_ = step(i + 1)
		assert.True(t, ticket.Status.Valid(), "step %d produced %q", i, ticket.Status)
	}
}
