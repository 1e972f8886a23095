package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateFollowUp(t *testing.T) {
	admin := func(m int) Message { return Message{Origin: OriginAdmin, Text: "a", SentAt: at(m)} }
	visitor := func(m int) Message { return Message{Origin: OriginVisitor, Text: "v", SentAt: at(m)} }

	cases := []struct {
		name     string
		status   TicketStatus
		messages []Message
		want     FollowUpDecision
	}{
		{name: "opened without admin contact", status: TicketStatusOpened, want: FollowUpDecision{}},
		{name: "opened admin has the turn", status: TicketStatusOpened, messages: []Message{admin(1)}, want: FollowUpDecision{Allowed: true, AllowAttachment: true}},
		{name: "opened visitor has last word", status: TicketStatusOpened, messages: []Message{admin(1), visitor(2)}, want: FollowUpDecision{}},
		{name: "opened equal timestamps deny", status: TicketStatusOpened, messages: []Message{admin(1), visitor(1)}, want: FollowUpDecision{}},
		{name: "opened admin replied again", status: TicketStatusOpened, messages: []Message{admin(1), visitor(2), admin(3)}, want: FollowUpDecision{Allowed: true, AllowAttachment: true}},
		{name: "accepted never", status: TicketStatusAccepted, messages: []Message{admin(1)}, want: FollowUpDecision{}},
		{name: "declined appeal", status: TicketStatusDeclined, messages: []Message{admin(1), visitor(2)}, want: FollowUpDecision{Allowed: true}},
		{name: "closed appeal without messages", status: TicketStatusClosed, want: FollowUpDecision{Allowed: true}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ticket := &Ticket{Status: tc.status, Messages: tc.messages}
			assert.Equal(t, tc.want, EvaluateFollowUp(ticket))
		})
	}
}
